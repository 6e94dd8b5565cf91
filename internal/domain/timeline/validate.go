package timeline

import (
	"fmt"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
)

// Validate checks a timeline against the result it was generated from.
func Validate(events []match.Event, res match.Result, home, away Side) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: timeline is empty", ErrInvalidTimeline)
	}
	if events[0].Type != match.EventKickoff {
		return fmt.Errorf("%w: first event must be kickoff, got %s", ErrInvalidTimeline, events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != match.EventFinal {
		return fmt.Errorf("%w: last event must be final, got %s", ErrInvalidTimeline, last.Type)
	}

	counts := make(map[match.EventType]int)
	goals := map[string]int{}
	extratimeAt := -1
	fulltimeAt := -1
	for i, ev := range events {
		if i > 0 && ev.Minute < events[i-1].Minute {
			return fmt.Errorf("%w: minute %.2f follows %.2f", ErrInvalidTimeline, ev.Minute, events[i-1].Minute)
		}
		counts[ev.Type]++

		switch ev.Type {
		case match.EventGoal, match.EventOwnGoal:
			if ev.TeamID != home.TeamID && ev.TeamID != away.TeamID {
				return fmt.Errorf("%w: goal credited to unknown team %q", ErrInvalidTimeline, ev.TeamID)
			}
			goals[ev.TeamID]++
		case match.EventSubstitution:
			var side Side
			switch ev.TeamID {
			case home.TeamID:
				side = home
			case away.TeamID:
				side = away
			default:
				return fmt.Errorf("%w: substitution for unknown team %q", ErrInvalidTimeline, ev.TeamID)
			}
			if ev.SubIn == "" || ev.SubOut == "" {
				return fmt.Errorf("%w: substitution at %.2f is missing a player", ErrInvalidTimeline, ev.Minute)
			}
			if ev.PlayerID != "" && !side.hasPlayer(ev.PlayerID) {
				return fmt.Errorf("%w: substitute %s is not in the %s squad", ErrInvalidTimeline, ev.PlayerID, side.Name)
			}
			for _, name := range []string{ev.SubIn, ev.SubOut} {
				if !side.hasPlayerNamed(name) {
					return fmt.Errorf("%w: %s is not in the %s squad", ErrInvalidTimeline, name, side.Name)
				}
			}
		case match.EventExtratime:
			extratimeAt = i
		case match.EventFulltime:
			fulltimeAt = i
		case match.EventPenalties:
			if fulltimeAt < 0 {
				return fmt.Errorf("%w: penalties before fulltime", ErrInvalidTimeline)
			}
		}

		if ev.Minute > regulationMinute+1 && extratimeAt < 0 && ev.Type != match.EventFinal && ev.Type != match.EventFulltime {
			return fmt.Errorf("%w: %s at %.2f before extra time started", ErrInvalidTimeline, ev.Type, ev.Minute)
		}
	}

	for _, typ := range []match.EventType{match.EventKickoff, match.EventHalftime, match.EventFulltime, match.EventFinal} {
		if counts[typ] != 1 {
			return fmt.Errorf("%w: expected exactly one %s event, got %d", ErrInvalidTimeline, typ, counts[typ])
		}
	}
	if got := counts[match.EventExtratime]; (got == 1) != res.WentToExtraTime || got > 1 {
		return fmt.Errorf("%w: extratime marker does not match result", ErrInvalidTimeline)
	}
	if got := counts[match.EventPenalties]; (got == 1) != res.WentToPenalties || got > 1 {
		return fmt.Errorf("%w: penalties marker does not match result", ErrInvalidTimeline)
	}

	if goals[home.TeamID] != res.Team1Score || goals[away.TeamID] != res.Team2Score {
		return fmt.Errorf("%w: timeline goals %d-%d do not match result %d-%d",
			ErrInvalidTimeline, goals[home.TeamID], goals[away.TeamID], res.Team1Score, res.Team2Score)
	}
	if total := counts[match.EventGoal] + counts[match.EventOwnGoal]; total != len(res.GoalScorers) {
		return fmt.Errorf("%w: %d goal events for %d goal scorers", ErrInvalidTimeline, total, len(res.GoalScorers))
	}

	if snap := events[len(events)-1].Score; snap != nil {
		if snap.Team1 != res.Team1Score || snap.Team2 != res.Team2Score {
			return fmt.Errorf("%w: closing score %d-%d does not match result", ErrInvalidTimeline, snap.Team1, snap.Team2)
		}
	}

	return nil
}
