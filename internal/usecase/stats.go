package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

// updateTeamStats loads both sides of m, applies the match with sign and
// stores them together.
func updateTeamStats(ctx context.Context, repo team.Repository, m match.Match, sign int) error {
	if !m.IsCompleted() {
		return nil
	}

	home, exists, err := repo.GetByID(ctx, m.Team1ID)
	if err != nil {
		return fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: team=%s", ErrNotFound, m.Team1ID)
	}
	away, exists, err := repo.GetByID(ctx, m.Team2ID)
	if err != nil {
		return fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: team=%s", ErrNotFound, m.Team2ID)
	}

	home = home.Clone()
	away = away.Clone()
	applyMatchStats(&home, &away, m, sign)

	if err := repo.UpsertMany(ctx, []team.Team{home, away}); err != nil {
		return fmt.Errorf("upsert team stats: %w", err)
	}
	return nil
}

// applyMatchStats adds (sign=1) or removes (sign=-1) a completed match from
// both teams' numbers. A match settled on penalties counts as a draw in the
// table while the shootout winner still advances.
func applyMatchStats(home, away *team.Team, m match.Match, sign int) {
	if m.Result == nil {
		return
	}
	res := m.Result

	home.Stats.Played += sign
	away.Stats.Played += sign
	home.Stats.GoalsFor += sign * res.Team1Score
	home.Stats.GoalsAgainst += sign * res.Team2Score
	away.Stats.GoalsFor += sign * res.Team2Score
	away.Stats.GoalsAgainst += sign * res.Team1Score

	switch {
	case res.WentToPenalties:
		home.Stats.Draws += sign
		away.Stats.Draws += sign
	case res.WinnerID == home.ID:
		home.Stats.Wins += sign
		away.Stats.Losses += sign
	default:
		away.Stats.Wins += sign
		home.Stats.Losses += sign
	}

	applyPlayerStats(home, m.Team1Lineup, res.GoalScorers, sign)
	applyPlayerStats(away, m.Team2Lineup, res.GoalScorers, sign)
}

func applyPlayerStats(t *team.Team, lineup []string, goals []match.GoalScorer, sign int) {
	index := make(map[string]int, len(t.Squad))
	for i, p := range t.Squad {
		index[p.ID] = i
	}

	for _, id := range lineup {
		if i, ok := index[id]; ok {
			t.Squad[i].Appearances += sign
		}
	}
	for _, g := range goals {
		if g.IsOwnGoal {
			continue
		}
		if i, ok := index[g.PlayerID]; ok {
			t.Squad[i].Goals += sign
		}
	}
}
