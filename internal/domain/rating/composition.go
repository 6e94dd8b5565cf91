package rating

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

var ErrCompositionInvalid = errors.New("invalid team composition")

// CompositionReport lists every structural violation found in a squad and its starting eleven.
type CompositionReport struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Err returns nil for a valid report, otherwise one error carrying all violations.
func (r CompositionReport) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCompositionInvalid, strings.Join(r.Errors, "; "))
}

// ValidateTeamComposition checks starting eleven size and membership, goalkeeper count
// and captaincy. All violations are collected instead of stopping at the first.
func ValidateTeamComposition(squad []player.Player, startingIDs []string) CompositionReport {
	errs := make([]string, 0)

	if len(startingIDs) != team.StartingElevenLen {
		errs = append(errs, fmt.Sprintf("starting eleven must contain exactly %d players, got %d", team.StartingElevenLen, len(startingIDs)))
	}

	byID := player.IndexByID(squad)
	seen := make(map[string]struct{}, len(startingIDs))
	goalkeepers := 0
	for _, id := range startingIDs {
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Sprintf("starting player %s is listed more than once", id))
			continue
		}
		seen[id] = struct{}{}

		p, ok := byID[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("starting player %s is not in the squad", id))
			continue
		}
		if p.Position == player.PositionGoalkeeper {
			goalkeepers++
		}
	}
	if goalkeepers != 1 {
		errs = append(errs, fmt.Sprintf("starting eleven must contain exactly one goalkeeper, got %d goalkeeper(s)", goalkeepers))
	}

	captains := 0
	for _, p := range squad {
		if p.IsCaptain {
			captains++
		}
	}
	if captains != 1 {
		errs = append(errs, fmt.Sprintf("squad must contain exactly one captain, got %d", captains))
	}

	return CompositionReport{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// ValidateTeam runs ValidateTeamComposition against a team record.
func ValidateTeam(t team.Team) CompositionReport {
	return ValidateTeamComposition(t.Squad, t.StartingEleven)
}
