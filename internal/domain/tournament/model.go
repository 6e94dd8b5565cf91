package tournament

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
)

// Tournament is an eight nation knockout competition.
type Tournament struct {
	ID         string
	Name       string
	Stage      bracket.Stage
	Bracket    bracket.Bracket
	ChampionID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t Tournament) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tournament id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tournament name is required")
	}
	if !t.Stage.Valid() {
		return fmt.Errorf("invalid tournament stage: %s", t.Stage)
	}

	return nil
}

// AcceptsTeams reports whether registration is still open.
func (t Tournament) AcceptsTeams() bool {
	return t.Stage == bracket.StageRegistration
}
