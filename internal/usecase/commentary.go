package usecase

import (
	"context"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
)

// CommentaryRequest is everything a commentator sees of a finished match.
type CommentaryRequest struct {
	Match  match.Match
	Home   team.Team
	Away   team.Team
	Result match.Result
	Events []match.Event
}

// Commentator turns a finished match into text lines. Lines are advisory and
// never change the result or the events.
type Commentator interface {
	Comment(ctx context.Context, req CommentaryRequest) ([]string, error)
}
