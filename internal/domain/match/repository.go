package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Match, error)
	Upsert(ctx context.Context, item Match) error
	Delete(ctx context.Context, matchID string) error
}
