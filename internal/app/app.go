package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/nations-cup/external/commentary"
	"github.com/riskibarqy/nations-cup/internal/config"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/domain/tournament"
	"github.com/riskibarqy/nations-cup/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/nations-cup/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nations-cup/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/nations-cup/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/nations-cup/internal/platform/id"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/random"
	"github.com/riskibarqy/nations-cup/internal/platform/resilience"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

// Services is the wired use case layer shared by the API and the CLI.
type Services struct {
	Teams       *usecase.TeamService
	Tournaments *usecase.TournamentService
	Matches     *usecase.MatchService

	db *sqlx.DB
}

// Close releases the database pool when postgres storage is used.
func (s *Services) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type repositories struct {
	tournaments tournament.Repository
	teams       team.Repository
	matches     match.Repository
}

func NewServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ids := idgen.NewUUIDGenerator()
	source := random.NewSource(cfg.SimSeed)
	locks := usecase.NewTournamentLocks()

	var commentator usecase.Commentator
	if cfg.CommentaryEnabled {
		commentator = commentary.NewClient(commentary.ClientConfig{
			BaseURL:    cfg.CommentaryBaseURL,
			Token:      cfg.CommentaryToken,
			Model:      cfg.CommentaryModel,
			Timeout:    cfg.CommentaryTimeout,
			MaxRetries: cfg.CommentaryMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.CommentaryCircuitEnabled,
				FailureThreshold: cfg.CommentaryCircuitFailures,
				OpenTimeout:      cfg.CommentaryCircuitOpenTime,
				HalfOpenMaxReq:   cfg.CommentaryCircuitHalfOpen,
			},
		})
		logger.Info("commentary enabled", "base_url", cfg.CommentaryBaseURL, "model", cfg.CommentaryModel)
	}

	teams := usecase.NewTeamService(repos.tournaments, repos.teams, ids, source, locks, logger)
	tournaments := usecase.NewTournamentService(repos.tournaments, repos.teams, repos.matches, ids, locks, logger)
	matches := usecase.NewMatchService(
		repos.tournaments,
		repos.teams,
		repos.matches,
		nil,
		source,
		commentator,
		tournaments,
		locks,
		usecase.MatchServiceConfig{
			AutoAdvance:       cfg.SimAutoAdvance,
			RegenerateWorkers: cfg.SimRegenerateWorkers,
		},
		logger,
	)

	return &Services{
		Teams:       teams,
		Tournaments: tournaments,
		Matches:     matches,
		db:          db,
	}, nil
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	var (
		repos repositories
		db    *sqlx.DB
	)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		target, err := newPostgresTarget(cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		if db, err = openDB(ctx, target); err != nil {
			return repositories{}, nil, err
		}
		repos = repositories{
			tournaments: postgres.NewTournamentRepository(db),
			teams:       postgres.NewTeamRepository(db),
			matches:     postgres.NewMatchRepository(db),
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "db_name", target.name, "db", target.safe)
	case config.StorageMemory, "":
		repos = repositories{
			tournaments: memory.NewTournamentRepository(nil),
			teams:       memory.NewTeamRepository(nil),
			matches:     memory.NewMatchRepository(),
		}
		logger.Info("storage ready", "driver", config.StorageMemory)
	default:
		return repositories{}, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.CacheEnabled {
		repos.tournaments = cache.NewTournamentRepository(repos.tournaments, cfg.CacheTTL)
		repos.teams = cache.NewTeamRepository(repos.teams, cfg.CacheTTL)
	}

	return repos, db, nil
}

// NewHTTPServer wires the services behind the public router. The returned
// Services must be closed after the server shuts down.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, *Services, error) {
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	services, err := NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler := httpapi.NewHandler(services.Teams, services.Tournaments, services.Matches, httpapi.ReplayConfig{}, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, services, nil
}
