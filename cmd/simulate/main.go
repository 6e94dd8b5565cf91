package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/riskibarqy/nations-cup/internal/app"
	"github.com/riskibarqy/nations-cup/internal/config"
	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

type options struct {
	name    string
	seed    uint64
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.name, "name", "Nations Cup", "tournament name")
	flag.Uint64Var(&opts.seed, "seed", 0, "random seed, 0 draws a fresh one")
	flag.BoolVar(&opts.verbose, "v", false, "print goal scorers and key events")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewNop()
	if opts.verbose {
		logger = logging.NewJSON(logging.LevelWarn)
	}

	if err := run(ctx, os.Stdout, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, opts options, logger *logging.Logger) error {
	services, err := app.NewServices(ctx, config.Config{
		StorageDriver:        config.StorageMemory,
		SimSeed:              opts.seed,
		SimRegenerateWorkers: 1,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = services.Close()
	}()

	item, err := services.Tournaments.CreateTournament(ctx, usecase.CreateTournamentInput{Name: opts.name})
	if err != nil {
		return err
	}

	names := make(map[string]string, bracket.TeamCount)
	for _, nation := range memory.SeedNations() {
		registered, err := services.Teams.RegisterTeam(ctx, usecase.RegisterTeamInput{
			TournamentID: item.ID,
			Country:      nation.Country,
			Manager:      nation.Manager,
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", nation.Country, err)
		}
		names[registered.ID] = registered.Country
	}

	if item, err = services.Tournaments.StartTournament(ctx, item.ID); err != nil {
		return err
	}

	teams, err := services.Teams.ListTeams(ctx, item.ID)
	if err != nil {
		return err
	}
	printTeams(w, teams)

	for item.Stage != bracket.StageCompleted {
		played, err := services.Matches.SimulateRound(ctx, item.ID, match.SimulationSimulated)
		if err != nil {
			return fmt.Errorf("simulate %s: %w", item.Stage, err)
		}
		printRound(w, item.Stage, played, names, opts.verbose)

		if item, err = services.Tournaments.AdvanceRound(ctx, item.ID); err != nil {
			return fmt.Errorf("advance from %s: %w", item.Stage, err)
		}
	}

	fmt.Fprintf(w, "\nChampion: %s\n", names[item.ChampionID])
	return nil
}

func printTeams(w io.Writer, teams []team.Team) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTRY\tMANAGER\tRATING")
	for _, t := range teams {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\n", t.Country, t.Manager, t.OverallRating)
	}
	_ = tw.Flush()
}

func printRound(w io.Writer, stage bracket.Stage, played []match.Match, names map[string]string, verbose bool) {
	fmt.Fprintf(w, "\n%s\n", stage)
	for _, m := range played {
		if m.Result == nil {
			continue
		}
		r := m.Result
		line := fmt.Sprintf("  %s %d-%d %s", names[m.Team1ID], r.Team1Score, r.Team2Score, names[m.Team2ID])
		switch {
		case r.WentToPenalties && r.PenaltyShootout != nil:
			line += fmt.Sprintf(" (aet, %d-%d pens)", r.PenaltyShootout.Team1Score, r.PenaltyShootout.Team2Score)
		case r.WentToExtraTime:
			line += " (aet)"
		}
		fmt.Fprintln(w, line)

		if !verbose {
			continue
		}
		for _, g := range r.GoalScorers {
			note := ""
			switch {
			case g.IsOwnGoal:
				note = " og"
			case g.IsPenalty:
				note = " pen"
			}
			fmt.Fprintf(w, "    %d' %s%s (%s)\n", g.Minute, g.PlayerName, note, names[g.TeamID])
		}
	}
}
