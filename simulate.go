package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/tile-stack-game/game/autoplay"
	"github.com/wricardo/tile-stack-game/game/ranking"
	"github.com/wricardo/tile-stack-game/game/service"
)

// SimulationOptions configures a batch of automatic games
type SimulationOptions struct {
	Level    string
	Games    int
	Workers  int
	Strategy string
	Seed     uint64
	Top      int
}

// SimulationReport summarises a batch of automatic games
type SimulationReport struct {
	Strategy   string
	Games      int
	Wins       int
	Losses     int
	TotalScore int
	Duration   time.Duration
	Leaders    []ranking.Entry
}

// WinRate returns the share of games won, between 0 and 1
func (r *SimulationReport) WinRate() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games)
}

// AverageScore returns the mean final score
func (r *SimulationReport) AverageScore() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(r.Games)
}

// runSimulation plays opts.Games sessions through the game service, several
// at a time, and submits every finished game to the ranking board
func runSimulation(ctx context.Context, gs service.GameService, opts SimulationOptions) (*SimulationReport, error) {
	if opts.Games <= 0 {
		return nil, errors.New("games must be positive")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	// Fail fast on a bad strategy name before spawning workers
	named, err := autoplay.New(opts.Strategy, opts.Seed)
	if err != nil {
		return nil, err
	}

	report := &SimulationReport{Strategy: named.Name()}
	var mu sync.Mutex
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Games; i++ {
		seed := opts.Seed + uint64(i)
		g.Go(func() error {
			strategy, err := autoplay.New(opts.Strategy, seed)
			if err != nil {
				return err
			}
			won, score, err := playSession(gctx, gs, opts.Level, seed, strategy)
			if err != nil {
				return fmt.Errorf("game with seed %d: %w", seed, err)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Games++
			report.TotalScore += score
			if won {
				report.Wins++
			} else {
				report.Losses++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	report.Leaders, err = gs.Ranking(ctx, opts.Top)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// playSession plays one game to the end and submits it under the strategy
// name and seed
func playSession(ctx context.Context, gs service.GameService, level string, seed uint64, strategy autoplay.Strategy) (bool, int, error) {
	info, err := gs.CreateSession(ctx, level, seed)
	if err != nil {
		return false, 0, err
	}
	defer func() {
		if err := gs.DeleteSession(ctx, info.ID); err != nil {
			log.Printf("Warning: failed to delete session %s: %v", info.ID, err)
		}
	}()

	state := info.GameState
	for !state.Terminal() {
		id, ok := strategy.Next(state)
		if !ok {
			return false, 0, fmt.Errorf("%s strategy found no move", strategy.Name())
		}
		res, err := gs.Select(ctx, info.ID, id)
		if err != nil {
			return false, 0, err
		}
		if !res.Success {
			return false, 0, fmt.Errorf("%s strategy picked card %d: %s", strategy.Name(), id, res.Message)
		}
		state = res.GameState
	}

	username := fmt.Sprintf("%s-%d", strategy.Name(), seed)
	if _, err := gs.SubmitScore(ctx, info.ID, username); err != nil {
		return false, 0, fmt.Errorf("failed to submit score: %w", err)
	}
	return state.Won, state.Score, nil
}

func printReport(w io.Writer, report *SimulationReport) error {
	fmt.Fprintf(w, "Strategy: %s\n", report.Strategy)
	fmt.Fprintf(w, "Games: %d (won %d, lost %d)\n", report.Games, report.Wins, report.Losses)
	fmt.Fprintf(w, "Win rate: %.1f%%\n", report.WinRate()*100)
	fmt.Fprintf(w, "Average score: %.1f\n", report.AverageScore())
	fmt.Fprintf(w, "Duration: %v\n\n", report.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tSCORE\tTIME")
	for _, e := range report.Leaders {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%dms\n", e.Rank, e.Username, e.Score, e.ElapsedMs)
	}
	return tw.Flush()
}

func simulate(ctx context.Context, cmd *cli.Command) error {
	gs, err := servicesFor(cmd)
	if err != nil {
		return err
	}

	report, err := runSimulation(ctx, gs, SimulationOptions{
		Level:    cmd.String("level"),
		Games:    int(cmd.Int("games")),
		Workers:  int(cmd.Int("workers")),
		Strategy: cmd.String("strategy"),
		Seed:     cmd.Uint64("seed"),
		Top:      int(cmd.Int("top")),
	})
	if err != nil {
		return err
	}

	log.Printf("Simulated %d games in %v", report.Games, report.Duration)
	return printReport(cmd.Root().Writer, report)
}
