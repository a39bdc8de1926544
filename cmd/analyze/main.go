// Command analyze prints quick, human-readable heuristics about levels. For
// every level it deals a number of seeded games and summarises how many cards
// start face up, how deep the stacks get, whether the layers hold the whole
// deck and how often the greedy strategy clears the board.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/tile-stack-game/game/autoplay"
	"github.com/wricardo/tile-stack-game/game/config"
	"github.com/wricardo/tile-stack-game/game/engine"
)

// LevelAnalysis holds deck statistics of one level over several deals
type LevelAnalysis struct {
	ID           string
	Name         string
	Deals        int
	TotalCards   int
	PlacedCards  int
	AvgFaceUp    float64
	MinFaceUp    int
	AvgDepth     float64
	MaxDepth     int
	GreedyWins   int
	AvgGreedyEnd float64 // cards left on the board when greedy stops
}

// GreedyWinRate returns the share of deals the greedy strategy won
func (a LevelAnalysis) GreedyWinRate() float64 {
	if a.Deals == 0 {
		return 0
	}
	return float64(a.GreedyWins) / float64(a.Deals)
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "print deck statistics for every level",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "levels-dir", Sources: cli.EnvVars("LEVELS_DIR"), Usage: "directory containing level files"},
			&cli.IntFlag{Name: "seeds", Value: 20, Usage: "deals per level"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd.Root().Writer, cmd.String("levels-dir"), int(cmd.Int("seeds")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, levelsDir string, seeds int) error {
	manager, err := config.NewManager(levelsDir)
	if err != nil {
		return err
	}
	infos, err := manager.ListLevels()
	if err != nil {
		return err
	}

	for _, info := range infos {
		level, err := manager.LoadLevel(info.ID)
		if err != nil {
			fmt.Fprintf(w, "Error loading %s: %v\n", info.ID, err)
			continue
		}
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.ID)
		analysis, err := analyzeLevel(level, seeds)
		if err != nil {
			fmt.Fprintf(w, "Error analyzing %s: %v\n", info.ID, err)
			continue
		}
		printAnalysis(w, analysis)
	}
	return nil
}

// analyzeLevel deals the level with seeds 1..seeds and collects statistics
func analyzeLevel(level *engine.Level, seeds int) (LevelAnalysis, error) {
	a := LevelAnalysis{
		ID:         level.ID,
		Name:       level.Name,
		TotalCards: level.TotalCards(),
		MinFaceUp:  -1,
	}

	quiet := log.New(io.Discard, "", 0)
	var faceUpSum, depthSum, depthCards, leftSum int
	for seed := 1; seed <= seeds; seed++ {
		state, err := engine.BuildLevel(level, engine.WithSeed(uint64(seed)), engine.WithLogger(quiet))
		if err != nil {
			return a, err
		}
		a.Deals++
		a.PlacedCards = len(state.Deck)

		faceUp := len(engine.FaceUpIDs(state.Deck))
		faceUpSum += faceUp
		if a.MinFaceUp < 0 || faceUp < a.MinFaceUp {
			a.MinFaceUp = faceUp
		}

		for _, c := range state.Deck {
			d := engine.CoverageDepth(state.Deck, c.ID)
			depthSum += d
			depthCards++
			if d > a.MaxDepth {
				a.MaxDepth = d
			}
		}

		res := autoplay.Play(state, autoplay.Greedy{}, 0)
		if res.Won {
			a.GreedyWins++
		}
		leftSum += engine.RemainingCards(res.Final)
	}

	if a.Deals > 0 {
		a.AvgFaceUp = float64(faceUpSum) / float64(a.Deals)
		a.AvgGreedyEnd = float64(leftSum) / float64(a.Deals)
	}
	if depthCards > 0 {
		a.AvgDepth = float64(depthSum) / float64(depthCards)
	}
	if a.MinFaceUp < 0 {
		a.MinFaceUp = 0
	}
	return a, nil
}

func printAnalysis(w io.Writer, a LevelAnalysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Deals: %d\n", a.Deals)
	fmt.Fprintf(w, "Cards: %d dealt, %d placed\n", a.TotalCards, a.PlacedCards)
	if a.PlacedCards < a.TotalCards {
		fmt.Fprintf(w, "⚠️  WARNING: layers hold %d cards fewer than the deck\n", a.TotalCards-a.PlacedCards)
	}
	fmt.Fprintf(w, "Face up at start: %.1f on average, %d at least\n", a.AvgFaceUp, a.MinFaceUp)
	fmt.Fprintf(w, "Coverage depth: %.2f on average, %d at most\n", a.AvgDepth, a.MaxDepth)
	fmt.Fprintf(w, "Greedy win rate: %.1f%% (%.1f cards left on average)\n", a.GreedyWinRate()*100, a.AvgGreedyEnd)
	if a.GreedyWins == 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: greedy play never cleared this level\n")
	} else {
		fmt.Fprintf(w, "✅ Greedy play can clear this level\n")
	}
}
