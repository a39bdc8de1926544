// Command tilestack drives the tile stack game from the command line.
//
// It lists and validates levels, prints the level file schema, replays a
// seeded deal from a list of picks and simulates many games with an
// automatic strategy to rank them and measure how hard a level is.
//
// Flags may also be set through the environment (LEVELS_DIR, DEBUG) or a
// .env file in the working directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/tile-stack-game/game/autoplay"
	"github.com/wricardo/tile-stack-game/game/config"
	"github.com/wricardo/tile-stack-game/game/engine"
	"github.com/wricardo/tile-stack-game/game/ranking"
	"github.com/wricardo/tile-stack-game/game/service"
	"github.com/wricardo/tile-stack-game/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tile Stack Game"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "tilestack",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "levels-dir",
				Usage:   "directory containing level files (built-in levels only when empty)",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "levels",
				Usage:  "list available levels",
				Action: listLevels,
			},
			{
				Name:      "validate",
				Usage:     "validate level files",
				ArgsUsage: "FILE...",
				Action:    validateLevels,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON Schema of level files",
				Action: printSchema,
			},
			{
				Name:  "replay",
				Usage: "deal a seeded game, apply picks and print the resulting state",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "level", Usage: "level id (default level when empty)"},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "deal seed"},
					&cli.StringFlag{Name: "picks", Usage: "comma separated card ids, e.g. 3,5,7"},
				},
				Action: replay,
			},
			{
				Name:  "simulate",
				Usage: "play many seeded games automatically and rank them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "level", Usage: "level id (default level when empty)"},
					&cli.IntFlag{Name: "games", Value: 100, Usage: "number of games"},
					&cli.IntFlag{Name: "workers", Value: 4, Usage: "games played concurrently"},
					&cli.StringFlag{Name: "strategy", Value: "greedy", Usage: "one of " + strings.Join(autoplay.Strategies, ", ")},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "seed of the first game; game i uses seed+i"},
					&cli.IntFlag{Name: "top", Value: ranking.DefaultTopN, Usage: "leaderboard size"},
				},
				Action: simulate,
			},
		},
	}
}

// initializeServices wires the level and session managers into a game service
func initializeServices(levelsDir string) (service.GameService, error) {
	levels, err := config.NewManager(levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	sessions := session.NewManagerWithLogger(log.Default())
	return service.NewGameService(sessions, levels, ranking.NewBoard()), nil
}

func servicesFor(cmd *cli.Command) (service.GameService, error) {
	return initializeServices(cmd.Root().String("levels-dir"))
}

func listLevels(ctx context.Context, cmd *cli.Command) error {
	gs, err := servicesFor(cmd)
	if err != nil {
		return err
	}

	levels, err := gs.ListLevels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list levels: %w", err)
	}

	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPES\tCARDS\tLAYERS\tSLOT\tSOURCE")
	for _, l := range levels {
		source := l.Filename
		if l.BuiltIn {
			source = "built-in"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n", l.ID, l.Name, l.CardTypes, l.TotalCards, l.Layers, l.SlotCapacity, source)
	}
	return w.Flush()
}

// ValidationResult captures the outcome of validating a single file
type ValidationResult struct {
	File  string
	Level *engine.Level
	Err   error
}

// Valid reports whether the file holds a playable level
func (r ValidationResult) Valid() bool {
	return r.Err == nil
}

// validateFile reads and checks one level file
func validateFile(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read file: %w", err)
		return result
	}

	result.Level, result.Err = config.ParseLevel(path, data)
	return result
}

func validateLevels(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("no level files given")
	}

	out := cmd.Root().Writer
	invalid := 0
	for _, file := range files {
		result := validateFile(file)
		if result.Valid() {
			fmt.Fprintf(out, "✅ %s: %s (%d cards, %d layers)\n", result.File, result.Level.Name, result.Level.TotalCards(), len(result.Level.Layers))
			if short := result.Level.TotalCards() - result.Level.LayerCapacity(); short > 0 {
				fmt.Fprintf(out, "   ⚠️  layers hold %d cards fewer than the deck\n", short)
			}
			continue
		}
		invalid++
		fmt.Fprintf(out, "❌ %s: %v\n", result.File, result.Err)
	}

	fmt.Fprintf(out, "\n%d of %d level files are valid\n", len(files)-invalid, len(files))
	if invalid > 0 {
		return fmt.Errorf("%d invalid level files", invalid)
	}
	return nil
}

func printSchema(ctx context.Context, cmd *cli.Command) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, string(schema))
	return err
}

// parsePicks reads a comma separated list of card ids
func parsePicks(s string) ([]int, error) {
	picks := []int{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid card id %q: %w", field, err)
		}
		picks = append(picks, id)
	}
	return picks, nil
}

func replay(ctx context.Context, cmd *cli.Command) error {
	picks, err := parsePicks(cmd.String("picks"))
	if err != nil {
		return err
	}

	gs, err := servicesFor(cmd)
	if err != nil {
		return err
	}

	info, err := gs.CreateSession(ctx, cmd.String("level"), cmd.Uint64("seed"))
	if err != nil {
		return err
	}

	state := info.GameState
	for _, id := range picks {
		res, err := gs.Select(ctx, info.ID, id)
		if err != nil {
			return err
		}
		log.Println(res.Message)
		state = res.GameState
	}

	return writeJSON(cmd.Root().Writer, state)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
