// Package service provides the business logic layer for the tile stack game.
//
// The service package implements:
//   - Game session creation, lookup and deletion
//   - Card selection with descriptive events
//   - Game reset and paginated selection history
//   - Level listing, loading and saving
//   - Score submission and ranking
//
// Core Interface:
//
// GameService is the main interface: CreateSession deals a level from a
// seed, Select applies one card selection, Reset deals again, SubmitScore
// records a finished game and Ranking returns the best results.
//
// The service depends on three collaborators:
//   - SessionManager stores sessions
//   - LevelManager loads level definitions
//   - ScoreBoard ranks submitted games
//
// Concurrency:
//
// There is no service-wide lock. Each Session carries its own mutex, held for
// the whole of a selection, reset or submission, so selections on one
// session are applied in order while different sessions run in parallel.
//
// Events:
//
// A SelectResult reports the new state, the engine Outcome and a list of
// GameEvents: select or rejected, then eliminate and reveal as they happen,
// and game_over or victory on the terminal selection. A rejected selection
// is not an error; Success is false and the state is unchanged.
//
// Usage:
//
//	sessions := session.NewManager()
//	levels, _ := config.NewManager("")
//	svc := service.NewGameService(sessions, levels, ranking.NewBoard())
//
//	info, err := svc.CreateSession(ctx, "1", 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.Select(ctx, info.ID, cardID)
//	if result.GameState.Terminal() {
//		entry, err := svc.SubmitScore(ctx, info.ID, "alice")
//	}
package service
