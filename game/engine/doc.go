// Package engine provides the core game logic for the Tile Stack Game.
//
// The engine package implements the game mechanics including:
//   - Dealing a shuffled, layered deck with geometric placement
//   - Coverage detection between overlapping cards
//   - Moving face-up cards into the slot and removing triples
//   - Win and loss detection
//   - Level validation
//
// Core Types:
//
// GameState is an immutable snapshot of a game. Build creates the first
// snapshot, Select turns a snapshot plus a card id into the next one, and
// Resolve derives which cards lie on top of which. A card is face up, and
// therefore selectable, exactly when nothing covers it.
//
// The Engine interface wraps those functions for a single running game,
// implemented by GameEngine, which also keeps a selection history.
//
// Usage:
//
//	state, err := engine.Build(
//		[]engine.CardType{"sheep", "grass", "wolf"}, 3,
//		[]engine.LayerSpec{{Layer: 0, Count: 9}},
//		engine.WithSeed(42),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	next := engine.Select(state, state.Deck[0].ID)
//
// Game Rules:
//
// The slot holds seven cards. Whenever three cards of one type sit in the
// slot they are removed and the score grows by ten. The game is lost when a
// selection leaves the slot full, and won when deck and slot are both empty.
// Rejected selections (covered card, unknown id, finished game) return the
// input snapshot unchanged.
package engine
