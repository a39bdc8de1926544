package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() (*GameState, error)
	IsGameOver() bool
	IsVictory() bool
	GetScore() int

	// Selection
	Select(cardID int) Outcome
	ClickableCards() []Card

	// Configuration
	GetLevel() *Level

	// History
	GetHistory() []SelectionEntry
	GetLastSelection() *SelectionEntry
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements Engine on top of the pure Build/Select functions.
// It is not safe for concurrent use; callers serialize access per game.
type GameEngine struct {
	state  *GameState
	level  *Level
	rng    *rand.Rand
	logger Logger

	// History is cumulative across resets; current only covers the running deal
	history []SelectionEntry
	current []SelectionEntry
}

// EngineOption customises NewEngine
type EngineOption func(*GameEngine)

// WithEngineSeed makes every deal of the engine reproducible
func WithEngineSeed(seed uint64) EngineOption {
	return func(e *GameEngine) {
		e.rng = NewRand(seed)
	}
}

// WithEngineLogger sets the logger passed to the deck builder
func WithEngineLogger(logger Logger) EngineOption {
	return func(e *GameEngine) {
		e.logger = logger
	}
}

// NewEngine validates the level and deals the first game
func NewEngine(level *Level, opts ...EngineOption) (*GameEngine, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	e := &GameEngine{level: level}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewRand(uint64(time.Now().UnixNano()))
	}

	state, err := e.deal()
	if err != nil {
		return nil, err
	}
	e.state = state
	return e, nil
}

func (e *GameEngine) deal() (*GameState, error) {
	opts := []BuildOption{WithRand(e.rng)}
	if e.logger != nil {
		opts = append(opts, WithLogger(e.logger))
	}
	return BuildLevel(e.level, opts...)
}

// GetState returns the current snapshot
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the current snapshot
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	e.state = state
	return nil
}

// Reset deals a fresh shuffle of the same level
func (e *GameEngine) Reset() (*GameState, error) {
	state, err := e.deal()
	if err != nil {
		return nil, err
	}
	e.state = state
	e.current = nil
	return e.state, nil
}

// IsGameOver returns whether the slot filled up
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// IsVictory returns whether the board was cleared
func (e *GameEngine) IsVictory() bool {
	return e.state.Won
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// Select applies a selection to the current snapshot and records it
func (e *GameEngine) Select(cardID int) Outcome {
	var cardType CardType
	if c, ok := FindCard(e.state.Deck, cardID); ok {
		cardType = c.Type
	}

	next, outcome := Apply(e.state, cardID)
	e.state = next

	entry := SelectionEntry{
		Number:    len(e.history) + 1,
		CardID:    cardID,
		Type:      cardType,
		Accepted:  outcome.Accepted,
		Reason:    outcome.Reason,
		Groups:    outcome.Groups(),
		Score:     next.Score,
		Timestamp: time.Now().Unix(),
	}
	e.history = append(e.history, entry)
	e.current = append(e.current, entry)

	return outcome
}

// ClickableCards returns the face-up cards of the current deck
func (e *GameEngine) ClickableCards() []Card {
	var out []Card
	for _, c := range e.state.Deck {
		if c.Clickable() {
			out = append(out, c)
		}
	}
	return out
}

// GetLevel returns the level being played
func (e *GameEngine) GetLevel() *Level {
	return e.level
}

// GetHistory returns every selection made on this engine
func (e *GameEngine) GetHistory() []SelectionEntry {
	return e.history
}

// GetCurrentSelections returns the selections since the last reset
func (e *GameEngine) GetCurrentSelections() []SelectionEntry {
	return e.current
}

// GetLastSelection returns the last selection made, or nil if none
func (e *GameEngine) GetLastSelection() *SelectionEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}
