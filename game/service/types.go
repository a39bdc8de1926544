package service

import (
	"time"

	"github.com/wricardo/tile-stack-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	LevelID        string            `json:"level_id"`
	Seed           uint64            `json:"seed"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     *time.Time        `json:"finished_at,omitempty"`
	Submitted      bool              `json:"submitted"`
	GameState      *engine.GameState `json:"game_state"`
	Level          *engine.Level     `json:"level"`
}

// SelectResult contains the result of a card selection
type SelectResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Outcome   engine.Outcome    `json:"outcome"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// Event types emitted by the service
const (
	EventSelect    = "select"
	EventRejected  = "rejected"
	EventEliminate = "eliminate"
	EventReveal    = "reveal"
	EventGameOver  = "game_over"
	EventVictory   = "victory"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	CardType  engine.CardType `json:"card_type,omitempty"`
	Cards     []int           `json:"cards,omitempty"`
}

// HistoryOptions configures selection history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated selection history
type HistoryResponse struct {
	Selections      []engine.SelectionEntry `json:"selections"`
	TotalSelections int                     `json:"total_selections"`
	Page            int                     `json:"page"`
	PageSize        int                     `json:"page_size"`
	TotalPages      int                     `json:"total_pages"`
	HasNext         bool                    `json:"has_next"`
	HasPrevious     bool                    `json:"has_previous"`
}

// LevelInfo summarises a level for listings
type LevelInfo struct {
	ID           string `json:"id"` // The identifier to use for session creation
	Filename     string `json:"filename,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	CardTypes    int    `json:"card_types"`
	CardsPerType int    `json:"cards_per_type"`
	TotalCards   int    `json:"total_cards"`
	Layers       int    `json:"layers"`
	SlotCapacity int    `json:"slot_capacity"`
	BuiltIn      bool   `json:"built_in"`
}
