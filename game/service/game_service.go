package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/tile-stack-game/game/engine"
	"github.com/wricardo/tile-stack-game/game/ranking"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string, seed uint64) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Select(ctx context.Context, sessionID string, cardID int) (*SelectResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetSelectionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.Level, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.Level) error

	// Ranking
	SubmitScore(ctx context.Context, sessionID, username string) (*ranking.Entry, error)
	Ranking(ctx context.Context, n int) ([]ranking.Entry, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *engine.Level, seed uint64) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, level *engine.Level, seed uint64) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(id string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.Level
	SaveLevel(id string, level *engine.Level) error
}

// ScoreBoard records finished games
type ScoreBoard interface {
	Submit(sub ranking.Submission) (ranking.Entry, error)
	Top(n int) []ranking.Entry
}

// Session represents an active game session. Everything below the mutex
// is guarded by it; hold the lock while touching the engine.
type Session struct {
	ID      string
	LevelID string
	Seed    uint64
	Level   *engine.Level

	CreatedAt time.Time

	mu             sync.Mutex
	Engine         *engine.GameEngine
	LastAccessedAt time.Time
	StartedAt      time.Time
	FinishedAt     time.Time // zero while the game runs
	Submitted      bool
}

// Lock serializes operations on the session
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Elapsed returns the play time of a finished game
func (s *Session) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() || s.FinishedAt.Before(s.StartedAt) {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
