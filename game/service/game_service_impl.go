package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wricardo/tile-stack-game/game/engine"
	"github.com/wricardo/tile-stack-game/game/ranking"
)

var (
	ErrLevelNotFound    = errors.New("level not found")
	ErrGameNotFinished  = errors.New("game is not finished")
	ErrAlreadySubmitted = errors.New("score already submitted for this game")
)

// gameServiceImpl implements the GameService interface. There is no
// service-wide lock; each operation holds the lock of the session it works on.
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	board    ScoreBoard
	now      func() time.Time
}

// Option customises the game service
type Option func(*gameServiceImpl)

// WithClock sets the time source used for events and play time
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		s.now = now
	}
}

// NewGameService creates a new game service instance. A nil board gets an
// in-memory ranking board.
func NewGameService(sessions SessionManager, levels LevelManager, board ScoreBoard, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		board:    board,
		now:      time.Now,
	}
	if s.board == nil {
		s.board = ranking.NewBoard()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession deals a new game of the given level. An empty levelID uses
// the default level; seed 0 picks a random deal.
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string, seed uint64) (*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var level *engine.Level
	if levelID != "" {
		var err error
		level, err = s.levels.LoadLevel(levelID)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				// Provide helpful error message with available options
				available, listErr := s.levels.ListLevels()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, l := range available {
						ids = append(ids, l.ID)
					}
					return nil, fmt.Errorf("level '%s' not found, available levels: %v: %w", levelID, ids, err)
				}
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	} else {
		level = s.levels.GetDefault()
	}

	sess, err := s.sessions.Create("", level, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()
	sess.StartedAt = s.now()
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return s.info(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.info(sess))
		sess.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// Select applies one card selection. A rejected selection is not an error:
// the result reports Success false and the unchanged state.
func (s *gameServiceImpl) Select(ctx context.Context, sessionID string, cardID int) (*SelectResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	var cardType engine.CardType
	if c, ok := engine.FindCard(sess.Engine.GetState().Deck, cardID); ok {
		cardType = c.Type
	}

	outcome := sess.Engine.Select(cardID)
	state := sess.Engine.GetState()
	now := s.now()

	if outcome.Accepted && state.Terminal() && sess.FinishedAt.IsZero() {
		sess.FinishedAt = now
	}

	return &SelectResult{
		Success:   outcome.Accepted,
		GameState: state,
		Outcome:   outcome,
		Message:   selectMessage(cardID, cardType, outcome, state),
		Events:    s.extractSelectEvents(cardID, cardType, outcome, state, now),
	}, nil
}

// Reset deals a fresh game on the session's level and restarts the clock
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	state, err := sess.Engine.Reset()
	if err != nil {
		return nil, fmt.Errorf("failed to reset game: %w", err)
	}
	sess.StartedAt = s.now()
	sess.FinishedAt = time.Time{}
	sess.Submitted = false
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.GetState(), nil
}

// GetSelectionHistory returns paginated selection history
func (s *gameServiceImpl) GetSelectionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	sess.Lock()
	history := append([]engine.SelectionEntry(nil), sess.Engine.GetHistory()...)
	sess.Unlock()

	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	selections := []engine.SelectionEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			selections = append(selections, history[i])
		}
	} else if start < total {
		selections = append(selections, history[start:end]...)
	}

	return &HistoryResponse{
		Selections:      selections,
		TotalSelections: total,
		Page:            opts.Page,
		PageSize:        opts.Limit,
		TotalPages:      totalPages,
		HasNext:         opts.Page < totalPages,
		HasPrevious:     opts.Page > 1,
	}, nil
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel saves a level to the level directory
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.Level) error {
	return s.levels.SaveLevel(levelID, level)
}

// SubmitScore records the finished game of a session on the ranking board.
// Won and lost games both count; each game can be submitted once.
func (s *gameServiceImpl) SubmitScore(ctx context.Context, sessionID, username string) (*ranking.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	state := sess.Engine.GetState()
	if !state.Terminal() {
		return nil, ErrGameNotFinished
	}
	if sess.Submitted {
		return nil, ErrAlreadySubmitted
	}

	entry, err := s.board.Submit(ranking.Submission{
		Username:  username,
		Score:     state.Score,
		ElapsedMs: sess.Elapsed().Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	sess.Submitted = true
	return &entry, nil
}

// Ranking returns the best n results, DefaultTopN when n <= 0
func (s *gameServiceImpl) Ranking(ctx context.Context, n int) ([]ranking.Entry, error) {
	return s.board.Top(n), nil
}

// touch looks a session up and marks it accessed. It must be called before
// the session lock is taken.
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	return sess, nil
}

// info snapshots a session; the caller holds the session lock
func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		Seed:           sess.Seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		StartedAt:      sess.StartedAt,
		Submitted:      sess.Submitted,
		GameState:      sess.Engine.GetState(),
		Level:          sess.Level,
	}
	if !sess.FinishedAt.IsZero() {
		finished := sess.FinishedAt
		info.FinishedAt = &finished
	}
	return info
}

// extractSelectEvents generates events from a selection
func (s *gameServiceImpl) extractSelectEvents(cardID int, cardType engine.CardType, outcome engine.Outcome, state *engine.GameState, now time.Time) []GameEvent {
	if !outcome.Accepted {
		return []GameEvent{{
			Type:      EventRejected,
			Message:   fmt.Sprintf("Card %d cannot be selected: %s", cardID, outcome.Reason),
			Timestamp: now,
			Cards:     []int{cardID},
		}}
	}

	events := []GameEvent{{
		Type:      EventSelect,
		Message:   fmt.Sprintf("Moved %s card %d to the slot", cardType, cardID),
		Timestamp: now,
		CardType:  cardType,
		Cards:     []int{cardID},
	}}

	for _, e := range outcome.Eliminations {
		events = append(events, GameEvent{
			Type:      EventEliminate,
			Message:   fmt.Sprintf("Matched %d %s group(s)! Score: %d", e.Groups, e.Type, state.Score),
			Timestamp: now,
			CardType:  e.Type,
			Cards:     e.Cards,
		})
	}

	if len(outcome.Revealed) > 0 {
		events = append(events, GameEvent{
			Type:      EventReveal,
			Message:   fmt.Sprintf("%d card(s) turned face up", len(outcome.Revealed)),
			Timestamp: now,
			Cards:     outcome.Revealed,
		})
	}

	if state.GameOver {
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   fmt.Sprintf("The slot is full. Final score: %d", state.Score),
			Timestamp: now,
		})
	} else if state.Won {
		events = append(events, GameEvent{
			Type:      EventVictory,
			Message:   fmt.Sprintf("Board cleared! Final score: %d", state.Score),
			Timestamp: now,
		})
	}

	return events
}

func selectMessage(cardID int, cardType engine.CardType, outcome engine.Outcome, state *engine.GameState) string {
	switch {
	case outcome.Reason == engine.RejectTerminal:
		return "The game is over; reset to play again"
	case outcome.Reason == engine.RejectNotFound:
		return fmt.Sprintf("Card %d is not on the board", cardID)
	case outcome.Reason == engine.RejectCovered:
		return fmt.Sprintf("Card %d is covered", cardID)
	case state.GameOver:
		return fmt.Sprintf("The slot is full. Final score: %d", state.Score)
	case state.Won:
		return fmt.Sprintf("Board cleared! Final score: %d", state.Score)
	case outcome.Groups() > 0:
		return fmt.Sprintf("Matched %s! Score: %d", cardType, state.Score)
	default:
		return fmt.Sprintf("Slot %d/%d", len(state.Slot), state.Capacity())
	}
}
