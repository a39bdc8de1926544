package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/tile-stack-game/game/engine"
	"github.com/wricardo/tile-stack-game/game/ranking"
	"github.com/wricardo/tile-stack-game/game/service"
)

var errSessionNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	mu       sync.Mutex
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, level *engine.Level, seed uint64) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}
	if seed == 0 {
		seed = 1
	}

	eng, err := engine.NewEngine(level, engine.WithEngineSeed(seed))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		LevelID:        level.ID,
		Seed:           seed,
		Level:          level,
		Engine:         eng,
		CreatedAt:      now,
		LastAccessedAt: now,
		StartedAt:      now,
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, errSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, level *engine.Level, seed uint64) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}
	return m.Create(id, level, seed)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return errSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()
	return nil
}

// staleSessionManager finds sessions but cannot mark them accessed, as when
// a session is deleted between lookup and update
type staleSessionManager struct {
	*MockSessionManager
}

func (m *staleSessionManager) UpdateLastAccessed(id string) error {
	return errSessionNotFound
}

// MockLevelManager implements service.LevelManager for testing
type MockLevelManager struct {
	levels map[string]*engine.Level
	saved  map[string]*engine.Level
}

func NewMockLevelManager() *MockLevelManager {
	return &MockLevelManager{
		levels: map[string]*engine.Level{
			"test": {
				ID:           "test",
				Name:         "Test",
				CardTypes:    []engine.CardType{"a", "b", "c", "d"},
				CardsPerType: 6,
				Layers:       []engine.LayerSpec{{Layer: 0, Count: 12}, {Layer: 1, Count: 12}},
			},
			"triple": {
				ID:           "triple",
				Name:         "Single triple",
				CardTypes:    []engine.CardType{"a"},
				CardsPerType: 3,
				Layers:       []engine.LayerSpec{{Layer: 0, Count: 3}},
			},
			"tiny": {
				ID:           "tiny",
				Name:         "Tiny slot",
				CardTypes:    []engine.CardType{"a", "b", "c"},
				CardsPerType: 3,
				Layers:       []engine.LayerSpec{{Layer: 0, Count: 9}},
				SlotCapacity: 3,
			},
		},
		saved: make(map[string]*engine.Level),
	}
}

func (m *MockLevelManager) LoadLevel(id string) (*engine.Level, error) {
	if level, ok := m.levels[id]; ok {
		return level, nil
	}
	return nil, service.ErrLevelNotFound
}

func (m *MockLevelManager) ListLevels() ([]*service.LevelInfo, error) {
	var result []*service.LevelInfo
	for id, level := range m.levels {
		result = append(result, &service.LevelInfo{ID: id, Name: level.Name})
	}
	return result, nil
}

func (m *MockLevelManager) GetDefault() *engine.Level {
	return m.levels["test"]
}

func (m *MockLevelManager) SaveLevel(id string, level *engine.Level) error {
	if err := engine.ValidateLevel(level); err != nil {
		return err
	}
	m.saved[id] = level
	m.levels[id] = level
	return nil
}

// stepClock advances one second per call
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService() (service.GameService, *MockSessionManager, *ranking.Board) {
	sessions := NewMockSessionManager()
	board := ranking.NewBoard()
	svc := service.NewGameService(sessions, NewMockLevelManager(), board, service.WithClock(newStepClock().Now))
	return svc, sessions, board
}

// playToEnd selects the first face-up card until the game ends
func playToEnd(t *testing.T, svc service.GameService, id string) *service.SelectResult {
	t.Helper()
	ctx := context.Background()

	var last *service.SelectResult
	for i := 0; i < 200; i++ {
		state, err := svc.GetGameState(ctx, id)
		if err != nil {
			t.Fatalf("GetGameState failed: %v", err)
		}
		if state.Terminal() {
			return last
		}
		up := engine.FaceUpIDs(state.Deck)
		if len(up) == 0 {
			t.Fatal("No face-up card in a running game")
		}
		last, err = svc.Select(ctx, id, up[0])
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
	}
	t.Fatal("Game did not end")
	return nil
}

func hasEvent(events []service.GameEvent, typ string) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	tests := []struct {
		name    string
		levelID string
		wantErr bool
		want    string
	}{
		{"create with default level", "", false, "test"},
		{"create with specific level", "triple", false, "triple"},
		{"create with unknown level", "nonexistent", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.levelID, 5)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, service.ErrLevelNotFound) {
					t.Errorf("Expected ErrLevelNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), "available levels") {
					t.Errorf("Expected available levels in error, got %v", err)
				}
				return
			}
			if info.LevelID != tt.want {
				t.Errorf("Expected level %s, got %s", tt.want, info.LevelID)
			}
			if info.Seed != 5 || info.GameState == nil || info.FinishedAt != nil {
				t.Errorf("Unexpected session info %+v", info)
			}
		})
	}
}

func TestGameService_CreateSession_CancelledContext(t *testing.T) {
	svc, _, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.CreateSession(ctx, "", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := svc.Select(ctx, "test_1", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGameService_Select(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, err := svc.CreateSession(ctx, "test", 9)
	if err != nil {
		t.Fatal(err)
	}

	deck := info.GameState.Deck
	var faceUp, covered int = -1, -1
	for _, c := range deck {
		if c.FaceUp() && faceUp < 0 {
			faceUp = c.ID
		}
		if !c.FaceUp() && covered < 0 {
			covered = c.ID
		}
	}
	if faceUp < 0 || covered < 0 {
		t.Fatal("Expected both face-up and covered cards in the deal")
	}

	t.Run("covered card is rejected", func(t *testing.T) {
		result, err := svc.Select(ctx, info.ID, covered)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if result.Success || result.Outcome.Reason != engine.RejectCovered {
			t.Errorf("Expected covered rejection, got %+v", result.Outcome)
		}
		if !hasEvent(result.Events, service.EventRejected) {
			t.Error("Expected rejected event")
		}
		if len(result.GameState.Slot) != 0 {
			t.Error("Rejected selection changed the slot")
		}
	})

	t.Run("face-up card moves to the slot", func(t *testing.T) {
		result, err := svc.Select(ctx, info.ID, faceUp)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if !result.Success {
			t.Fatalf("Expected success, got %+v", result.Outcome)
		}
		if !hasEvent(result.Events, service.EventSelect) {
			t.Error("Expected select event")
		}
		if len(result.GameState.Slot) != 1 || result.GameState.Slot[0].ID != faceUp {
			t.Errorf("Unexpected slot %+v", result.GameState.Slot)
		}
		if result.Message == "" {
			t.Error("Expected a message")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if _, err := svc.Select(ctx, "missing", 0); err == nil {
			t.Error("Expected error for unknown session")
		}
	})
}

func TestGameService_VictoryAndScore(t *testing.T) {
	ctx := context.Background()
	svc, _, board := newTestService()

	info, err := svc.CreateSession(ctx, "triple", 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SubmitScore(ctx, info.ID, "ana"); !errors.Is(err, service.ErrGameNotFinished) {
		t.Errorf("Expected ErrGameNotFinished, got %v", err)
	}

	last := playToEnd(t, svc, info.ID)
	if !last.GameState.Won {
		t.Fatalf("Expected victory, got %+v", last.GameState)
	}
	for _, typ := range []string{service.EventSelect, service.EventEliminate, service.EventVictory} {
		if !hasEvent(last.Events, typ) {
			t.Errorf("Expected %s event on the final selection", typ)
		}
	}

	sess, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.FinishedAt == nil {
		t.Fatal("Expected finish time")
	}

	entry, err := svc.SubmitScore(ctx, info.ID, "  ana ")
	if err != nil {
		t.Fatalf("SubmitScore failed: %v", err)
	}
	if entry.Username != "ana" || entry.Score != 10 {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if want := sess.FinishedAt.Sub(sess.StartedAt).Milliseconds(); entry.ElapsedMs != want || want <= 0 {
		t.Errorf("Expected elapsed %dms, got %d", want, entry.ElapsedMs)
	}

	if _, err := svc.SubmitScore(ctx, info.ID, "ana"); !errors.Is(err, service.ErrAlreadySubmitted) {
		t.Errorf("Expected ErrAlreadySubmitted, got %v", err)
	}

	top, err := svc.Ranking(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Rank != 1 || board.Len() != 1 {
		t.Errorf("Unexpected ranking %+v", top)
	}
}

func TestGameService_GameOverCanBeSubmitted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, err := svc.CreateSession(ctx, "tiny", 3)
	if err != nil {
		t.Fatal(err)
	}

	var last *service.SelectResult
	for !info.GameState.Terminal() {
		// Pick a card of a type not yet in the slot to fill it without matching
		held := engine.CountByType(info.GameState.Slot)
		pick := -1
		for _, id := range engine.FaceUpIDs(info.GameState.Deck) {
			c, _ := engine.FindCard(info.GameState.Deck, id)
			if held[c.Type] == 0 {
				pick = id
				break
			}
		}
		if pick < 0 {
			t.Skip("Deal has no spread of face-up types")
		}
		last, err = svc.Select(ctx, info.ID, pick)
		if err != nil {
			t.Fatal(err)
		}
		info.GameState = last.GameState
	}

	if !last.GameState.GameOver || !hasEvent(last.Events, service.EventGameOver) {
		t.Fatalf("Expected game over, got %+v", last.GameState)
	}
	if _, err := svc.SubmitScore(ctx, info.ID, "bob"); err != nil {
		t.Errorf("Lost games can be submitted, got %v", err)
	}

	result, err := svc.Select(ctx, info.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Outcome.Reason != engine.RejectTerminal {
		t.Errorf("Expected terminal rejection, got %+v", result.Outcome)
	}
}

func TestGameService_SubmitScoreValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, _ := svc.CreateSession(ctx, "triple", 1)
	playToEnd(t, svc, info.ID)

	if _, err := svc.SubmitScore(ctx, info.ID, "   "); !errors.Is(err, ranking.ErrInvalidUsername) {
		t.Errorf("Expected ErrInvalidUsername, got %v", err)
	}
	// A rejected submission does not use up the game
	if _, err := svc.SubmitScore(ctx, info.ID, "carol"); err != nil {
		t.Errorf("Expected submission to succeed, got %v", err)
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, _ := svc.CreateSession(ctx, "triple", 1)
	playToEnd(t, svc, info.ID)
	if _, err := svc.SubmitScore(ctx, info.ID, "ana"); err != nil {
		t.Fatal(err)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.Terminal() || len(state.Deck) != 3 || state.Score != 0 {
		t.Errorf("Expected a fresh game, got %+v", state)
	}

	sess, _ := svc.GetSession(ctx, info.ID)
	if sess.FinishedAt != nil || sess.Submitted {
		t.Error("Expected reset to clear finish time and submission")
	}

	playToEnd(t, svc, info.ID)
	if _, err := svc.SubmitScore(ctx, info.ID, "ana"); err != nil {
		t.Errorf("Expected the new game to be submittable, got %v", err)
	}

	if _, err := svc.Reset(ctx, "missing"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_GetSelectionHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, _ := svc.CreateSession(ctx, "test", 2)
	for i := 0; i < 5; i++ {
		if _, err := svc.Select(ctx, info.ID, 1000+i); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantIDs   []int
		wantPages int
		hasNext   bool
	}{
		{"defaults are newest first", service.HistoryOptions{}, []int{1004, 1003, 1002, 1001, 1000}, 1, false},
		{"ascending page 1", service.HistoryOptions{Page: 1, Limit: 2, Order: "asc"}, []int{1000, 1001}, 3, true},
		{"ascending page 3", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, []int{1004}, 3, false},
		{"descending page 2", service.HistoryOptions{Page: 2, Limit: 2, Order: "desc"}, []int{1002, 1001}, 3, true},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2, Order: "asc"}, nil, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetSelectionHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetSelectionHistory failed: %v", err)
			}
			if resp.TotalSelections != 5 || resp.TotalPages != tt.wantPages || resp.HasNext != tt.hasNext {
				t.Errorf("Unexpected paging %+v", resp)
			}
			var ids []int
			for _, s := range resp.Selections {
				ids = append(ids, s.CardID)
				if s.Accepted || s.Reason != engine.RejectNotFound {
					t.Errorf("Expected not_found entry, got %+v", s)
				}
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("Expected %v, got %v", tt.wantIDs, ids)
			}
			if resp.Selections == nil {
				t.Error("Selections must not be nil")
			}
		})
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, "", uint64(i+1)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(list))
	}

	if err := svc.DeleteSession(ctx, list[0].ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, list[0].ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
	if list, _ = svc.ListSessions(ctx); len(list) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(list))
	}
}

func TestGameService_Levels(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	levels, err := svc.ListLevels(ctx)
	if err != nil || len(levels) != 3 {
		t.Fatalf("Expected 3 levels, got %d (%v)", len(levels), err)
	}

	level := &engine.Level{
		ID:           "new",
		Name:         "New",
		CardTypes:    []engine.CardType{"x", "y", "z"},
		CardsPerType: 3,
		Layers:       []engine.LayerSpec{{Layer: 0, Count: 9}},
	}
	if err := svc.SaveLevel(ctx, "new", level); err != nil {
		t.Fatalf("SaveLevel failed: %v", err)
	}
	loaded, err := svc.LoadLevel(ctx, "new")
	if err != nil || loaded.Name != "New" {
		t.Errorf("Expected saved level, got %+v (%v)", loaded, err)
	}
	if _, err := svc.CreateSession(ctx, "new", 1); err != nil {
		t.Errorf("Expected to play the saved level, got %v", err)
	}
}

func TestGameService_ConcurrentSelectsOnOneSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, err := svc.CreateSession(ctx, "test", 11)
	if err != nil {
		t.Fatal(err)
	}
	total := len(info.GameState.Deck)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				state, err := svc.GetGameState(ctx, info.ID)
				if err != nil {
					t.Errorf("GetGameState failed: %v", err)
					return
				}
				if state.Terminal() {
					return
				}
				up := engine.FaceUpIDs(state.Deck)
				if len(up) == 0 {
					return
				}
				// Several workers race for the same card; the loser is rejected
				if _, err := svc.Select(ctx, info.ID, up[0]); err != nil {
					t.Errorf("Select failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	state, _ := svc.GetGameState(ctx, info.ID)
	if got := engine.RemainingCards(state) + state.EliminatedCount*engine.MatchSize; got != total {
		t.Errorf("Card count drifted to %d, want %d", got, total)
	}

	history, _ := svc.GetSelectionHistory(ctx, info.ID, service.HistoryOptions{Limit: 100, Order: "asc"})
	accepted := 0
	for _, s := range history.Selections {
		if s.Accepted {
			accepted++
		}
	}
	moved := total - len(state.Deck)
	if accepted != moved {
		t.Errorf("Expected %d accepted selections, got %d", moved, accepted)
	}
}

func TestGameService_AccessUpdateFailure(t *testing.T) {
	ctx := context.Background()
	sessions := &staleSessionManager{NewMockSessionManager()}
	svc := service.NewGameService(sessions, NewMockLevelManager(), nil)

	info, err := svc.CreateSession(ctx, "test", 1)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := svc.Select(ctx, info.ID, 0); !errors.Is(err, errSessionNotFound) {
		t.Errorf("Expected access update error from Select, got %v", err)
	}
	if _, err := svc.GetGameState(ctx, info.ID); !errors.Is(err, errSessionNotFound) {
		t.Errorf("Expected access update error from GetGameState, got %v", err)
	}
}
