package ranking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultTopN is the ranking size when none is requested
	DefaultTopN = 10
	// MaxUsernameLength is the length usernames are cut to, in runes
	MaxUsernameLength = 255
)

var (
	ErrInvalidSubmission = errors.New("invalid score submission")
	ErrInvalidUsername   = fmt.Errorf("%w: username is required", ErrInvalidSubmission)
	ErrInvalidScore      = fmt.Errorf("%w: score must not be negative", ErrInvalidSubmission)
	ErrInvalidTime       = fmt.Errorf("%w: time must not be negative", ErrInvalidSubmission)
)

// Submission is a finished game offered to the board
type Submission struct {
	Username  string `json:"username"`
	Score     int    `json:"score"`
	ElapsedMs int64  `json:"time"`
}

// Entry is a recorded submission. Rank is filled in by Top.
type Entry struct {
	ID          ulid.ULID `json:"id"`
	Rank        int       `json:"rank,omitempty"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	ElapsedMs   int64     `json:"time"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Board keeps game results in memory and ranks them by score, then by
// completion time. It is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	entries []Entry
	entropy io.Reader
	now     func() time.Time
}

// Option customises a Board
type Option func(*Board)

// WithClock sets the time source used for submission timestamps
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

// WithEntropy sets the randomness behind entry ids
func WithEntropy(r io.Reader) Option {
	return func(b *Board) {
		b.entropy = r
	}
}

// NewBoard creates an empty board
func NewBoard(opts ...Option) *Board {
	b := &Board{
		entropy: rand.Reader,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	// Monotonic ids sort in submission order even within one millisecond
	b.entropy = ulid.Monotonic(b.entropy, 0)
	return b
}

// Submit validates and records a result. The username is trimmed and cut
// to MaxUsernameLength runes.
func (b *Board) Submit(sub Submission) (Entry, error) {
	username := strings.TrimSpace(sub.Username)
	if username == "" {
		return Entry{}, ErrInvalidUsername
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		username = string([]rune(username)[:MaxUsernameLength])
	}
	if sub.Score < 0 {
		return Entry{}, ErrInvalidScore
	}
	if sub.ElapsedMs < 0 {
		return Entry{}, ErrInvalidTime
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	id, err := ulid.New(ulid.Timestamp(now), b.entropy)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to generate entry id: %w", err)
	}

	entry := Entry{
		ID:          id,
		Username:    username,
		Score:       sub.Score,
		ElapsedMs:   sub.ElapsedMs,
		SubmittedAt: now,
	}
	b.entries = append(b.entries, entry)
	return entry, nil
}

// Top returns the best n entries with 1-based ranks. n <= 0 means
// DefaultTopN.
func (b *Board) Top(n int) []Entry {
	if n <= 0 {
		n = DefaultTopN
	}

	b.mu.RLock()
	sorted := make([]Entry, len(b.entries))
	copy(sorted, b.entries)
	b.mu.RUnlock()

	sort.Slice(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	for i := range sorted {
		sorted[i].Rank = i + 1
	}
	return sorted
}

// Len returns the number of recorded entries
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// less orders by score descending, time ascending, then submission order
func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ElapsedMs != b.ElapsedMs {
		return a.ElapsedMs < b.ElapsedMs
	}
	return a.ID.Compare(b.ID) < 0
}
