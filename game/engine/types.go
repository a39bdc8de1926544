package engine

import (
	"encoding/json"
	"math"
)

// CardType is the symbol printed on a card; cards match by type
type CardType string

const (
	// Gameplay constants
	DefaultSlotCapacity = 7
	MatchSize           = 3
	PointsPerGroup      = 10

	// Placement geometry
	CardWidth    = 70.0
	CardHeight   = 95.0
	AreaWidth    = 350.0
	AreaHeight   = 300.0
	LayerOffsetX = 5.0
	LayerOffsetY = 5.0
	LayerJitter  = 0.9

	// Validation constants
	MaxCardTypes     = 32
	MaxCardsPerLevel = 600
	MinSlotCapacity  = MatchSize
)

// Rect is a card's top-left corner and extent. Rects are never mutated once
// assigned, so snapshots may share them.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Complete reports whether the rect carries usable geometry
func (r *Rect) Complete() bool {
	if r == nil {
		return false
	}
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0
}

// Card is a single tile on the board
type Card struct {
	ID     int      `json:"id"`
	Type   CardType `json:"type"`
	Layer  int      `json:"layer"`
	Bounds *Rect    `json:"bounds,omitempty"`
	Z      float64  `json:"z"`

	// Derived by Resolve; never set by hand
	CoveredBy []int `json:"covered_by"`
	Covers    []int `json:"covers"`
}

// FaceUp reports whether nothing lies on top of the card
func (c Card) FaceUp() bool {
	return len(c.CoveredBy) == 0
}

// Clickable is an alias of FaceUp kept for callers that think in input terms
func (c Card) Clickable() bool {
	return c.FaceUp()
}

// MarshalJSON adds the derived face_up field for consumers that render cards
func (c Card) MarshalJSON() ([]byte, error) {
	type plain Card
	return json.Marshal(struct {
		plain
		FaceUp bool `json:"face_up"`
	}{plain: plain(c), FaceUp: c.FaceUp()})
}

// clone copies the card with its own coverage slices
func (c Card) clone() Card {
	c.CoveredBy = cloneIDs(c.CoveredBy)
	c.Covers = cloneIDs(c.Covers)
	return c
}

func cloneIDs(ids []int) []int {
	if ids == nil {
		return nil
	}
	return append(make([]int, 0, len(ids)), ids...)
}

// detached returns the card with no coverage edges, as held in the slot
func (c Card) detached() Card {
	c.CoveredBy = []int{}
	c.Covers = []int{}
	return c
}

// LayerSpec says how many cards go into one stacking tier
type LayerSpec struct {
	Layer int `json:"layer" yaml:"layer" jsonschema:"minimum=0"`
	Count int `json:"count" yaml:"count" jsonschema:"minimum=0"`
}

// Level describes the parameters the deck builder is called with
type Level struct {
	ID           string      `json:"id" yaml:"id" jsonschema:"required"`
	Name         string      `json:"name" yaml:"name" jsonschema:"required"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
	CardTypes    []CardType  `json:"card_types" yaml:"card_types" jsonschema:"required,minItems=1"`
	CardsPerType int         `json:"cards_per_type" yaml:"cards_per_type" jsonschema:"required,minimum=1"`
	Layers       []LayerSpec `json:"layers" yaml:"layers" jsonschema:"required,minItems=1"`
	SlotCapacity int         `json:"slot_capacity,omitempty" yaml:"slot_capacity,omitempty" jsonschema:"minimum=3"`
}

// TotalCards returns how many cards the level yields after truncation
func (l *Level) TotalCards() int {
	n := len(l.CardTypes) * l.CardsPerType
	return n - n%MatchSize
}

// LayerCapacity returns the number of positions the layers provide
func (l *Level) LayerCapacity() int {
	total := 0
	for _, layer := range l.Layers {
		total += layer.Count
	}
	return total
}

// GameState is one immutable snapshot of a game
type GameState struct {
	Deck            []Card `json:"deck"`
	Slot            []Card `json:"slot"`
	EliminatedCount int    `json:"eliminated_count"` // groups of three
	Score           int    `json:"score"`
	SlotCapacity    int    `json:"slot_capacity"`
	GameOver        bool   `json:"game_over"`
	Won             bool   `json:"won"`
}

// Terminal reports whether the game has ended either way
func (s *GameState) Terminal() bool {
	return s.GameOver || s.Won
}

// Capacity returns the slot capacity, falling back to the default
func (s *GameState) Capacity() int {
	if s.SlotCapacity <= 0 {
		return DefaultSlotCapacity
	}
	return s.SlotCapacity
}

// Clone returns a deep copy of the snapshot
func (s *GameState) Clone() *GameState {
	out := *s
	out.Deck = make([]Card, len(s.Deck))
	for i, c := range s.Deck {
		out.Deck[i] = c.clone()
	}
	out.Slot = make([]Card, len(s.Slot))
	for i, c := range s.Slot {
		out.Slot[i] = c.clone()
	}
	return &out
}

// RejectReason explains why a selection did not change the state
type RejectReason string

const (
	RejectNone     RejectReason = ""
	RejectTerminal RejectReason = "terminal"
	RejectNotFound RejectReason = "not_found"
	RejectCovered  RejectReason = "covered"
)

// Elimination records the triples removed for one type in a single selection
type Elimination struct {
	Type   CardType `json:"type"`
	Groups int      `json:"groups"`
	Cards  []int    `json:"cards"`
}

// Outcome describes what a selection did
type Outcome struct {
	Accepted     bool          `json:"accepted"`
	Reason       RejectReason  `json:"reason,omitempty"`
	Card         *Card         `json:"card,omitempty"`
	Eliminations []Elimination `json:"eliminations,omitempty"`
	Revealed     []int         `json:"revealed,omitempty"`
	GameOver     bool          `json:"game_over"`
	Won          bool          `json:"won"`
}

// Groups returns the number of triples removed
func (o Outcome) Groups() int {
	n := 0
	for _, e := range o.Eliminations {
		n += e.Groups
	}
	return n
}

// EliminatedCards returns the number of cards removed
func (o Outcome) EliminatedCards() int {
	n := 0
	for _, e := range o.Eliminations {
		n += len(e.Cards)
	}
	return n
}

// SelectionEntry is one line of a game's selection history
type SelectionEntry struct {
	Number    int          `json:"number"`
	CardID    int          `json:"card_id"`
	Type      CardType     `json:"type,omitempty"`
	Accepted  bool         `json:"accepted"`
	Reason    RejectReason `json:"reason,omitempty"`
	Groups    int          `json:"groups,omitempty"`
	Score     int          `json:"score"`
	Timestamp int64        `json:"timestamp"`
}
