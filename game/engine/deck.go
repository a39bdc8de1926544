package engine

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"
)

// ErrInvalidConfig is returned when deck parameters cannot produce a game
var ErrInvalidConfig = errors.New("invalid deck configuration")

// Logger receives warnings from the deck builder. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type buildOptions struct {
	rng          *rand.Rand
	logger       Logger
	slotCapacity int
	areaWidth    float64
	areaHeight   float64
}

// BuildOption customises Build
type BuildOption func(*buildOptions)

// WithRand sets the random source used for shuffling and placement
func WithRand(rng *rand.Rand) BuildOption {
	return func(o *buildOptions) {
		o.rng = rng
	}
}

// WithSeed uses a PCG source seeded with seed
func WithSeed(seed uint64) BuildOption {
	return func(o *buildOptions) {
		o.rng = NewRand(seed)
	}
}

// WithLogger sets where capacity warnings go
func WithLogger(logger Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithSlotCapacity overrides the slot capacity of the new game
func WithSlotCapacity(capacity int) BuildOption {
	return func(o *buildOptions) {
		if capacity > 0 {
			o.slotCapacity = capacity
		}
	}
}

// WithArea overrides the placement area
func WithArea(width, height float64) BuildOption {
	return func(o *buildOptions) {
		if width >= CardWidth && height >= CardHeight {
			o.areaWidth = width
			o.areaHeight = height
		}
	}
}

// NewRand returns the PCG-backed generator used for deterministic decks
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func defaultBuildOptions() *buildOptions {
	return &buildOptions{
		logger:       log.Default(),
		slotCapacity: DefaultSlotCapacity,
		areaWidth:    AreaWidth,
		areaHeight:   AreaHeight,
	}
}

// Build creates the initial state of a game: a shuffled deck of
// len(types)*countPerType cards, truncated to a multiple of three, placed
// layer by layer and resolved for coverage.
//
// Cards that do not fit into the layers are dropped with a warning.
func Build(types []CardType, countPerType int, layers []LayerSpec, opts ...BuildOption) (*GameState, error) {
	if err := checkBuildParams(types, countPerType, layers); err != nil {
		return nil, err
	}

	o := defaultBuildOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = NewRand(uint64(time.Now().UnixNano()))
	}

	// Base cards, trimmed so that every card can be matched
	base := make([]CardType, 0, len(types)*countPerType)
	for _, t := range types {
		for i := 0; i < countPerType; i++ {
			base = append(base, t)
		}
	}
	base = base[:len(base)-len(base)%MatchSize]

	o.rng.Shuffle(len(base), func(i, j int) {
		base[i], base[j] = base[j], base[i]
	})

	deck := make([]Card, 0, len(base))
	next := 0
	for idx, ls := range layers {
		for i := 0; i < ls.Count && next < len(base); i++ {
			deck = append(deck, Card{
				ID:     next,
				Type:   base[next],
				Layer:  ls.Layer,
				Bounds: o.place(ls.Layer),
				Z:      float64(idx) + float64(i)/float64(ls.Count)*LayerJitter,
			})
			next++
		}
	}

	if next < len(base) {
		if o.logger != nil {
			o.logger.Printf("Warning: %d of %d cards were not assigned to layers due to insufficient layer capacity",
				len(base)-next, len(base))
		}
	}

	return &GameState{
		Deck:         Resolve(deck),
		Slot:         []Card{},
		SlotCapacity: o.slotCapacity,
	}, nil
}

// BuildLevel builds a game from a level definition
func BuildLevel(level *Level, opts ...BuildOption) (*GameState, error) {
	if level == nil {
		return nil, fmt.Errorf("%w: level is nil", ErrInvalidConfig)
	}
	if level.SlotCapacity > 0 {
		opts = append([]BuildOption{WithSlotCapacity(level.SlotCapacity)}, opts...)
	}
	return Build(level.CardTypes, level.CardsPerType, level.Layers, opts...)
}

// place picks a position inside the area, nudged by the layer number
func (o *buildOptions) place(layer int) *Rect {
	return &Rect{
		X:      o.rng.Float64()*(o.areaWidth-CardWidth) + float64(layer)*LayerOffsetX,
		Y:      o.rng.Float64()*(o.areaHeight-CardHeight) + float64(layer)*LayerOffsetY,
		Width:  CardWidth,
		Height: CardHeight,
	}
}

func checkBuildParams(types []CardType, countPerType int, layers []LayerSpec) error {
	if len(types) == 0 {
		return fmt.Errorf("%w: at least one card type is required", ErrInvalidConfig)
	}
	if countPerType < 1 {
		return fmt.Errorf("%w: cards per type must be at least 1, got %d", ErrInvalidConfig, countPerType)
	}
	if len(layers) == 0 {
		return fmt.Errorf("%w: at least one layer is required", ErrInvalidConfig)
	}
	for i, l := range layers {
		if l.Count < 0 {
			return fmt.Errorf("%w: layer %d has negative count %d", ErrInvalidConfig, i, l.Count)
		}
		if l.Layer < 0 {
			return fmt.Errorf("%w: layer %d has negative layer number %d", ErrInvalidConfig, i, l.Layer)
		}
	}
	return nil
}
