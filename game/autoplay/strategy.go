package autoplay

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/wricardo/tile-stack-game/game/engine"
)

// Strategy picks the next card to select. It returns false when it has
// nothing to play.
type Strategy interface {
	Name() string
	Next(state *engine.GameState) (int, bool)
}

// Greedy plays the card that looks best right now:
//  1. a card completing a triple in the slot
//  2. a card pairing up with one already in the slot
//  3. a card whose type has the most face-up copies
//
// and breaks ties by how many cards the pick uncovers, then by lowest id.
type Greedy struct{}

// Name identifies the strategy
func (Greedy) Name() string { return "greedy" }

// Next implements Strategy
func (Greedy) Next(state *engine.GameState) (int, bool) {
	if state.Terminal() {
		return 0, false
	}

	held := engine.CountByType(state.Slot)
	faceUp := make(map[engine.CardType]int)
	var candidates []engine.Card
	for _, c := range state.Deck {
		if c.FaceUp() {
			candidates = append(candidates, c)
			faceUp[c.Type]++
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}

	best, bestScore := -1, -1
	for _, c := range candidates {
		score := 0
		switch held[c.Type] {
		case engine.MatchSize - 1:
			score = 100000
		case 0:
			score = faceUp[c.Type] * 100
		default:
			score = 50000 + faceUp[c.Type]*100
		}
		score += len(c.Covers)

		if score > bestScore || (score == bestScore && c.ID < best) {
			best, bestScore = c.ID, score
		}
	}
	return best, true
}

// Random plays a uniformly random face-up card
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random strategy with its own seeded source
func NewRandom(seed uint64) *Random {
	return &Random{rng: engine.NewRand(seed)}
}

// Name identifies the strategy
func (r *Random) Name() string { return "random" }

// Next implements Strategy
func (r *Random) Next(state *engine.GameState) (int, bool) {
	if state.Terminal() {
		return 0, false
	}
	ids := engine.FaceUpIDs(state.Deck)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[r.rng.IntN(len(ids))], true
}

// Strategies lists the names accepted by New
var Strategies = []string{"greedy", "random"}

// New returns a strategy by name. seed feeds strategies that use randomness.
func New(name string, seed uint64) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "greedy":
		return Greedy{}, nil
	case "random":
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q, available: %s", name, strings.Join(Strategies, ", "))
	}
}
