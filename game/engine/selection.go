package engine

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Select moves the card with the given id from the deck to the slot and
// returns the resulting snapshot. Selections that cannot be applied (the
// game is over, the id is not in the deck, or the card is covered) return
// state itself, unchanged.
func Select(state *GameState, cardID int) *GameState {
	next, _ := Apply(state, cardID)
	return next
}

// Apply is Select with a description of what happened
func Apply(state *GameState, cardID int) (*GameState, Outcome) {
	if state.Terminal() {
		return state, Outcome{Reason: RejectTerminal, GameOver: state.GameOver, Won: state.Won}
	}

	idx := indexOf(state.Deck, cardID)
	if idx < 0 {
		return state, Outcome{Reason: RejectNotFound}
	}

	picked := state.Deck[idx]
	if !picked.Clickable() {
		return state, Outcome{Reason: RejectCovered}
	}

	// Move
	remaining := make([]Card, 0, len(state.Deck)-1)
	remaining = append(remaining, state.Deck[:idx]...)
	remaining = append(remaining, state.Deck[idx+1:]...)
	deck := Resolve(remaining)

	slot := make([]Card, 0, len(state.Slot)+1)
	for _, c := range state.Slot {
		slot = append(slot, c.clone())
	}
	slot = append(slot, picked.detached())

	slot, eliminations := eliminate(slot)
	if len(eliminations) > 0 {
		deck = detach(deck, eliminations)
	}

	next := &GameState{
		Deck:            deck,
		Slot:            slot,
		EliminatedCount: state.EliminatedCount,
		Score:           state.Score,
		SlotCapacity:    state.SlotCapacity,
	}

	groups := 0
	for _, e := range eliminations {
		groups += e.Groups
	}
	next.EliminatedCount += groups
	next.Score += groups * PointsPerGroup

	if len(next.Slot) >= next.Capacity() {
		next.GameOver = true
	} else if len(next.Deck) == 0 && len(next.Slot) == 0 {
		next.Won = true
	}

	moved := picked.detached()
	return next, Outcome{
		Accepted:     true,
		Card:         &moved,
		Eliminations: eliminations,
		Revealed:     revealed(state.Deck, deck),
		GameOver:     next.GameOver,
		Won:          next.Won,
	}
}

// eliminate removes matched types from the slot. Types are scanned in order
// of first appearance; every type holding at least three cards is removed
// entirely and scores floor(n/3) groups. In regular play a type is removed
// the moment its third card arrives, so n is exactly three.
func eliminate(slot []Card) ([]Card, []Elimination) {
	byType := orderedmap.New[CardType, []int]()
	for i, c := range slot {
		positions, _ := byType.Get(c.Type)
		byType.Set(c.Type, append(positions, i))
	}

	removed := make(map[int]bool)
	var eliminations []Elimination
	for pair := byType.Oldest(); pair != nil; pair = pair.Next() {
		groups := len(pair.Value) / MatchSize
		if groups == 0 {
			continue
		}
		e := Elimination{Type: pair.Key, Groups: groups}
		for _, pos := range pair.Value {
			removed[pos] = true
			e.Cards = append(e.Cards, slot[pos].ID)
		}
		eliminations = append(eliminations, e)
	}

	if len(removed) == 0 {
		return slot, nil
	}

	kept := make([]Card, 0, len(slot)-len(removed))
	for i, c := range slot {
		if !removed[i] {
			kept = append(kept, c)
		}
	}
	return kept, eliminations
}

// detach strips eliminated card ids from the coverage lists of the cards
// still on the board
func detach(deck []Card, eliminations []Elimination) []Card {
	gone := make(map[int]bool)
	for _, e := range eliminations {
		for _, id := range e.Cards {
			gone[id] = true
		}
	}

	for i := range deck {
		deck[i].CoveredBy = without(deck[i].CoveredBy, gone)
		deck[i].Covers = without(deck[i].Covers, gone)
	}
	return deck
}

func without(ids []int, gone map[int]bool) []int {
	out := ids[:0:0]
	for _, id := range ids {
		if !gone[id] {
			out = append(out, id)
		}
	}
	if out == nil {
		out = []int{}
	}
	return out
}

// revealed lists cards that were covered in before and are face up in after
func revealed(before, after []Card) []int {
	wasCovered := make(map[int]bool, len(before))
	for _, c := range before {
		if !c.FaceUp() {
			wasCovered[c.ID] = true
		}
	}

	var ids []int
	for _, c := range after {
		if c.FaceUp() && wasCovered[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func indexOf(cards []Card, id int) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
