package engine

// FindCard looks a card up by id
func FindCard(cards []Card, id int) (Card, bool) {
	if i := indexOf(cards, id); i >= 0 {
		return cards[i], true
	}
	return Card{}, false
}

// CountByType counts cards per type
func CountByType(cards []Card) map[CardType]int {
	counts := make(map[CardType]int)
	for _, c := range cards {
		counts[c.Type]++
	}
	return counts
}

// RemainingCards returns how many cards are still in play
func RemainingCards(state *GameState) int {
	return len(state.Deck) + len(state.Slot)
}

// SlotFree returns how many more cards fit before the slot is full
func SlotFree(state *GameState) int {
	free := state.Capacity() - len(state.Slot)
	if free < 0 {
		return 0
	}
	return free
}

// CoverageDepth returns the length of the longest chain of cards stacked on
// top of the given card, 0 for a face-up card
func CoverageDepth(deck []Card, id int) int {
	memo := make(map[int]int)
	var depth func(int) int
	depth = func(id int) int {
		if d, ok := memo[id]; ok {
			return d
		}
		c, ok := FindCard(deck, id)
		if !ok {
			return 0
		}
		best := 0
		for _, above := range c.CoveredBy {
			if d := depth(above) + 1; d > best {
				best = d
			}
		}
		memo[id] = best
		return best
	}
	return depth(id)
}
