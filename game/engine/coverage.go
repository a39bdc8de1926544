package engine

// Overlaps reports whether the two cards' bounds intersect with positive
// area. Touching edges do not count, and cards without complete geometry
// never overlap anything.
func Overlaps(a, b Card) bool {
	if !a.Bounds.Complete() || !b.Bounds.Complete() {
		return false
	}
	ra, rb := a.Bounds, b.Bounds
	return ra.X < rb.X+rb.Width &&
		ra.X+ra.Width > rb.X &&
		ra.Y < rb.Y+rb.Height &&
		ra.Y+ra.Height > rb.Y
}

// covers reports whether a lies on top of b. Equal Z never covers.
func covers(a, b Card) bool {
	return a.Z > b.Z && Overlaps(a, b)
}

// Resolve recomputes the covers/covered-by relation for every card in the
// deck and returns a new slice. The input is left untouched and repeated
// calls produce identical results.
//
// The scan is pairwise, which is fine for decks of a few hundred cards.
func Resolve(deck []Card) []Card {
	out := make([]Card, len(deck))
	for i, c := range deck {
		c.CoveredBy = []int{}
		c.Covers = []int{}
		out[i] = c
	}

	for i := range out {
		for j := range out {
			if i == j {
				continue
			}
			if covers(out[i], out[j]) {
				out[i].Covers = append(out[i].Covers, out[j].ID)
				out[j].CoveredBy = append(out[j].CoveredBy, out[i].ID)
			}
		}
	}

	return out
}

// FaceUpIDs returns the ids of the uncovered cards in deck order
func FaceUpIDs(deck []Card) []int {
	ids := []int{}
	for _, c := range deck {
		if c.FaceUp() {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
