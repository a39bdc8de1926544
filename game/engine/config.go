package engine

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ValidateLevel checks a level definition for playability. All problems are
// reported together; each one wraps ErrInvalidConfig.
func ValidateLevel(level *Level) error {
	if level == nil {
		return fmt.Errorf("%w: level is nil", ErrInvalidConfig)
	}

	var err error
	fail := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(level.ID) == "" {
		fail("id is required")
	}
	if strings.TrimSpace(level.Name) == "" {
		fail("name is required")
	}

	if len(level.CardTypes) == 0 {
		fail("card_types must not be empty")
	}
	if len(level.CardTypes) > MaxCardTypes {
		fail("card_types must have at most %d entries, got %d", MaxCardTypes, len(level.CardTypes))
	}
	seen := make(map[CardType]bool, len(level.CardTypes))
	for i, t := range level.CardTypes {
		if strings.TrimSpace(string(t)) == "" {
			fail("card_types[%d] is empty", i)
			continue
		}
		if seen[t] {
			fail("card type %q is listed twice", t)
		}
		seen[t] = true
	}

	if level.CardsPerType < 1 {
		fail("cards_per_type must be at least 1, got %d", level.CardsPerType)
	}
	if total := len(level.CardTypes) * level.CardsPerType; total > MaxCardsPerLevel {
		fail("level would deal %d cards, limit is %d", total, MaxCardsPerLevel)
	}

	if len(level.Layers) == 0 {
		fail("layers must not be empty")
	}
	for i, l := range level.Layers {
		if l.Count < 0 {
			fail("layers[%d].count must not be negative, got %d", i, l.Count)
		}
		if l.Layer < 0 {
			fail("layers[%d].layer must not be negative, got %d", i, l.Layer)
		}
	}

	if level.SlotCapacity != 0 && level.SlotCapacity < MinSlotCapacity {
		fail("slot_capacity must be at least %d, got %d", MinSlotCapacity, level.SlotCapacity)
	}

	return err
}
