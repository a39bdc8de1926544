package config

import "github.com/wricardo/tile-stack-game/game/engine"

// DefaultLevelID is used when no level is requested
const DefaultLevelID = "1"

// DefaultLevels returns the levels that ship with the game. A fresh copy is
// returned on every call.
func DefaultLevels() []*engine.Level {
	return []*engine.Level{
		{
			ID:           "1",
			Name:         "Intro",
			Description:  "Six card types, three layers of twelve",
			CardTypes:    []engine.CardType{"sheep", "grass", "wolf", "house", "tree", "flower"},
			CardsPerType: 6,
			Layers: []engine.LayerSpec{
				{Layer: 0, Count: 12},
				{Layer: 1, Count: 12},
				{Layer: 2, Count: 12},
			},
		},
		{
			ID:           "2",
			Name:         "Challenge",
			Description:  "Eight card types, three layers of twenty-four",
			CardTypes:    []engine.CardType{"sheep", "grass", "wolf", "house", "tree", "flower", "sun", "moon"},
			CardsPerType: 9,
			Layers: []engine.LayerSpec{
				{Layer: 0, Count: 24},
				{Layer: 1, Count: 24},
				{Layer: 2, Count: 24},
			},
		},
	}
}
