// Package config provides level management for the tile stack game.
//
// The config package handles:
//   - Built-in levels that are always available
//   - Loading level files from a directory (JSON or YAML)
//   - Level validation before anything is cached
//   - Default level management
//   - Level discovery and listing
//
// Level Format:
//
// A level file names the card types in play, how many copies of each type
// are dealt and how the cards are spread over stacking layers:
//
//	id: garden
//	name: Garden
//	card_types: [sheep, grass, wolf]
//	cards_per_type: 6
//	slot_capacity: 7
//	layers:
//	  - {layer: 0, count: 9}
//	  - {layer: 1, count: 9}
//
// Files are looked up as <id>.json, <id>.yaml and <id>.yml, in that order.
// A file whose id matches a built-in level replaces it. Schema returns the
// JSON Schema of the format for editors and external tooling.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("2")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	levels, err := manager.ListLevels()
package config
