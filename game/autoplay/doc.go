// Package autoplay plays tile stack games without a human.
//
// A Strategy looks at a snapshot and names the next card to select; Play
// feeds its picks to the selection processor until the game is won, lost or
// the strategy runs out of moves. The CLI uses it to simulate many seeded
// games and to measure how hard a level is.
package autoplay
