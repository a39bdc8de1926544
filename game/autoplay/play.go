package autoplay

import "github.com/wricardo/tile-stack-game/game/engine"

// Result summarises one automated game
type Result struct {
	Final *engine.GameState `json:"final"`
	Picks []int             `json:"picks"`
	Steps int               `json:"steps"`
	Won   bool              `json:"won"`
	Lost  bool              `json:"lost"`
	// Stuck is set when play stopped before the game ended: the strategy
	// gave up, picked a card the engine rejected, or maxSteps ran out
	Stuck bool `json:"stuck"`
}

// Play drives the selection processor with strategy until the game ends.
// maxSteps <= 0 allows one selection per card on the board.
func Play(state *engine.GameState, strategy Strategy, maxSteps int) Result {
	if maxSteps <= 0 {
		maxSteps = len(state.Deck) + 1
	}

	res := Result{Final: state, Picks: []int{}}
	for res.Steps < maxSteps && !res.Final.Terminal() {
		id, ok := strategy.Next(res.Final)
		if !ok {
			break
		}
		next := engine.Select(res.Final, id)
		if next == res.Final {
			break
		}
		res.Final = next
		res.Picks = append(res.Picks, id)
		res.Steps++
	}

	res.Won = res.Final.Won
	res.Lost = res.Final.GameOver
	res.Stuck = !res.Final.Terminal()
	return res
}
