package game

import "github.com/ParikTV/balanza-server/internal/model"

// NextTurn scans the roster starting just after the current turn order,
// wrapping circularly, and returns the first connected, eligible player.
// One full pass includes the current player as the last candidate; if the
// pass finds no one, the second return is false and the session has nobody
// left who can act. Roster must be sorted by turn order.
func NextTurn(roster []*model.Player, currentTurnOrder int) (*model.Player, bool) {
	n := len(roster)
	if n == 0 {
		return nil, false
	}

	start := 0
	for i, p := range roster {
		if p.TurnOrder == currentTurnOrder {
			start = i
			break
		}
	}

	for step := 1; step <= n; step++ {
		candidate := roster[(start+step)%n]
		if candidate.Connected && candidate.Eligible {
			return candidate, true
		}
	}
	return nil, false
}
