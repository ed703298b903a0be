package game

import (
	"github.com/google/uuid"

	"github.com/ParikTV/balanza-server/internal/model"
)

const (
	// TokensPerColor is how many tokens of each color a player is minted.
	TokensPerColor = 2
	// MinPlacement is the smallest number of tokens a single placement may move.
	MinPlacement = 2
)

// MintInventory produces a player's starting tokens: two per color, each
// carrying the color's secret weight copied at mint time.
func MintInventory(table model.WeightTable) []model.Token {
	inv := make([]model.Token, 0, len(model.Colors)*TokensPerColor)
	for _, color := range model.Colors {
		for i := 0; i < TokensPerColor; i++ {
			inv = append(inv, model.Token{
				InstanceID: uuid.NewString(),
				Color:      color,
				Weight:     table[color],
			})
		}
	}
	return inv
}

// TakeTokens removes the identified tokens from inv, returning the remaining
// inventory and the removed tokens in request order. The removal is
// all-or-nothing: any unknown or duplicated id fails the whole call and the
// input slice is never mutated.
func TakeTokens(inv []model.Token, ids []string) (remaining, taken []model.Token, err error) {
	if len(ids) < MinPlacement {
		return nil, nil, ErrTooFewTokens
	}

	byID := make(map[string]int, len(inv))
	for i, tok := range inv {
		byID[tok.InstanceID] = i
	}

	taken = make([]model.Token, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok || seen[id] {
			return nil, nil, ErrUnknownToken
		}
		seen[id] = true
		taken = append(taken, inv[idx])
	}

	remaining = make([]model.Token, 0, len(inv)-len(ids))
	for _, tok := range inv {
		if !seen[tok.InstanceID] {
			remaining = append(remaining, tok)
		}
	}
	return remaining, taken, nil
}

// RecomputeEligibility derives the player's capacity to keep placing tokens.
// Called explicitly at every inventory or connectivity mutation site so the
// invariant is visible where it matters.
func RecomputeEligibility(p *model.Player) {
	p.Eligible = p.Connected && len(p.Inventory) >= MinPlacement
}
