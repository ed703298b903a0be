package game

import (
	"testing"

	"github.com/ParikTV/balanza-server/internal/model"
)

var testTable = model.WeightTable{
	model.ColorRed:    5,
	model.ColorBlue:   14,
	model.ColorGreen:  10,
	model.ColorYellow: 2,
	model.ColorPurple: 19,
}

func TestMintInventory(t *testing.T) {
	inv := MintInventory(testTable)
	if len(inv) != len(model.Colors)*TokensPerColor {
		t.Fatalf("expected %d tokens, got %d", len(model.Colors)*TokensPerColor, len(inv))
	}

	perColor := make(map[model.Color]int)
	ids := make(map[string]bool)
	for _, tok := range inv {
		perColor[tok.Color]++
		if tok.Weight != testTable[tok.Color] {
			t.Fatalf("token %s should carry weight %d, got %d", tok.Color, testTable[tok.Color], tok.Weight)
		}
		if ids[tok.InstanceID] {
			t.Fatalf("duplicate instance id %s", tok.InstanceID)
		}
		ids[tok.InstanceID] = true
	}
	for _, color := range model.Colors {
		if perColor[color] != TokensPerColor {
			t.Fatalf("expected %d %s tokens, got %d", TokensPerColor, color, perColor[color])
		}
	}
}

func TestTakeTokens(t *testing.T) {
	inv := MintInventory(testTable)
	ids := []string{inv[3].InstanceID, inv[0].InstanceID}

	remaining, taken, err := TakeTokens(inv, ids)
	if err != nil {
		t.Fatalf("take should succeed: %v", err)
	}
	if len(remaining) != len(inv)-2 {
		t.Fatalf("expected %d remaining, got %d", len(inv)-2, len(remaining))
	}
	// Taken tokens come back in request order.
	if taken[0].InstanceID != ids[0] || taken[1].InstanceID != ids[1] {
		t.Fatal("taken tokens should preserve request order")
	}
	for _, tok := range remaining {
		if tok.InstanceID == ids[0] || tok.InstanceID == ids[1] {
			t.Fatal("taken token still present in remaining inventory")
		}
	}
}

func TestTakeTokensTooFew(t *testing.T) {
	inv := MintInventory(testTable)
	if _, _, err := TakeTokens(inv, []string{inv[0].InstanceID}); err != ErrTooFewTokens {
		t.Fatalf("expected ErrTooFewTokens, got %v", err)
	}
	if len(inv) != len(model.Colors)*TokensPerColor {
		t.Fatal("rejected take must not mutate the inventory")
	}
}

func TestTakeTokensPartialMatchAtomic(t *testing.T) {
	inv := MintInventory(testTable)
	before := len(inv)

	_, _, err := TakeTokens(inv, []string{inv[0].InstanceID, "not-a-token"})
	if err != ErrUnknownToken {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if len(inv) != before {
		t.Fatal("partial match must fail without mutating the inventory")
	}
}

func TestTakeTokensDuplicateID(t *testing.T) {
	inv := MintInventory(testTable)
	id := inv[0].InstanceID
	if _, _, err := TakeTokens(inv, []string{id, id}); err != ErrUnknownToken {
		t.Fatalf("a duplicated id names a token that is no longer there, expected ErrUnknownToken, got %v", err)
	}
}

func TestRecomputeEligibility(t *testing.T) {
	p := &model.Player{Connected: true, Inventory: MintInventory(testTable)}

	RecomputeEligibility(p)
	if !p.Eligible {
		t.Fatal("connected player with a full inventory should be eligible")
	}

	p.Connected = false
	RecomputeEligibility(p)
	if p.Eligible {
		t.Fatal("disconnected player should not be eligible")
	}

	p.Connected = true
	p.Inventory = p.Inventory[:1]
	RecomputeEligibility(p)
	if p.Eligible {
		t.Fatal("player holding fewer than two tokens should not be eligible")
	}
}
