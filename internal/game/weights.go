package game

import (
	"math/rand"

	"github.com/ParikTV/balanza-server/internal/model"
)

// GenerateWeights produces the secret weight table for a new session. The
// anchor color is pinned to its reference weight; every other color draws
// without replacement from the remaining range. If the range were ever
// exhausted the draw falls back to reusing values, which cannot happen with
// five colors over twenty weights but keeps the generator total.
func GenerateWeights(rng *rand.Rand) model.WeightTable {
	table := model.WeightTable{model.AnchorColor: model.AnchorWeight}
	used := map[int]bool{model.AnchorWeight: true}

	for _, color := range model.Colors {
		if color == model.AnchorColor {
			continue
		}
		pool := make([]int, 0, model.MaxWeight-model.MinWeight+1)
		for w := model.MinWeight; w <= model.MaxWeight; w++ {
			if !used[w] {
				pool = append(pool, w)
			}
		}
		if len(pool) == 0 {
			for w := model.MinWeight; w <= model.MaxWeight; w++ {
				pool = append(pool, w)
			}
		}
		w := pool[rng.Intn(len(pool))]
		used[w] = true
		table[color] = w
	}
	return table
}

// HintFor computes the public hint: the anchor color's weight and its
// 1-based descending rank among all five weights (rank 1 = heaviest).
func HintFor(table model.WeightTable) model.Hint {
	anchor := table[model.AnchorColor]
	rank := 1
	for _, w := range table {
		if w > anchor {
			rank++
		}
	}
	return model.Hint{Color: model.AnchorColor, Weight: anchor, Rank: rank}
}
