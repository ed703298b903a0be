package game

import "github.com/ParikTV/balanza-server/internal/model"

// balanceTolerance is the integer slack allowed between pan sides. Exact
// equality is too strict with discrete integer weights.
const balanceTolerance = 1

// AddToSide appends tokens to one side of a pan and bumps that side's
// running total. The sequence preserves placement order for display; the
// total is a plain sum, so it is order-independent.
func AddToSide(pan *model.Pan, side model.PanSide, tokens []model.Token) {
	sum := 0
	for _, tok := range tokens {
		sum += tok.Weight
	}
	switch side {
	case model.SideLeft:
		pan.Left = append(pan.Left, tokens...)
		pan.LeftWeight += sum
	case model.SideRight:
		pan.Right = append(pan.Right, tokens...)
		pan.RightWeight += sum
	}
}

// IsBalanced reports whether the pan's sides are within tolerance of each
// other. This predicate gates the guess action and the win path.
func IsBalanced(pan *model.Pan) bool {
	diff := pan.LeftWeight - pan.RightWeight
	if diff < 0 {
		diff = -diff
	}
	return diff <= balanceTolerance
}

// TiltOf reports which way the pan leans, for display.
func TiltOf(pan *model.Pan) model.Tilt {
	switch {
	case pan.LeftWeight > pan.RightWeight:
		return model.TiltLeft
	case pan.RightWeight > pan.LeftWeight:
		return model.TiltRight
	default:
		return model.TiltBalanced
	}
}
