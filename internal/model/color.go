package model

// Color is one of the five token colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
)

// Colors lists every token color in a fixed order.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPurple}

// AnchorColor is the color whose weight and rank are revealed at session start.
const AnchorColor = ColorGreen

const (
	AnchorWeight = 10
	MinWeight    = 1
	MaxWeight    = 20
)

// Valid reports whether c is one of the five known colors.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// WeightTable maps each color to its secret weight for one session.
// Assigned once at session creation and never mutated afterward.
type WeightTable map[Color]int

// Hint is the single public fact disclosed to all players at session start:
// the anchor color's weight and its 1-based descending rank among the five.
type Hint struct {
	Color  Color `json:"color" bson:"color"`
	Weight int   `json:"weight" bson:"weight"`
	Rank   int   `json:"rank" bson:"rank"`
}
