package model

// PanID names one of the two balances.
type PanID string

const (
	PanMain      PanID = "main"
	PanSecondary PanID = "secondary"
)

// Valid reports whether id names a known pan.
func (id PanID) Valid() bool {
	return id == PanMain || id == PanSecondary
}

// PanSide names one side of a balance.
type PanSide string

const (
	SideLeft  PanSide = "left"
	SideRight PanSide = "right"
)

// Valid reports whether s names a known side.
func (s PanSide) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Pan is a two-sided balance. The token sequences preserve placement order
// for display; the running totals are what the tilt is computed from.
type Pan struct {
	Left        []Token `json:"left" bson:"left"`
	Right       []Token `json:"right" bson:"right"`
	LeftWeight  int     `json:"leftWeight" bson:"leftWeight"`
	RightWeight int     `json:"rightWeight" bson:"rightWeight"`
}

// Placement is one token drop requested by a player.
type Placement struct {
	InstanceID string  `json:"instanceId"`
	Pan        PanID   `json:"pan"`
	Side       PanSide `json:"side"`
}
