package model

// PlacedToken is a token as everyone may see it on a pan: color and instance
// id only. The weight stays hidden; a token's color already discloses that
// both copies of the color weigh the same, and nothing more.
type PlacedToken struct {
	InstanceID string `json:"instanceId"`
	Color      Color  `json:"color"`
}

// Tilt describes which way a pan leans.
type Tilt string

const (
	TiltLeft     Tilt = "left"
	TiltRight    Tilt = "right"
	TiltBalanced Tilt = "balanced"
)

// PanView is the public shape of a pan: placed tokens in order plus the
// visible tilt, never the raw side totals.
type PanView struct {
	Left     []PlacedToken `json:"left"`
	Right    []PlacedToken `json:"right"`
	Tilt     Tilt          `json:"tilt"`
	Balanced bool          `json:"balanced"`
}

// RosterEntry summarizes another player without exposing their inventory.
type RosterEntry struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	TurnOrder  int    `json:"turnOrder"`
	Connected  bool   `json:"connected"`
	TokenCount int    `json:"tokenCount"`
}

// SelfView is the viewing player's own slice of the session. Inventory
// weights are visible here because the viewer owns those tokens.
type SelfView struct {
	PlayerID  string  `json:"playerId"`
	Name      string  `json:"name"`
	TurnOrder int     `json:"turnOrder"`
	Inventory []Token `json:"inventory"`
	Eligible  bool    `json:"eligible"`
}

// GuessView is the last guess attempt as shown to clients.
type GuessView struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Correct    bool   `json:"correct"`
}

// PlayerView is the per-player projection of a session. It must never carry
// the secret weight table or another player's inventory.
type PlayerView struct {
	SessionID       string        `json:"sessionId"`
	Code            string        `json:"code"`
	Status          SessionStatus `json:"status"`
	Hint            Hint          `json:"hint"`
	MainPan         PanView       `json:"mainPan"`
	SecondaryPan    PanView       `json:"secondaryPan"`
	CurrentPlayerID string        `json:"currentPlayerId"`
	MyTurn          bool          `json:"myTurn"`
	Me              SelfView      `json:"me"`
	Roster          []RosterEntry `json:"roster"`
	LastGuess       *GuessView    `json:"lastGuess,omitempty"`
}

// FinalView extends PlayerView for the session-over broadcast, where the
// full weight table is finally revealed.
type FinalView struct {
	PlayerView
	Weights    WeightTable `json:"weights"`
	WinnerID   string      `json:"winnerId,omitempty"`
	WinnerName string      `json:"winnerName,omitempty"`
}
