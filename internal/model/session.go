package model

import "time"

type SessionStatus string

const (
	SessionWaiting         SessionStatus = "waiting"
	SessionPlaying         SessionStatus = "playing"
	SessionFinishedSuccess SessionStatus = "finished_success"
	SessionFinishedFailure SessionStatus = "finished_failure"
)

// Terminal reports whether s is a final status. No transition leaves a
// terminal status.
func (s SessionStatus) Terminal() bool {
	return s == SessionFinishedSuccess || s == SessionFinishedFailure
}

// GuessResult records the last resolved guess attempt.
type GuessResult struct {
	PlayerID string    `json:"playerId" bson:"playerId"`
	Correct  bool      `json:"correct" bson:"correct"`
	At       time.Time `json:"at" bson:"at"`
}

// Session is one game identified by its shareable code. The secret weight
// table is excluded from JSON so it can never ride along on an API response;
// it is revealed to clients only through the final projected view.
type Session struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	Code      string        `json:"code" bson:"code"`
	HostID    string        `json:"hostId" bson:"hostId"`
	Status    SessionStatus `json:"status" bson:"status"`
	Weights   WeightTable   `json:"-" bson:"weights"`
	Hint      Hint          `json:"hint" bson:"hint"`
	PlayerIDs []string      `json:"playerIds" bson:"playerIds"`

	MainPan      Pan `json:"mainPan" bson:"mainPan"`
	SecondaryPan Pan `json:"secondaryPan" bson:"secondaryPan"`

	// TurnOrder is the turn order number of the acting player;
	// CurrentPlayerID is empty once the session has ended.
	TurnOrder       int    `json:"turnOrder" bson:"turnOrder"`
	CurrentPlayerID string `json:"currentPlayerId" bson:"currentPlayerId"`

	LastGuess *GuessResult `json:"lastGuess,omitempty" bson:"lastGuess,omitempty"`
	WinnerID  string       `json:"winnerId,omitempty" bson:"winnerId,omitempty"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}
