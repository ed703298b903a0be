package model

import "time"

// Token is an individual placeable game piece. The weight is copied from the
// session's secret table at mint time and never recomputed.
type Token struct {
	InstanceID string `json:"instanceId" bson:"instanceId"`
	Color      Color  `json:"color" bson:"color"`
	Weight     int    `json:"weight" bson:"weight"`
}

// Player represents a participant in a session.
type Player struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Code      string    `json:"code" bson:"code"`
	Name      string    `json:"name" bson:"name"`
	TurnOrder int       `json:"turnOrder" bson:"turnOrder"`
	Inventory []Token   `json:"inventory" bson:"inventory"`
	Connected bool      `json:"connected" bson:"connected"`
	Eligible  bool      `json:"eligible" bson:"eligible"`
	JoinedAt  time.Time `json:"joinedAt" bson:"joinedAt"`
}

// JoinResponse is returned when a player joins a session.
type JoinResponse struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Token     string `json:"token"`
}

// CreateSessionResponse is returned when a host creates a session.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
	PlayerID  string `json:"playerId"`
	Token     string `json:"token"`
}
