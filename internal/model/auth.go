package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims are JWT claims for session-scoped player tokens. The host
// carries the same claims as everyone else; host authority is decided by the
// session's hostId, not by the token shape.
type PlayerClaims struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
	PlayerID  string `json:"playerId"`
	jwt.RegisteredClaims
}
