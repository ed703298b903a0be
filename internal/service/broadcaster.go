package service

// Broadcaster is the outbound-event fanout the session service calls after
// each successful transition (interface here avoids an import cycle with the
// ws package). Implementations deliver to the session's live connections
// only; messages for detached players are dropped.
type Broadcaster interface {
	SendToPlayer(code, playerID string, msgType string, payload interface{})
	BroadcastToSession(code string, msgType string, payload interface{})
}

// Message types pushed to clients.
const (
	MsgSessionState       = "session_state"
	MsgSessionOver        = "session_over"
	MsgRosterUpdate       = "roster_update"
	MsgPlayerDisconnected = "player_disconnected"
	MsgActionRejected     = "action_rejected"
)
