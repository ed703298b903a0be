package ws

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client-to-server action types
const (
	MsgPlaceTokens  MessageType = "place_tokens"
	MsgGuessWeights MessageType = "guess_weights"
)

// Message is the WebSocket envelope format, both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per session. It is the explicit
// registry of live delivery channels the session service fans out through;
// it knows nothing about game rules.
type Hub struct {
	conns map[string]map[string]*Connection // session code -> player id -> conn

	register   chan *Connection
	unregister chan *unbind
	broadcast  chan *outbound

	logger zerolog.Logger
}

// Connection represents one player's WebSocket attachment.
type Connection struct {
	Code     string
	PlayerID string
	Send     chan []byte
}

type outbound struct {
	code     string
	playerID string // empty means every player in the session
	message  *Message
}

// unbind carries an unregister request plus a reply channel reporting
// whether the connection was still the player's registered one.
type unbind struct {
	conn    *Connection
	removed chan bool
}

// NewHub creates a new WebSocket hub
func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *unbind),
		broadcast:  make(chan *outbound, 256),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			if h.conns[conn.Code] == nil {
				h.conns[conn.Code] = make(map[string]*Connection)
			}
			// A reconnect replaces the stale attachment.
			if old, ok := h.conns[conn.Code][conn.PlayerID]; ok {
				close(old.Send)
			}
			h.conns[conn.Code][conn.PlayerID] = conn
			h.logger.Info().Str("code", conn.Code).Str("player", conn.PlayerID).Msg("player attached")

		case req := <-h.unregister:
			conn := req.conn
			removed := false
			if players, ok := h.conns[conn.Code]; ok {
				if existing, ok := players[conn.PlayerID]; ok && existing == conn {
					delete(players, conn.PlayerID)
					close(conn.Send)
					if len(players) == 0 {
						delete(h.conns, conn.Code)
					}
					removed = true
					h.logger.Info().Str("code", conn.Code).Str("player", conn.PlayerID).Msg("player detached")
				}
			}
			req.removed <- removed

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.message)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to marshal outbound message")
				continue
			}
			players, ok := h.conns[msg.code]
			if !ok {
				continue
			}
			if msg.playerID != "" {
				if conn, ok := players[msg.playerID]; ok {
					conn.trySend(data)
				}
				continue
			}
			for _, conn := range players {
				conn.trySend(data)
			}
		}
	}
}

// trySend drops the message if the connection's buffer is full; a slow
// client gets a resync on its next state push instead of stalling the hub.
func (c *Connection) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection. The result reports whether conn was
// still the player's registered attachment; a stale connection that a
// reconnect already replaced reports false, and its caller must not treat
// the player as detached.
func (h *Hub) Unregister(conn *Connection) bool {
	req := &unbind{conn: conn, removed: make(chan bool, 1)}
	h.unregister <- req
	return <-req.removed
}

// SendToPlayer sends a message to one player (implements service.Broadcaster)
func (h *Hub) SendToPlayer(code, playerID string, msgType string, payload interface{}) {
	h.push(code, playerID, msgType, payload)
}

// BroadcastToSession sends a message to every player in a session
// (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(code string, msgType string, payload interface{}) {
	h.push(code, "", msgType, payload)
}

func (h *Hub) push(code, playerID, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("failed to marshal payload")
		return
	}
	h.broadcast <- &outbound{
		code:     code,
		playerID: playerID,
		message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
