package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ParikTV/balanza-server/internal/game"
	"github.com/ParikTV/balanza-server/internal/model"
	"github.com/ParikTV/balanza-server/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin allow-list is handled by the deployment proxy
	},
}

// Handler upgrades player connections and feeds their in-game actions into
// the session service.
type Handler struct {
	hub        *Hub
	authSvc    *service.AuthService
	sessionSvc *service.SessionService
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, sessionSvc *service.SessionService, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		authSvc:    authSvc,
		sessionSvc: sessionSvc,
		logger:     logger,
	}
}

// SessionWS handles GET /v1/ws/sessions/{code}
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidatePlayerToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.Code != code {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &Connection{
		Code:     code,
		PlayerID: claims.PlayerID,
		Send:     make(chan []byte, 256),
	}

	h.hub.Register(conn)

	// Mark the player attached and replay state to them.
	if err := h.sessionSvc.Connect(claims.SessionID, claims.PlayerID); err != nil {
		h.logger.Warn().Err(err).Str("player", claims.PlayerID).Msg("connect rejected")
		h.hub.Unregister(conn)
		wsConn.Close()
		return
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, claims)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, claims *model.PlayerClaims) {
	defer func() {
		wasLive := h.hub.Unregister(conn)
		wsConn.Close()
		// A reconnect replaces the registered connection before this socket
		// dies; only the live attachment's teardown detaches the player.
		if wasLive {
			h.sessionSvc.Disconnect(claims.SessionID, claims.PlayerID)
		}
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug().Err(err).Str("player", claims.PlayerID).Msg("websocket closed")
			}
			break
		}
		h.dispatch(claims, data)
	}
}

// dispatch decodes one inbound action envelope and applies it. Rejections go
// straight back to the acting player; they are never broadcast.
func (h *Handler) dispatch(claims *model.PlayerClaims, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reject(claims, "MALFORMED_MESSAGE", "malformed message envelope")
		return
	}

	ctx := context.Background()

	switch msg.Type {
	case MsgPlaceTokens:
		var req struct {
			Placements []model.Placement `json:"placements"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.reject(claims, game.ErrInvalidPlacement.Code, "malformed placement payload")
			return
		}
		if err := h.sessionSvc.PlaceTokens(ctx, claims.SessionID, claims.PlayerID, req.Placements); err != nil {
			h.rejectErr(claims, err)
		}

	case MsgGuessWeights:
		var req struct {
			Weights map[model.Color]int `json:"weights"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.reject(claims, game.ErrInvalidGuess.Code, "malformed guess payload")
			return
		}
		if _, err := h.sessionSvc.GuessWeights(ctx, claims.SessionID, claims.PlayerID, req.Weights); err != nil {
			h.rejectErr(claims, err)
		}

	default:
		h.reject(claims, "UNKNOWN_ACTION", "unknown action type")
	}
}

func (h *Handler) rejectErr(claims *model.PlayerClaims, err error) {
	if gameErr, ok := game.AsError(err); ok {
		h.reject(claims, gameErr.Code, gameErr.Message)
		return
	}
	h.reject(claims, game.ErrInternal.Code, game.ErrInternal.Message)
}

func (h *Handler) reject(claims *model.PlayerClaims, code, message string) {
	h.hub.SendToPlayer(claims.Code, claims.PlayerID, service.MsgActionRejected, map[string]string{
		"code":    code,
		"message": message,
	})
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
