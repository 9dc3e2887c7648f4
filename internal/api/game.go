package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"coindrop/internal/model"
	"coindrop/internal/repository"
	"coindrop/internal/service"
	"coindrop/pkg/auth"
	"coindrop/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type gameRoutes struct {
	svc      *service.Service
	sessions *service.SessionManager
	a        *auth.TelegramAuth
}

func NewGameRoutes(handler *gin.RouterGroup, svc *service.Service, sessions *service.SessionManager, a *auth.TelegramAuth) {
	r := &gameRoutes{svc: svc, sessions: sessions, a: a}
	h := handler.Group("/ws")

	h.GET("/:telegram_id", r.handleWebSocket)
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type tapPayload struct {
	Count int `json:"count"`
}

// wsConn serializes writes; snapshots and error frames come from
// different goroutines.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) send(msgType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(wsMessage{Type: msgType, Payload: data})
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, frame)
}

func (r *gameRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	userID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	// browser WebSocket clients cannot set headers, so init data may
	// arrive in the auth query parameter instead
	rawInitData := strings.TrimPrefix(c.GetHeader("Authorization"), "Telegram ")
	if rawInitData == "" {
		rawInitData = c.Query("auth")
	}
	if rawInitData == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "telegram init data is required"})
		return
	}

	user, err := r.a.Authenticate(rawInitData)
	if err != nil {
		log.Info("invalid telegram init data", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram auth data"})
		return
	}
	if user.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "telegram_id mismatch"})
		return
	}

	state, err := r.svc.GetState(c.Request.Context(), userID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	session, err := r.sessions.Open(userID, *state)
	if err != nil {
		log.Error("failed to open session", zap.Int64("telegram_id", userID), zap.Error(err))
		conn.Close()
		return
	}

	wc := &wsConn{conn: conn}
	go r.pushSnapshots(wc, session)
	go r.readLoop(wc, session, userID)
}

// pushSnapshots forwards every mirror update (1-second energy ticks and
// authoritative ledger results alike) to the client.
func (r *gameRoutes) pushSnapshots(wc *wsConn, session *service.Session) {
	for snapshot := range session.Updates() {
		if err := wc.send("state", stateFrame(snapshot)); err != nil {
			return
		}
	}
}

func (r *gameRoutes) readLoop(wc *wsConn, session *service.Session, userID int64) {
	log := logger.Logger()

	defer func() {
		wc.conn.Close()
		r.sessions.Release(userID, session)
	}()

	for {
		_, raw, err := wc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket unexpected close", zap.Int64("telegram_id", userID), zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Info("failed to unmarshal ws message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "tap":
			var payload tapPayload
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					continue
				}
			}
			if payload.Count <= 0 {
				payload.Count = 1
			}

			// speculative energy spend for instant feedback; the
			// authoritative result arrives through the subscription
			session.ApplyTapLocal(payload.Count)

			_, err := r.svc.Tap(context.Background(), userID, payload.Count)
			if err != nil {
				if errors.Is(err, repository.ErrOutOfEnergy) {
					_ = wc.send("error", gin.H{"message": "out of energy"})
					continue
				}
				log.Error("tap failed", zap.Int64("telegram_id", userID), zap.Error(err))
				_ = wc.send("error", gin.H{"message": "tap failed"})
			}

		case "state":
			if err := wc.send("state", stateFrame(session.State())); err != nil {
				return
			}
		}
	}
}

func stateFrame(state model.UserState) stateResponse {
	return toStateResponse(&state)
}
