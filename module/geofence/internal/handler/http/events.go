package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/publisher"
)

const writeTimeout = 5 * time.Second

type listenerRegistry interface {
	SetListener(l publisher.EventListener) publisher.EventListener
	Detach(l publisher.EventListener) bool
}

// EventsHandler makes each WebSocket client the listener channel for as
// long as it stays connected. A newer connection takes over.
type EventsHandler struct {
	registry listenerRegistry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler accepts browser connections only from allowedOrigins.
// With none configured the upgrader's same-origin check applies; "*"
// accepts any origin.
func NewEventsHandler(registry listenerRegistry, allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		registry: registry,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin(allowedOrigins)},
		logger:   logger,
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

func (h *EventsHandler) Register(r *gin.RouterGroup) {
	r.GET("/events", h.Stream)
}

func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	l := &wsListener{conn: conn}
	if prev := h.registry.SetListener(l); prev != nil {
		h.logger.Info("event listener replaced", "remote", conn.RemoteAddr().String())
	} else {
		h.logger.Info("event listener attached", "remote", conn.RemoteAddr().String())
	}

	defer func() {
		if h.registry.Detach(l) {
			h.logger.Info("event listener detached", "remote", conn.RemoteAddr().String())
		}
		_ = conn.Close()
	}()

	// The client never sends anything meaningful; reading keeps control
	// frames flowing and tells us when it goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type wsListener struct {
	conn *websocket.Conn
}

func (l *wsListener) Deliver(_ context.Context, msg domain.ListenerMessage) error {
	if err := l.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return l.conn.WriteJSON(msg)
}
