package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/push"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket sessions.
// Authentication happens on the STOMP CONNECT frame, not at upgrade time, so
// the upgrader itself is open.
type Handler struct {
	interceptor  *Interceptor
	router       *Router
	hub          *push.Hub
	log          *slog.Logger
	readLimit    int64
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

func NewHandler(interceptor *Interceptor, router *Router, hub *push.Hub, log *slog.Logger, readLimit int64, writeTimeout time.Duration) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if readLimit <= 0 {
		readLimit = 64 * 1024
	}
	return &Handler{
		interceptor:  interceptor,
		router:       router,
		hub:          hub,
		log:          log,
		readLimit:    readLimit,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from the frontend origin; same policy as
			// the REST surface, which is origin-open behind the gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve is the gin handler for the websocket endpoint.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(h.readLimit)

	session := NewSession(conn, h.interceptor, h.router, h.hub, h.log, h.writeTimeout)
	session.Run(c.Request.Context())
}
