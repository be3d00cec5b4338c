package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/IsbatBInHossain/chess-game-server/internal/protocol"
)

// Handler upgrades HTTP requests and feeds inbound frames to the dispatcher
type Handler struct {
	dispatcher *protocol.Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a websocket Handler
func NewHandler(dispatcher *protocol.Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(conn, h.logger)
	connectedAt := time.Now()
	h.logger.Debug("websocket connected", slog.String("remote_addr", r.RemoteAddr))

	go client.writePump()
	h.readPump(r.Context(), client)

	h.logger.Debug("websocket disconnected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.Duration("connection_duration", time.Since(connectedAt)),
	)
}

// readPump handles frames strictly in arrival order until the connection
// fails or the dispatcher asks for it to be closed
func (h *Handler) readPump(ctx context.Context, client *Client) {
	pc := protocol.NewConn(client)
	code, reason := websocket.CloseNormalClosure, ""

	defer func() {
		h.dispatcher.Disconnect(ctx, pc)
		client.shutdown(code, reason)
		<-client.done
	}()

	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		var closeErr *protocol.CloseError
		if err := h.dispatcher.Handle(ctx, pc, data); errors.As(err, &closeErr) {
			code, reason = closeErr.Code, closeErr.Reason
			h.logger.Info("closing websocket",
				slog.Int("code", code),
				slog.String("reason", reason),
			)
			return
		}
	}
}
