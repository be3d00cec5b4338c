package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/connections"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/game"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/matchmaking"
)

// Error messages sent to the caller
const (
	msgInvalidMessage = "Invalid message."
	msgUnknownType    = "Unknown message type."
	msgGeneric        = "An error occurred."
)

// CloseError asks the transport to close the connection with a status code
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close %d: %s", e.Code, e.Reason)
}

func policyViolation(reason string) *CloseError {
	return &CloseError{Code: websocket.ClosePolicyViolation, Reason: reason}
}

// Conn is the per-connection protocol state
type Conn struct {
	channel connections.Channel

	mu        sync.RWMutex
	principal *model.Principal
}

// NewConn wraps an outbound channel
func NewConn(ch connections.Channel) *Conn {
	return &Conn{channel: ch}
}

// Principal returns the authenticated principal, or nil
func (c *Conn) Principal() *model.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal
}

func (c *Conn) setPrincipal(p *model.Principal) {
	c.mu.Lock()
	c.principal = p
	c.mu.Unlock()
}

func (c *Conn) reply(msg any) {
	// Delivery failures surface as a closed connection in the transport
	_ = c.channel.Send(msg)
}

// Dispatcher routes decoded messages to one handler per variant
type Dispatcher struct {
	auth        *auth.Service
	connections *connections.Registry
	matchmaking *matchmaking.Service
	games       *game.Controller
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(
	authService *auth.Service,
	conns *connections.Registry,
	mm *matchmaking.Service,
	games *game.Controller,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		auth:        authService,
		connections: conns,
		matchmaking: mm,
		games:       games,
		logger:      logger.With(slog.String("component", "protocol")),
	}
}

// Handle processes one inbound frame. A returned *CloseError means the
// connection must be closed; every other outcome is handled in place.
func (d *Dispatcher) Handle(ctx context.Context, conn *Conn, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		if conn.Principal() == nil {
			return policyViolation("Authentication required")
		}
		d.logger.Debug("undecodable message", slog.String("error", err.Error()))
		if errors.Is(err, ErrUnknownMessage) {
			conn.reply(model.NewError(msgUnknownType))
		} else {
			conn.reply(model.NewError(msgInvalidMessage))
		}
		return nil
	}

	if authMsg, ok := msg.(AuthMessage); ok {
		return d.handleAuth(ctx, conn, authMsg)
	}

	principal := conn.Principal()
	if principal == nil {
		return policyViolation("Authentication required")
	}

	switch m := msg.(type) {
	case FindMatchMessage:
		err = d.handleFindMatch(ctx, principal)
	case MoveMessage:
		err = d.games.ApplyMove(ctx, principal.ID, m.SessionID, m.Move)
	case TerminateMessage:
		err = d.games.Terminate(ctx, principal.ID, m.SessionID, m.Reason)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type())
	}

	if err != nil {
		d.logger.Error("message handling failed",
			slog.String("type", msg.Type()),
			slog.String("principal_id", string(principal.ID)),
			slog.String("error", err.Error()),
		)
		// Session failures were already broadcast to both participants
		if !errors.Is(err, model.ErrSessionFailed) {
			conn.reply(model.NewError(msgGeneric))
		}
	}
	return nil
}

func (d *Dispatcher) handleAuth(ctx context.Context, conn *Conn, msg AuthMessage) error {
	if msg.Token == "" {
		return policyViolation("Token not provided")
	}
	p, err := d.auth.Authenticate(ctx, msg.Token)
	if err != nil {
		d.logger.Info("authentication failed", slog.String("error", err.Error()))
		return policyViolation("Invalid token")
	}

	if prev := conn.Principal(); prev != nil && prev.ID != p.ID {
		d.disconnect(ctx, conn, prev)
	}

	conn.setPrincipal(p)
	d.connections.Bind(p.ID, conn.channel)
	d.logger.Info("principal authenticated",
		slog.String("principal_id", string(p.ID)),
		slog.String("tier", string(p.Tier)),
	)
	conn.reply(model.NewAuthSuccess(*p))
	return nil
}

func (d *Dispatcher) handleFindMatch(ctx context.Context, p *model.Principal) error {
	if err := d.matchmaking.Enqueue(ctx, p.ID, p.Tier); err != nil {
		return err
	}
	// Failures here were already reported to the popped pair; the runner retries later
	if _, err := d.matchmaking.AttemptPair(ctx, p.Tier); err != nil {
		d.logger.Warn("pairing attempt failed",
			slog.String("tier", string(p.Tier)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Disconnect cleans up after a closed connection. A connection that was
// superseded by a newer one for the same principal leaves it untouched.
func (d *Dispatcher) Disconnect(ctx context.Context, conn *Conn) {
	if p := conn.Principal(); p != nil {
		d.disconnect(ctx, conn, p)
	}
}

func (d *Dispatcher) disconnect(ctx context.Context, conn *Conn, p *model.Principal) {
	if !d.connections.UnbindIf(p.ID, conn.channel) {
		return
	}
	if err := d.matchmaking.Remove(context.WithoutCancel(ctx), p.ID); err != nil {
		d.logger.Warn("failed to remove principal from queues",
			slog.String("principal_id", string(p.ID)),
			slog.String("error", err.Error()),
		)
	}
	d.logger.Info("principal disconnected", slog.String("principal_id", string(p.ID)))
}
