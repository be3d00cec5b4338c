package connections

import (
	"log/slog"
	"sync"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// Channel is an outbound path to one connected client
type Channel interface {
	Send(msg any) error
}

// Registry maps principals to their current connection.
// It is process-local; other replicas keep their own.
type Registry struct {
	mu       sync.RWMutex
	channels map[model.PrincipalID]Channel
	logger   *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		channels: make(map[model.PrincipalID]Channel),
		logger:   logger.With(slog.String("component", "connections")),
	}
}

// Bind associates a channel with a principal, replacing any previous one
func (r *Registry) Bind(id model.PrincipalID, ch Channel) {
	r.mu.Lock()
	_, replaced := r.channels[id]
	r.channels[id] = ch
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("connection superseded", slog.String("principal_id", string(id)))
	}
}

// Unbind removes whatever channel is bound to the principal
func (r *Registry) Unbind(id model.PrincipalID) {
	r.mu.Lock()
	delete(r.channels, id)
	r.mu.Unlock()
}

// UnbindIf removes the binding only if ch is still the bound channel.
// It reports whether a removal happened.
func (r *Registry) UnbindIf(id model.PrincipalID, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.channels[id]; ok && current == ch {
		delete(r.channels, id)
		return true
	}
	return false
}

// Lookup returns the channel bound to the principal
func (r *Registry) Lookup(id model.PrincipalID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

// Count returns the number of bound principals
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Notify sends msg to the principal if it is connected. A missing or failing
// connection is logged and reported as false; callers never retry.
func (r *Registry) Notify(id model.PrincipalID, msg any) bool {
	ch, ok := r.Lookup(id)
	if !ok {
		r.logger.Warn("principal not connected", slog.String("principal_id", string(id)))
		return false
	}
	if err := ch.Send(msg); err != nil {
		r.logger.Warn("failed to send to principal",
			slog.String("principal_id", string(id)),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
