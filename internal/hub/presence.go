package hub

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Presence composes registry mutations with the presence transitions they
// cause. Whether a register or unregister crossed the offline/online
// boundary is decided by the registry inside its own lock, so exactly one
// caller observes each transition no matter how many race; the resulting
// user_online/user_offline event is broadcast after the lock is released.
type Presence struct {
	logger   *zap.Logger
	registry *Registry
	router   *Router
}

func NewPresence(
	logger *zap.Logger,
	registry *Registry,
	router *Router,
) *Presence {
	return &Presence{
		logger,
		registry,
		router,
	}
}

// Connect registers the connection and announces the user coming online if
// this was their first live connection.
func (p *Presence) Connect(connection *Connection) {
	first := p.registry.Register(connection)

	p.logger.Info("connection registered",
		zap.String("connectionId", connection.Id),
		zap.String("userId", connection.UserId.String()))

	if first {
		p.router.Broadcast(NewUserOnline(connection.UserId))
	}
}

// Disconnect removes the connection, closes its sink, and announces the
// user going offline if this was their last live connection. Removal and
// closing happen together so the registry never holds a dangling sink.
// Calling Disconnect for a connection already removed is a no-op.
func (p *Presence) Disconnect(userId uuid.UUID, connectionId string) {
	connection, last := p.registry.Unregister(userId, connectionId)
	if connection == nil {
		return
	}

	connection.Close()

	p.logger.Info("connection unregistered",
		zap.String("connectionId", connectionId),
		zap.String("userId", userId.String()))

	if last {
		p.router.Broadcast(NewUserOffline(userId))
	}
}

func (p *Presence) IsOnline(userId uuid.UUID) bool {
	return p.registry.IsOnline(userId)
}

func (p *Presence) Count(userId uuid.UUID) int {
	return p.registry.Count(userId)
}

func (p *Presence) OnlineUsers() []uuid.UUID {
	return p.registry.OnlineUsers()
}
