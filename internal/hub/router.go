package hub

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router fans events out to live connections. Delivery order is FIFO per
// connection; there is no ordering guarantee across users or across a
// user's devices. A connection that refuses a delivery is closed and left
// for its lifecycle adapter or the reaper to unregister, and never aborts
// delivery to the remaining sinks.
type Router struct {
	logger   *zap.Logger
	registry *Registry
}

func NewRouter(
	logger *zap.Logger,
	registry *Registry,
) *Router {
	return &Router{
		logger,
		registry,
	}
}

// SendToUser delivers the event to every live connection the user has at
// call time. A user with no connections is not an error; the event is
// simply dropped.
func (r *Router) SendToUser(userId uuid.UUID, event Event) {
	r.deliver(r.registry.ConnectionsOf(userId), event)
}

// SendToUsers repeats SendToUser per recipient. There is no atomicity
// across recipients; partial delivery on partial failure is expected.
func (r *Router) SendToUsers(userIds []uuid.UUID, event Event) {
	for _, userId := range userIds {
		r.SendToUser(userId, event)
	}
}

// Broadcast delivers the event to every registered connection.
func (r *Router) Broadcast(event Event) {
	r.deliver(r.registry.AllConnections(), event)
}

func (r *Router) deliver(connections []*Connection, event Event) {
	for _, connection := range connections {
		err := connection.Deliver(event)
		if err != nil {
			r.logger.Warn("dropping undeliverable connection",
				zap.String("connectionId", connection.Id),
				zap.String("userId", connection.UserId.String()),
				zap.String("event", string(event.Type)),
				zap.Error(err))
		}
	}
}
