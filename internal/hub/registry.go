package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the authoritative map from user id to that user's live
// connections. A user id is present if and only if it has at least one
// connection, so presence can be read straight off the map. Whether a
// mutation crossed the offline/online boundary is decided inside the
// locked mutation, never recomputed afterwards.
type Registry struct {
	mu sync.RWMutex

	connectionsByUser map[uuid.UUID]map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		connectionsByUser: make(map[uuid.UUID]map[string]*Connection),
	}
}

// Register appends a connection for its user. It never fails. The returned
// flag reports whether this was the user's first live connection.
func (r *Registry) Register(connection *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userConnections, ok := r.connectionsByUser[connection.UserId]
	if !ok {
		userConnections = make(map[string]*Connection)
		r.connectionsByUser[connection.UserId] = userConnections
	}

	userConnections[connection.Id] = connection

	return !ok
}

// Unregister removes the named connection if it is still registered.
// Repeated calls with the same id are no-ops, so the two lifecycle loops
// and the reaper may race to clean up without double-counting. The second
// return reports whether the user went offline because of this call.
func (r *Registry) Unregister(userId uuid.UUID, connectionId string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userConnections, ok := r.connectionsByUser[userId]
	if !ok {
		return nil, false
	}

	connection, ok := userConnections[connectionId]
	if !ok {
		return nil, false
	}

	delete(userConnections, connectionId)

	if len(userConnections) == 0 {
		delete(r.connectionsByUser, userId)

		return connection, true
	}

	return connection, false
}

// ConnectionsOf returns a snapshot of the user's live connections for
// fan-out. The snapshot is taken under a read lock; delivery happens after
// the lock is released.
func (r *Registry) ConnectionsOf(userId uuid.UUID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConnections, ok := r.connectionsByUser[userId]
	if !ok {
		return nil
	}

	connections := make([]*Connection, 0, len(userConnections))
	for _, connection := range userConnections {
		connections = append(connections, connection)
	}

	return connections
}

// AllConnections snapshots every registered connection, for the reaper's
// sweep and for broadcasts.
func (r *Registry) AllConnections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var connections []*Connection
	for _, userConnections := range r.connectionsByUser {
		for _, connection := range userConnections {
			connections = append(connections, connection)
		}
	}

	return connections
}

func (r *Registry) Count(userId uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectionsByUser[userId])
}

func (r *Registry) IsOnline(userId uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.connectionsByUser[userId]

	return ok
}

func (r *Registry) OnlineUsers() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(r.connectionsByUser))
	for userId := range r.connectionsByUser {
		users = append(users, userId)
	}

	return users
}

func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, userConnections := range r.connectionsByUser {
		total += len(userConnections)
	}

	return total
}
