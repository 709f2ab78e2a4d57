package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one live transport session for a user. The send channel is
// drained exclusively by the lifecycle adapter that created the connection;
// the registry only holds a reference for fan-out.
type Connection struct {
	Id         string
	UserId     uuid.UUID
	CreateTime time.Time

	send chan Event
	done chan struct{}

	closeOnce sync.Once
}

func NewConnection(userId uuid.UUID, sendBufferSize int) *Connection {
	return &Connection{
		Id:         gonanoid.Must(),
		UserId:     userId,
		CreateTime: time.Now(),
		send:       make(chan Event, sendBufferSize),
		done:       make(chan struct{}),
	}
}

// Deliver enqueues an event for the outbound loop without blocking. A full
// buffer means the consumer stopped draining; the connection is closed and
// left for the lifecycle adapter or the reaper to unregister.
func (c *Connection) Deliver(event Event) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		c.Close()

		return errors.New("send buffer full")
	}
}

// Events is drained by the outbound loop of the owning lifecycle adapter.
func (c *Connection) Events() <-chan Event {
	return c.send
}

// Done fires when the connection is no longer usable; a blocked outbound
// write must be abandoned when it does.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Connection) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
