package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/viewsocial/realtime/internal/ierr"
)

// Directory is the hub's read-side view of the messaging domain, used to
// pick recipients for typing indicators and read receipts raised over a
// live connection.
type Directory interface {
	// Participants resolves a conversation to its participant set.
	Participants(ctx context.Context, conversationId uuid.UUID) ([]uuid.UUID, error)

	// ConversationOf resolves a message to the conversation it belongs to.
	ConversationOf(ctx context.Context, messageId uuid.UUID) (uuid.UUID, error)
}

// Static is an in-memory Directory for tests and for running the hub
// without a conversation store.
type Static struct {
	mu            sync.RWMutex
	participants  map[uuid.UUID][]uuid.UUID
	conversations map[uuid.UUID]uuid.UUID
}

func NewStatic() *Static {
	return &Static{
		participants:  make(map[uuid.UUID][]uuid.UUID),
		conversations: make(map[uuid.UUID]uuid.UUID),
	}
}

func (d *Static) PutConversation(conversationId uuid.UUID, participants []uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.participants[conversationId] = participants
}

func (d *Static) PutMessage(messageId, conversationId uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.conversations[messageId] = conversationId
}

func (d *Static) Participants(ctx context.Context, conversationId uuid.UUID) ([]uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	participants, ok := d.participants[conversationId]
	if !ok {
		return nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("conversation not found"))
	}

	return participants, nil
}

func (d *Static) ConversationOf(ctx context.Context, messageId uuid.UUID) (uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conversationId, ok := d.conversations[messageId]
	if !ok {
		return uuid.Nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("message not found"))
	}

	return conversationId, nil
}
