package handler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewsocial/realtime/internal/directory"
	"github.com/viewsocial/realtime/internal/hub"
	"github.com/viewsocial/realtime/internal/ierr"
	"go.uber.org/zap"
)

func newFixture(t *testing.T) (*directory.Static, *hub.Registry, *hub.Router) {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	registry := hub.NewRegistry()
	router := hub.NewRouter(logger, registry)

	return directory.NewStatic(), registry, router
}

func receivedEvents(connection *hub.Connection) []hub.Event {
	var events []hub.Event
	for {
		select {
		case event := <-connection.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestTypingHandler_FansOutToOtherParticipants(t *testing.T) {
	conversationDirectory, registry, router := newFixture(t)
	typingHandler := NewTypingHandler(conversationDirectory, router)

	typist := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	conversationId := uuid.New()
	conversationDirectory.PutConversation(conversationId, []uuid.UUID{typist, alice, bob})

	typistConn := hub.NewConnection(typist, 8)
	aliceConn := hub.NewConnection(alice, 8)
	bobConn := hub.NewConnection(bob, 8)
	registry.Register(typistConn)
	registry.Register(aliceConn)
	registry.Register(bobConn)

	err := typingHandler.Handle(context.Background(), TypingRequest{
		ConversationId: conversationId,
		UserId:         typist,
		Started:        true,
	})
	require.NoError(t, err)

	for _, connection := range []*hub.Connection{aliceConn, bobConn} {
		events := receivedEvents(connection)
		require.Len(t, events, 1)
		assert.Equal(t, hub.EventTypeTypingStarted, events[0].Type)
		assert.Equal(t, conversationId, *events[0].ConversationId)
		assert.Equal(t, typist, *events[0].UserId)
	}

	// The typist never receives their own indicator.
	assert.Empty(t, receivedEvents(typistConn))
}

func TestTypingHandler_StoppedVariant(t *testing.T) {
	conversationDirectory, registry, router := newFixture(t)
	typingHandler := NewTypingHandler(conversationDirectory, router)

	typist := uuid.New()
	alice := uuid.New()
	conversationId := uuid.New()
	conversationDirectory.PutConversation(conversationId, []uuid.UUID{typist, alice})

	aliceConn := hub.NewConnection(alice, 8)
	registry.Register(aliceConn)

	err := typingHandler.Handle(context.Background(), TypingRequest{
		ConversationId: conversationId,
		UserId:         typist,
		Started:        false,
	})
	require.NoError(t, err)

	events := receivedEvents(aliceConn)
	require.Len(t, events, 1)
	assert.Equal(t, hub.EventTypeTypingStopped, events[0].Type)
}

func TestTypingHandler_UnknownConversation(t *testing.T) {
	conversationDirectory, _, router := newFixture(t)
	typingHandler := NewTypingHandler(conversationDirectory, router)

	err := typingHandler.Handle(context.Background(), TypingRequest{
		ConversationId: uuid.New(),
		UserId:         uuid.New(),
		Started:        true,
	})

	require.Error(t, err)
	assert.Equal(t, ierr.ErrorCodeNotFound, err.(ierr.Error).Code)
}
