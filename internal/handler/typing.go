package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/viewsocial/realtime/internal/directory"
	"github.com/viewsocial/realtime/internal/hub"
)

type TypingRequest struct {
	ConversationId uuid.UUID
	UserId         uuid.UUID
	Started        bool
}

type TypingHandlerInterface interface {
	Handle(ctx context.Context, req TypingRequest) error
}

// TypingHandler forwards typing indicators to the other participants of a
// conversation. The originator never receives their own indicator.
type TypingHandler struct {
	conversationDirectory directory.Directory
	eventRouter           *hub.Router
}

func NewTypingHandler(
	conversationDirectory directory.Directory,
	eventRouter *hub.Router,
) *TypingHandler {
	return &TypingHandler{
		conversationDirectory,
		eventRouter,
	}
}

func (h *TypingHandler) Handle(ctx context.Context, req TypingRequest) error {
	participants, err := h.conversationDirectory.Participants(ctx, req.ConversationId)
	if err != nil {
		return err
	}

	recipients := make([]uuid.UUID, 0, len(participants))
	for _, participant := range participants {
		if participant != req.UserId {
			recipients = append(recipients, participant)
		}
	}

	event := hub.NewTypingStopped(req.ConversationId, req.UserId)
	if req.Started {
		event = hub.NewTypingStarted(req.ConversationId, req.UserId)
	}

	h.eventRouter.SendToUsers(recipients, event)

	return nil
}
