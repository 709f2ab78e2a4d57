package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/viewsocial/realtime/internal/directory"
	"github.com/viewsocial/realtime/internal/hub"
)

type ReadReceiptRequest struct {
	MessageId uuid.UUID
	UserId    uuid.UUID
}

type ReadReceiptHandlerInterface interface {
	Handle(ctx context.Context, req ReadReceiptRequest) error
}

// ReadReceiptHandler forwards a message_read event to the other
// participants of the conversation the message belongs to. Marking the
// message as read is the messaging domain's job, not the hub's.
type ReadReceiptHandler struct {
	conversationDirectory directory.Directory
	eventRouter           *hub.Router
}

func NewReadReceiptHandler(
	conversationDirectory directory.Directory,
	eventRouter *hub.Router,
) *ReadReceiptHandler {
	return &ReadReceiptHandler{
		conversationDirectory,
		eventRouter,
	}
}

func (h *ReadReceiptHandler) Handle(ctx context.Context, req ReadReceiptRequest) error {
	conversationId, err := h.conversationDirectory.ConversationOf(ctx, req.MessageId)
	if err != nil {
		return err
	}

	participants, err := h.conversationDirectory.Participants(ctx, conversationId)
	if err != nil {
		return err
	}

	recipients := make([]uuid.UUID, 0, len(participants))
	for _, participant := range participants {
		if participant != req.UserId {
			recipients = append(recipients, participant)
		}
	}

	h.eventRouter.SendToUsers(recipients, hub.NewMessageRead(req.MessageId, req.UserId))

	return nil
}
