package server

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/viewsocial/realtime/internal/handler"
	"go.uber.org/zap"
)

// Frame is the envelope for everything a client sends over its connection.
// Anything that does not decode, or carries an unknown type, is dropped
// without closing the connection.
type Frame struct {
	Type           string     `json:"type"`
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	MessageId      *uuid.UUID `json:"message_id,omitempty"`
}

type FrameRouter struct {
	logger *zap.Logger

	typingHandler      handler.TypingHandlerInterface
	readReceiptHandler handler.ReadReceiptHandlerInterface
}

func NewFrameRouter(
	logger *zap.Logger,
	typingHandler handler.TypingHandlerInterface,
	readReceiptHandler handler.ReadReceiptHandlerInterface,
) *FrameRouter {
	return &FrameRouter{
		logger,
		typingHandler,
		readReceiptHandler,
	}
}

// RouteFrame dispatches one inbound frame for the given user. Frame errors
// are local to the frame; the caller keeps reading regardless.
func (r *FrameRouter) RouteFrame(ctx context.Context, userId uuid.UUID, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		r.logger.Debug("discarding malformed frame",
			zap.String("userId", userId.String()),
			zap.Error(err))

		return
	}

	switch frame.Type {
	case "ping":
		// Keepalive only, never forwarded.
	case "typing_started", "typing_stopped":
		if frame.ConversationId == nil {
			r.logger.Debug("discarding typing frame without conversation_id",
				zap.String("userId", userId.String()))

			return
		}

		err := r.typingHandler.Handle(ctx, handler.TypingRequest{
			ConversationId: *frame.ConversationId,
			UserId:         userId,
			Started:        frame.Type == "typing_started",
		})
		if err != nil {
			r.logger.Warn("failed to route typing indicator",
				zap.String("userId", userId.String()),
				zap.Error(err))
		}
	case "message_read":
		if frame.MessageId == nil {
			r.logger.Debug("discarding read receipt without message_id",
				zap.String("userId", userId.String()))

			return
		}

		err := r.readReceiptHandler.Handle(ctx, handler.ReadReceiptRequest{
			MessageId: *frame.MessageId,
			UserId:    userId,
		})
		if err != nil {
			r.logger.Warn("failed to route read receipt",
				zap.String("userId", userId.String()),
				zap.Error(err))
		}
	default:
		r.logger.Debug("discarding frame with unknown type",
			zap.String("userId", userId.String()),
			zap.String("type", frame.Type))
	}
}
