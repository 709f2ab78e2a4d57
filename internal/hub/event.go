package hub

import "github.com/google/uuid"

type EventType string

const (
	EventTypeMessageSent      EventType = "message_sent"
	EventTypeMessageDelivered EventType = "message_delivered"
	EventTypeMessageRead      EventType = "message_read"
	EventTypeTypingStarted    EventType = "typing_started"
	EventTypeTypingStopped    EventType = "typing_stopped"
	EventTypePaymentReceived  EventType = "payment_received"
	EventTypePostLiked        EventType = "post_liked"
	EventTypeUserOnline       EventType = "user_online"
	EventTypeUserOffline      EventType = "user_offline"
	EventTypeError            EventType = "error"
)

// Event is the tagged frame written to client connections. The hub routes
// events without interpreting their payload; the domain collaborator that
// raises an event is responsible for populating it.
type Event struct {
	Type EventType `json:"type"`

	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	MessageId      *uuid.UUID `json:"message_id,omitempty"`
	SenderId       *uuid.UUID `json:"sender_id,omitempty"`
	UserId         *uuid.UUID `json:"user_id,omitempty"`
	TransactionId  *uuid.UUID `json:"transaction_id,omitempty"`
	PostId         *uuid.UUID `json:"post_id,omitempty"`
	Content        string     `json:"content,omitempty"`
	Amount         string     `json:"amount,omitempty"`
	Message        string     `json:"message,omitempty"`
}

func NewMessageSent(conversationId, messageId, senderId uuid.UUID, content string) Event {
	return Event{
		Type:           EventTypeMessageSent,
		ConversationId: &conversationId,
		MessageId:      &messageId,
		SenderId:       &senderId,
		Content:        content,
	}
}

func NewMessageDelivered(conversationId, messageId, userId uuid.UUID) Event {
	return Event{
		Type:           EventTypeMessageDelivered,
		ConversationId: &conversationId,
		MessageId:      &messageId,
		UserId:         &userId,
	}
}

func NewMessageRead(messageId, userId uuid.UUID) Event {
	return Event{
		Type:      EventTypeMessageRead,
		MessageId: &messageId,
		UserId:    &userId,
	}
}

func NewTypingStarted(conversationId, userId uuid.UUID) Event {
	return Event{
		Type:           EventTypeTypingStarted,
		ConversationId: &conversationId,
		UserId:         &userId,
	}
}

func NewTypingStopped(conversationId, userId uuid.UUID) Event {
	return Event{
		Type:           EventTypeTypingStopped,
		ConversationId: &conversationId,
		UserId:         &userId,
	}
}

func NewPaymentReceived(transactionId, senderId uuid.UUID, amount string) Event {
	return Event{
		Type:          EventTypePaymentReceived,
		TransactionId: &transactionId,
		SenderId:      &senderId,
		Amount:        amount,
	}
}

func NewPostLiked(postId, userId uuid.UUID) Event {
	return Event{
		Type:   EventTypePostLiked,
		PostId: &postId,
		UserId: &userId,
	}
}

func NewUserOnline(userId uuid.UUID) Event {
	return Event{
		Type:   EventTypeUserOnline,
		UserId: &userId,
	}
}

func NewUserOffline(userId uuid.UUID) Event {
	return Event{
		Type:   EventTypeUserOffline,
		UserId: &userId,
	}
}

func NewErrorEvent(message string) Event {
	return Event{
		Type:    EventTypeError,
		Message: message,
	}
}
