package mongodb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/viewsocial/realtime/internal/ierr"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type conversation struct {
	Id             string   `bson:"_id"`
	ParticipantIds []string `bson:"participantIds"`
}

type message struct {
	Id             string `bson:"_id"`
	ConversationId string `bson:"conversationId"`
}

// Directory reads conversation membership from the collections maintained
// by the messaging domain.
type Directory struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewDirectory(client *mongo.Client) *Directory {
	database := client.Database("viewsocial")

	return &Directory{
		conversations: database.Collection("conversations"),
		messages:      database.Collection("messages"),
	}
}

func (d *Directory) Setup(ctx context.Context) error {
	participantIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "participantIds", Value: 1}},
	}

	_, err := d.conversations.Indexes().CreateOne(ctx, participantIndexModel)

	return err
}

func (d *Directory) Participants(ctx context.Context, conversationId uuid.UUID) ([]uuid.UUID, error) {
	var result conversation

	err := d.conversations.FindOne(ctx, bson.M{"_id": conversationId.String()}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("conversation not found"))
	}
	if err != nil {
		return nil, err
	}

	participants := make([]uuid.UUID, 0, len(result.ParticipantIds))
	for _, raw := range result.ParticipantIds {
		participantId, err := uuid.Parse(raw)
		if err != nil {
			return nil, ierr.New(ierr.ErrorCodeInternal, errors.New("malformed participant id: "+raw))
		}

		participants = append(participants, participantId)
	}

	return participants, nil
}

func (d *Directory) ConversationOf(ctx context.Context, messageId uuid.UUID) (uuid.UUID, error) {
	var result message

	err := d.messages.FindOne(ctx, bson.M{"_id": messageId.String()}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return uuid.Nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("message not found"))
	}
	if err != nil {
		return uuid.Nil, err
	}

	conversationId, err := uuid.Parse(result.ConversationId)
	if err != nil {
		return uuid.Nil, ierr.New(ierr.ErrorCodeInternal, errors.New("malformed conversation id: "+result.ConversationId))
	}

	return conversationId, nil
}
