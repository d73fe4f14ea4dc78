package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	FindByParticipants(ctx context.Context, a, b uuid.UUID, listingID, jobID *uuid.UUID) (*entity.Conversation, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error)
	Touch(ctx context.Context, id uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	FindByConversationID(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error)
	// UpdateOffer условное обновление статуса оффера.
	UpdateOffer(ctx context.Context, msg *entity.Message, expected valueobject.OfferStatus) error
}
