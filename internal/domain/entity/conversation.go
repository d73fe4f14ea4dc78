package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/validation"
)

type Conversation struct {
	ID           uuid.UUID
	ParticipantA uuid.UUID
	ParticipantB uuid.UUID
	ListingID    *uuid.UUID
	JobID        *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time

	LastMessage *Message
}

func NewConversation(initiatorID, otherID uuid.UUID, listingID, jobID *uuid.UUID) (*Conversation, error) {
	if initiatorID == otherID {
		return nil, apperror.Validation("нельзя создать беседу с самим собой")
	}
	now := time.Now()
	return &Conversation{
		ID:           uuid.New(),
		ParticipantA: initiatorID,
		ParticipantB: otherID,
		ListingID:    listingID,
		JobID:        jobID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other второй участник беседы.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Offer          *Offer
	CreatedAt      time.Time
}

// Offer структурированное предложение работы внутри сообщения.
type Offer struct {
	JobID  uuid.UUID               `json:"job_id"`
	Amount int64                   `json:"amount"`
	Status valueobject.OfferStatus `json:"status"`
}

func NewMessage(conversationID, senderID uuid.UUID, content string, offer *Offer) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && offer == nil {
		return nil, apperror.Validation("сообщение не может быть пустым")
	}
	if err := validation.ValidateLength("сообщение", content, 0, validation.MaxMessageLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if offer != nil {
		if _, err := valueobject.NewPositiveMoney(offer.Amount); err != nil {
			return nil, err
		}
		offer.Status = valueobject.OfferStatusPending
	}
	return &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Offer:          offer,
		CreatedAt:      time.Now(),
	}, nil
}

func (m *Message) IsOwnedBy(userID uuid.UUID) bool {
	return m.SenderID == userID
}

// AcceptOffer принять оффер может только получатель.
func (m *Message) AcceptOffer(actorID uuid.UUID) error {
	return m.resolveOffer(actorID, valueobject.OfferStatusAccepted)
}

func (m *Message) RejectOffer(actorID uuid.UUID) error {
	return m.resolveOffer(actorID, valueobject.OfferStatusRejected)
}

func (m *Message) resolveOffer(actorID uuid.UUID, status valueobject.OfferStatus) error {
	if m.Offer == nil {
		return apperror.Validation("в сообщении нет оффера")
	}
	if m.IsOwnedBy(actorID) {
		return apperror.New(apperror.ErrCodeForbidden, "нельзя ответить на собственный оффер")
	}
	if m.Offer.Status != valueobject.OfferStatusPending {
		return apperror.Wrap(
			&valueobject.TransitionError{Entity: "offer", From: string(m.Offer.Status), Action: string(status)},
			apperror.ErrCodeInvalidState, "оффер уже рассмотрен")
	}
	m.Offer.Status = status
	return nil
}
