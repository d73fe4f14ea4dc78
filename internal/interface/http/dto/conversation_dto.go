package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type CreateConversationRequest struct {
	UserID    string  `json:"user_id" binding:"required"`
	ListingID *string `json:"listing_id"`
	JobID     *string `json:"job_id"`
}

type SendMessageRequest struct {
	Content string           `json:"content"`
	Offer   *OfferRequestDTO `json:"offer"`
}

type OfferRequestDTO struct {
	JobID  string `json:"job_id" binding:"required"`
	Amount int64  `json:"amount"`
}

type ConversationResponse struct {
	ID           uuid.UUID        `json:"id"`
	ParticipantA uuid.UUID        `json:"participant_a"`
	ParticipantB uuid.UUID        `json:"participant_b"`
	ListingID    *uuid.UUID       `json:"listing_id"`
	JobID        *uuid.UUID       `json:"job_id"`
	LastMessage  *MessageResponse `json:"last_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type MessageResponse struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	SenderID       uuid.UUID     `json:"sender_id"`
	Content        string        `json:"content"`
	Offer          *entity.Offer `json:"offer,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type OfferAcceptedResponse struct {
	Message MessageResponse `json:"message"`
	Job     JobResponse     `json:"job"`
}

func ToConversationResponse(conv *entity.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:           conv.ID,
		ParticipantA: conv.ParticipantA,
		ParticipantB: conv.ParticipantB,
		ListingID:    conv.ListingID,
		JobID:        conv.JobID,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	if conv.LastMessage != nil {
		m := ToMessageResponse(conv.LastMessage)
		resp.LastMessage = &m
	}
	return resp
}

func ToConversationResponses(convs []*entity.Conversation) []ConversationResponse {
	responses := make([]ConversationResponse, 0, len(convs))
	for _, c := range convs {
		responses = append(responses, ToConversationResponse(c))
	}
	return responses
}

func ToMessageResponse(msg *entity.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Offer:          msg.Offer,
		CreatedAt:      msg.CreatedAt,
	}
}

func ToMessageResponses(msgs []*entity.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		responses = append(responses, ToMessageResponse(m))
	}
	return responses
}
