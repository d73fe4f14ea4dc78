package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type CreateJobRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Budget      int64  `json:"budget" binding:"required"`
}

type PlaceBidRequest struct {
	Amount       int64  `json:"amount" binding:"required"`
	DeliveryTime string `json:"delivery_time" binding:"required"`
	Proposal     string `json:"proposal" binding:"required"`
}

type JobDeliveryRequest struct {
	URL  string `json:"url" binding:"required"`
	Note string `json:"note"`
}

type ReviewJobDeliveryRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

type HireCheckoutRequest struct {
	BidID string `json:"bid_id" binding:"required"`
}

type JobResponse struct {
	ID              uuid.UUID  `json:"id"`
	CreatorID       uuid.UUID  `json:"creator_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Budget          int64      `json:"budget"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	WorkerID        *uuid.UUID `json:"worker_id"`
	AcceptedBidID   *uuid.UUID `json:"accepted_bid_id"`
	DeliveryURL     *string    `json:"delivery_url"`
	DeliveryNote    *string    `json:"delivery_note"`
	RejectionReason *string    `json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type BidResponse struct {
	ID           uuid.UUID `json:"id"`
	JobID        uuid.UUID `json:"job_id"`
	BidderID     uuid.UUID `json:"bidder_id"`
	Amount       int64     `json:"amount"`
	DeliveryTime string    `json:"delivery_time"`
	Proposal     string    `json:"proposal"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type AcceptBidResponse struct {
	Job JobResponse `json:"job"`
	Bid BidResponse `json:"bid"`
}

func ToJobResponse(j *entity.Job) JobResponse {
	return JobResponse{
		ID:              j.ID,
		CreatorID:       j.CreatorID,
		Title:           j.Title,
		Description:     j.Description,
		Budget:          j.Budget.Amount,
		Currency:        j.Budget.Currency,
		Status:          string(j.Status),
		WorkerID:        j.WorkerID,
		AcceptedBidID:   j.AcceptedBidID,
		DeliveryURL:     j.DeliveryURL,
		DeliveryNote:    j.DeliveryNote,
		RejectionReason: j.RejectionReason,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func ToJobResponses(jobs []*entity.Job) []JobResponse {
	responses := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		responses = append(responses, ToJobResponse(j))
	}
	return responses
}

func ToBidResponse(b *entity.Bid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		JobID:        b.JobID,
		BidderID:     b.BidderID,
		Amount:       b.Amount.Amount,
		DeliveryTime: b.DeliveryTime,
		Proposal:     b.Proposal,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
	}
}

func ToBidResponses(bids []*entity.Bid) []BidResponse {
	responses := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		responses = append(responses, ToBidResponse(b))
	}
	return responses
}
