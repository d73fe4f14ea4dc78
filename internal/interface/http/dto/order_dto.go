package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type CreateOrderRequest struct {
	ListingID    string   `json:"listing_id" binding:"required"`
	AddOnIDs     []string `json:"add_on_ids"`
	Requirements string   `json:"requirements"`
}

type SubmitDeliveryRequest struct {
	Content string  `json:"content" binding:"required"`
	FileURL *string `json:"file_url"`
}

type RequestChangesRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type OrderResponse struct {
	ID           uuid.UUID            `json:"id"`
	BuyerID      uuid.UUID            `json:"buyer_id"`
	SellerID     uuid.UUID            `json:"seller_id"`
	ListingID    *uuid.UUID           `json:"listing_id"`
	JobID        *uuid.UUID           `json:"job_id"`
	BidID        *uuid.UUID           `json:"bid_id"`
	Title        string               `json:"title"`
	Amount       int64                `json:"amount"`
	Currency     string               `json:"currency"`
	Status       string               `json:"status"`
	EscrowStatus string               `json:"escrow_status"`
	Metadata     entity.OrderMetadata `json:"metadata"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`

	Listing    *ListingResponse   `json:"listing,omitempty"`
	Job        *JobResponse       `json:"job,omitempty"`
	Deliveries []DeliveryResponse `json:"deliveries,omitempty"`
}

type DeliveryResponse struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	FileURL   *string   `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}

type CheckoutResponse struct {
	Order       OrderResponse `json:"order"`
	CheckoutURL string        `json:"checkout_url"`
}

func ToOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		BuyerID:      o.BuyerID,
		SellerID:     o.SellerID,
		ListingID:    o.ListingID,
		JobID:        o.JobID,
		BidID:        o.BidID,
		Title:        o.Title,
		Amount:       o.Amount.Amount,
		Currency:     o.Amount.Currency,
		Status:       string(o.Status),
		EscrowStatus: string(o.EscrowStatus),
		Metadata:     o.Metadata,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}

	if o.Listing != nil {
		l := ToListingResponse(o.Listing)
		resp.Listing = &l
	}
	if o.Job != nil {
		j := ToJobResponse(o.Job)
		resp.Job = &j
	}
	for _, d := range o.Deliveries {
		resp.Deliveries = append(resp.Deliveries, DeliveryResponse{
			ID:        d.ID,
			Content:   d.Content,
			FileURL:   d.FileURL,
			CreatedAt: d.CreatedAt,
		})
	}
	return resp
}

func ToOrderResponses(orders []*entity.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, ToOrderResponse(o))
	}
	return responses
}
