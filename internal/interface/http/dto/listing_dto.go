package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type ListingRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description" binding:"required"`
	Price        int64      `json:"price" binding:"required"`
	Category     string     `json:"category"`
	DeliveryDays int        `json:"delivery_days"`
	AddOns       []AddOnDTO `json:"add_ons"`
	PreviewURL   *string    `json:"preview_url"`
}

type AddOnDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}

type ModerateListingRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListingResponse struct {
	ID           uuid.UUID  `json:"id"`
	SellerID     uuid.UUID  `json:"seller_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Price        int64      `json:"price"`
	Currency     string     `json:"currency"`
	Category     string     `json:"category"`
	DeliveryDays int        `json:"delivery_days"`
	AddOns       []AddOnDTO `json:"add_ons"`
	PreviewURL   *string    `json:"preview_url"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type DeleteListingResponse struct {
	ID       uuid.UUID `json:"id"`
	Archived bool      `json:"archived"`
}

// Metadata собирает метаданные объявления из запроса.
func (r ListingRequest) Metadata() entity.ListingMetadata {
	meta := entity.ListingMetadata{DeliveryDays: r.DeliveryDays}
	for _, a := range r.AddOns {
		meta.AddOns = append(meta.AddOns, entity.AddOn{ID: a.ID, Title: a.Title, Price: a.Price})
	}
	return meta
}

func ToListingResponse(l *entity.Listing) ListingResponse {
	resp := ListingResponse{
		ID:           l.ID,
		SellerID:     l.SellerID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price.Amount,
		Currency:     l.Price.Currency,
		Category:     l.Category,
		DeliveryDays: l.Metadata.DeliveryDays,
		AddOns:       make([]AddOnDTO, 0, len(l.Metadata.AddOns)),
		PreviewURL:   l.PreviewURL,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	for _, a := range l.Metadata.AddOns {
		resp.AddOns = append(resp.AddOns, AddOnDTO{ID: a.ID, Title: a.Title, Price: a.Price})
	}
	return resp
}

func ToListingResponses(listings []*entity.Listing) []ListingResponse {
	responses := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, ToListingResponse(l))
	}
	return responses
}
