package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/validation"
)

type Bid struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	BidderID     uuid.UUID
	Amount       valueobject.Money
	DeliveryTime string
	Proposal     string
	Status       valueobject.BidStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewBid(jobID, bidderID uuid.UUID, amount int64, deliveryTime, proposal string) (*Bid, error) {
	money, err := valueobject.NewPositiveMoney(amount)
	if err != nil {
		return nil, err
	}
	proposal = strings.TrimSpace(proposal)
	if err := validation.ValidateLength("текст отклика", proposal, validation.MinProposalLength, validation.MaxProposalLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	deliveryTime = strings.TrimSpace(deliveryTime)
	if deliveryTime == "" {
		return nil, apperror.Validation("укажите срок выполнения")
	}

	now := time.Now()
	return &Bid{
		ID:           uuid.New(),
		JobID:        jobID,
		BidderID:     bidderID,
		Amount:       money,
		DeliveryTime: deliveryTime,
		Proposal:     proposal,
		Status:       valueobject.BidStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (b *Bid) Accept() error {
	if b.Status != valueobject.BidStatusPending {
		return apperror.Wrap(
			&valueobject.TransitionError{Entity: "bid", From: string(b.Status), Action: "accept"},
			apperror.ErrCodeInvalidState, "можно принять только ожидающий отклик")
	}
	b.Status = valueobject.BidStatusAccepted
	b.UpdatedAt = time.Now()
	return nil
}

func (b *Bid) Reject() error {
	if b.Status != valueobject.BidStatusPending {
		return apperror.Wrap(
			&valueobject.TransitionError{Entity: "bid", From: string(b.Status), Action: "reject"},
			apperror.ErrCodeInvalidState, "можно отклонить только ожидающий отклик")
	}
	b.Status = valueobject.BidStatusRejected
	b.UpdatedAt = time.Now()
	return nil
}

func (b *Bid) IsOwnedBy(userID uuid.UUID) bool {
	return b.BidderID == userID
}
