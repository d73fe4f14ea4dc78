package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type Order struct {
	ID                uuid.UUID
	BuyerID           uuid.UUID
	SellerID          uuid.UUID
	ListingID         *uuid.UUID
	JobID             *uuid.UUID
	BidID             *uuid.UUID
	Title             string
	Amount            valueobject.Money
	Status            valueobject.OrderStatus
	EscrowStatus      valueobject.EscrowStatus
	Metadata          OrderMetadata
	CheckoutSessionID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Заполняются только при чтении полной модели.
	Listing    *Listing
	Job        *Job
	Deliveries []Delivery
}

// OrderMetadata свободные данные заказа, хранятся как JSON.
type OrderMetadata struct {
	Requirements  string  `json:"requirements,omitempty"`
	AddOns        []AddOn `json:"add_ons,omitempty"`
	Feedback      string  `json:"feedback,omitempty"`
	RevisionCount int     `json:"revision_count,omitempty"`
	CancelReason  string  `json:"cancel_reason,omitempty"`
}

// Delivery запись о сданной работе. Только добавляется.
type Delivery struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Content   string
	FileURL   *string
	CreatedAt time.Time
}

// NewListingOrder заказ по объявлению: сумма = цена + выбранные опции.
func NewListingOrder(buyerID uuid.UUID, listing *Listing, addOnIDs []string, requirements string) (*Order, error) {
	if listing.Status != valueobject.ListingStatusActive {
		return nil, apperror.Validation("объявление недоступно для заказа")
	}
	if listing.IsOwnedBy(buyerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя заказать собственное объявление")
	}
	amount, addOns, err := listing.Quote(addOnIDs)
	if err != nil {
		return nil, err
	}

	o := newOrder(buyerID, listing.SellerID, listing.Title, amount)
	o.ListingID = &listing.ID
	o.Metadata = OrderMetadata{
		Requirements: strings.TrimSpace(requirements),
		AddOns:       addOns,
	}
	return o, nil
}

// NewHireOrder заказ на оплату найма по отклику.
func NewHireOrder(buyerID uuid.UUID, job *Job, bid *Bid) (*Order, error) {
	if !job.IsOwnedBy(buyerID) {
		return nil, apperror.ErrForbidden
	}
	if bid.JobID != job.ID {
		return nil, apperror.Validation("отклик относится к другому заданию")
	}
	if job.Status != valueobject.JobStatusOpen {
		return nil, apperror.Wrap(
			&valueobject.TransitionError{Entity: "job", From: string(job.Status), Action: string(valueobject.JobActionHire)},
			apperror.ErrCodeInvalidState, "задание уже не принимает исполнителей")
	}
	if bid.Status != valueobject.BidStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "отклик уже рассмотрен")
	}

	o := newOrder(buyerID, bid.BidderID, job.Title, bid.Amount)
	o.JobID = &job.ID
	o.BidID = &bid.ID
	return o, nil
}

func newOrder(buyerID, sellerID uuid.UUID, title string, amount valueobject.Money) *Order {
	now := time.Now()
	return &Order{
		ID:           uuid.New(),
		BuyerID:      buyerID,
		SellerID:     sellerID,
		Title:        title,
		Amount:       amount,
		Status:       valueobject.OrderStatusPending,
		EscrowStatus: valueobject.EscrowHeld,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (o *Order) IsBuyer(userID uuid.UUID) bool {
	return o.BuyerID == userID
}

func (o *Order) IsSeller(userID uuid.UUID) bool {
	return o.SellerID == userID
}

func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.IsBuyer(userID) || o.IsSeller(userID)
}

// IsHire заказ создан через оплату найма по отклику.
func (o *Order) IsHire() bool {
	return o.JobID != nil && o.BidID != nil
}

// Pay подтверждение оплаты. Вызывается по вебхуку платёжного шлюза от имени покупателя.
func (o *Order) Pay(actorID uuid.UUID) error {
	if !o.IsBuyer(actorID) {
		return apperror.ErrForbidden
	}
	return o.apply(valueobject.OrderActionPay)
}

func (o *Order) SubmitDelivery(actorID uuid.UUID, content string, fileURL *string) (*Delivery, error) {
	if !o.IsSeller(actorID) {
		return nil, apperror.ErrForbidden
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("описание результата обязательно")
	}
	if err := o.apply(valueobject.OrderActionSubmitDelivery); err != nil {
		return nil, err
	}

	d := Delivery{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Content:   content,
		FileURL:   fileURL,
		CreatedAt: o.UpdatedAt,
	}
	o.Deliveries = append(o.Deliveries, d)
	return &d, nil
}

func (o *Order) Approve(actorID uuid.UUID) error {
	if !o.IsBuyer(actorID) {
		return apperror.New(apperror.ErrCodeForbidden, "принять работу может только покупатель")
	}
	return o.apply(valueobject.OrderActionApprove)
}

func (o *Order) RequestChanges(actorID uuid.UUID, feedback string) error {
	if !o.IsBuyer(actorID) {
		return apperror.New(apperror.ErrCodeForbidden, "запросить доработку может только покупатель")
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return apperror.Validation("опишите, что нужно доработать")
	}
	if err := o.apply(valueobject.OrderActionRequestChanges); err != nil {
		return err
	}
	o.Metadata.Feedback = feedback
	o.Metadata.RevisionCount++
	return nil
}

// Cancel: ожидающий оплаты заказ отменяет любая сторона, оплаченный только продавец.
func (o *Order) Cancel(actorID uuid.UUID, reason string) error {
	switch {
	case o.Status == valueobject.OrderStatusPending && o.IsParticipant(actorID):
	case o.Status == valueobject.OrderStatusPaid && o.IsSeller(actorID):
	case !o.IsParticipant(actorID):
		return apperror.ErrForbidden
	case o.Status == valueobject.OrderStatusPaid:
		return apperror.New(apperror.ErrCodeForbidden, "оплаченный заказ может отменить только продавец")
	}
	if err := o.apply(valueobject.OrderActionCancel); err != nil {
		return err
	}
	o.Metadata.CancelReason = strings.TrimSpace(reason)
	return nil
}

// Refund отмена оплаченного заказа найма, который не состоялся. Вызывается обработчиком платежей.
func (o *Order) Refund(reason string) error {
	if o.Status != valueobject.OrderStatusPaid || !o.IsHire() {
		return apperror.New(apperror.ErrCodeInvalidState, "возврат возможен только для оплаченного заказа найма")
	}
	if err := o.apply(valueobject.OrderActionCancel); err != nil {
		return err
	}
	o.Metadata.CancelReason = reason
	return nil
}

func (o *Order) apply(action valueobject.OrderAction) error {
	status, escrow, err := valueobject.NextOrderState(o.Status, action)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInvalidState, "действие недоступно в текущем статусе заказа")
	}
	o.Status = status
	o.EscrowStatus = escrow
	o.UpdatedAt = time.Now()
	return nil
}
