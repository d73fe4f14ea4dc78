package valueobject

import (
	"fmt"

	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// TransitionError отказ автомата состояний: действие недопустимо из текущего статуса.
type TransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: действие %q недопустимо в статусе %q", e.Entity, e.Action, e.From)
}

// ---------- Order ----------

type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusPaid        OrderStatus = "paid"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusUnderReview OrderStatus = "under_review"
	OrderStatusCompleted   OrderStatus = "completed"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusDelivered, OrderStatusUnderReview,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус заказа")
	}
	return s, nil
}

type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "held"
	EscrowReleased EscrowStatus = "released"
	EscrowRefunded EscrowStatus = "refunded"
)

func (s EscrowStatus) IsValid() bool {
	switch s {
	case EscrowHeld, EscrowReleased, EscrowRefunded:
		return true
	}
	return false
}

type OrderAction string

const (
	OrderActionPay            OrderAction = "pay"
	OrderActionSubmitDelivery OrderAction = "submit_delivery"
	OrderActionApprove        OrderAction = "approve"
	OrderActionRequestChanges OrderAction = "request_changes"
	OrderActionCancel         OrderAction = "cancel"
)

// NextOrderState единственная функция переходов заказа.
// under_review хранится для совместимости данных, но ни одно действие в него не ведёт.
func NextOrderState(current OrderStatus, action OrderAction) (OrderStatus, EscrowStatus, error) {
	switch action {
	case OrderActionPay:
		if current == OrderStatusPending {
			return OrderStatusPaid, EscrowHeld, nil
		}
	case OrderActionSubmitDelivery:
		if current == OrderStatusPaid {
			return OrderStatusDelivered, EscrowHeld, nil
		}
	case OrderActionApprove:
		if current == OrderStatusDelivered {
			return OrderStatusCompleted, EscrowReleased, nil
		}
	case OrderActionRequestChanges:
		if current == OrderStatusDelivered {
			return OrderStatusPaid, EscrowHeld, nil
		}
	case OrderActionCancel:
		if current == OrderStatusPending || current == OrderStatusPaid {
			return OrderStatusCancelled, EscrowRefunded, nil
		}
	}
	return "", "", &TransitionError{Entity: "order", From: string(current), Action: string(action)}
}

// ---------- Job ----------

type JobStatus string

const (
	JobStatusOpen        JobStatus = "open"
	JobStatusInProgress  JobStatus = "in_progress"
	JobStatusUnderReview JobStatus = "under_review"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusCancelled   JobStatus = "cancelled"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusOpen, JobStatusInProgress, JobStatusUnderReview, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

func NewJobStatus(status string) (JobStatus, error) {
	s := JobStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус задания")
	}
	return s, nil
}

type JobAction string

const (
	// JobActionHire назначение исполнителя: принятие отклика, оплата найма или принятие оффера в чате.
	JobActionHire            JobAction = "hire"
	JobActionSubmitDelivery  JobAction = "submit_delivery"
	JobActionApproveDelivery JobAction = "approve_delivery"
	JobActionRejectDelivery  JobAction = "reject_delivery"
	JobActionCancel          JobAction = "cancel"
)

// NextJobStatus единственная функция переходов задания.
func NextJobStatus(current JobStatus, action JobAction) (JobStatus, error) {
	switch action {
	case JobActionHire:
		if current == JobStatusOpen {
			return JobStatusInProgress, nil
		}
	case JobActionSubmitDelivery:
		if current == JobStatusInProgress {
			return JobStatusUnderReview, nil
		}
	case JobActionApproveDelivery:
		if current == JobStatusUnderReview {
			return JobStatusCompleted, nil
		}
	case JobActionRejectDelivery:
		if current == JobStatusUnderReview {
			return JobStatusInProgress, nil
		}
	case JobActionCancel:
		if current == JobStatusOpen {
			return JobStatusCancelled, nil
		}
	}
	return "", &TransitionError{Entity: "job", From: string(current), Action: string(action)}
}

// ---------- Bid ----------

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	}
	return false
}

func NewBidStatus(status string) (BidStatus, error) {
	s := BidStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус отклика")
	}
	return s, nil
}

// ---------- Offer ----------

// OfferStatus статус оффера внутри сообщения чата.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusPending, OfferStatusAccepted, OfferStatusRejected:
		return true
	}
	return false
}

// ---------- Listing ----------

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusBanned   ListingStatus = "banned"
	ListingStatusArchived ListingStatus = "archived"
)

func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusBanned, ListingStatusArchived:
		return true
	}
	return false
}

func NewListingStatus(status string) (ListingStatus, error) {
	s := ListingStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус объявления")
	}
	return s, nil
}
