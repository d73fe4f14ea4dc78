package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/validation"
)

type Job struct {
	ID              uuid.UUID
	CreatorID       uuid.UUID
	Title           string
	Description     string
	Budget          valueobject.Money
	Status          valueobject.JobStatus
	WorkerID        *uuid.UUID
	AcceptedBidID   *uuid.UUID
	DeliveryURL     *string
	DeliveryNote    *string
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewJob(creatorID uuid.UUID, title, description string, budget int64) (*Job, error) {
	title = strings.TrimSpace(title)
	if err := validation.ValidateLength("название", title, validation.MinTitleLength, validation.MaxTitleLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("описание", description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	money, err := valueobject.NewPositiveMoney(budget)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Job{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
		Budget:      money,
		Status:      valueobject.JobStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (j *Job) IsOwnedBy(userID uuid.UUID) bool {
	return j.CreatorID == userID
}

func (j *Job) IsWorker(userID uuid.UUID) bool {
	return j.WorkerID != nil && *j.WorkerID == userID
}

// IsParticipant заказчик или назначенный исполнитель.
func (j *Job) IsParticipant(userID uuid.UUID) bool {
	return j.IsOwnedBy(userID) || j.IsWorker(userID)
}

// AcceptBid назначает автора отклика исполнителем. Остальные отклики не трогает.
func (j *Job) AcceptBid(actorID uuid.UUID, bid *Bid) error {
	if !j.IsOwnedBy(actorID) {
		return apperror.ErrForbidden
	}
	if bid.JobID != j.ID {
		return apperror.Validation("отклик относится к другому заданию")
	}
	if err := j.transition(valueobject.JobActionHire); err != nil {
		return err
	}
	if err := bid.Accept(); err != nil {
		return err
	}
	j.WorkerID = &bid.BidderID
	j.AcceptedBidID = &bid.ID
	return nil
}

// AssignFromOffer назначает исполнителем того, кто принял оффер автора задания.
func (j *Job) AssignFromOffer(offerSenderID, acceptorID uuid.UUID) error {
	if !j.IsOwnedBy(offerSenderID) {
		return apperror.New(apperror.ErrCodeForbidden, "оффер отправлен не автором задания")
	}
	if acceptorID == j.CreatorID {
		return apperror.ErrForbidden
	}
	if err := j.transition(valueobject.JobActionHire); err != nil {
		return err
	}
	j.WorkerID = &acceptorID
	return nil
}

func (j *Job) SubmitDelivery(actorID uuid.UUID, url, note string) error {
	if !j.IsWorker(actorID) {
		return apperror.ErrForbidden
	}
	url = strings.TrimSpace(url)
	note = strings.TrimSpace(note)
	if url == "" && note == "" {
		return apperror.Validation("укажите ссылку на результат или комментарий")
	}
	if err := validation.ValidateExternalLink(url); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := j.transition(valueobject.JobActionSubmitDelivery); err != nil {
		return err
	}
	j.DeliveryURL = optionalString(url)
	j.DeliveryNote = optionalString(note)
	return nil
}

func (j *Job) ApproveDelivery(actorID uuid.UUID) error {
	if !j.IsOwnedBy(actorID) {
		return apperror.ErrForbidden
	}
	if err := j.transition(valueobject.JobActionApproveDelivery); err != nil {
		return err
	}
	j.RejectionReason = nil
	return nil
}

func (j *Job) RejectDelivery(actorID uuid.UUID, reason string) error {
	if !j.IsOwnedBy(actorID) {
		return apperror.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("укажите причину отклонения")
	}
	if err := j.transition(valueobject.JobActionRejectDelivery); err != nil {
		return err
	}
	j.RejectionReason = &reason
	return nil
}

func (j *Job) Cancel(actorID uuid.UUID) error {
	if !j.IsOwnedBy(actorID) {
		return apperror.ErrForbidden
	}
	return j.transition(valueobject.JobActionCancel)
}

func (j *Job) transition(action valueobject.JobAction) error {
	next, err := valueobject.NextJobStatus(j.Status, action)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInvalidState, "действие недоступно в текущем статусе задания")
	}
	j.Status = next
	j.UpdatedAt = time.Now()
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
