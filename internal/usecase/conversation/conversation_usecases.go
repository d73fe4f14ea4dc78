package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/usecase/job"
)

// События websocket для чата.
const (
	EventMessage = "message"
	EventOffer   = "offer"
)

// MessagePusher доставляет событие всем соединениям пользователя.
type MessagePusher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// MessageEvent полезная нагрузка события чата.
type MessageEvent struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	SenderID       uuid.UUID     `json:"sender_id"`
	Content        string        `json:"content"`
	Offer          *entity.Offer `json:"offer,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func push(pusher MessagePusher, to uuid.UUID, event string, msg *entity.Message) {
	if pusher == nil {
		return
	}
	err := pusher.BroadcastToUser(to, event, MessageEvent{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Offer:          msg.Offer,
		CreatedAt:      msg.CreatedAt,
	})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"message_id": msg.ID,
			"user_id":    to,
			"error":      err.Error(),
		}).Warn("conversation: не удалось отправить событие в websocket")
	}
}

func signal(conv *entity.Conversation, action string) invalidation.Signal {
	return invalidation.Signal{
		Entity:   "conversation",
		EntityID: conv.ID,
		Action:   action,
		Paths:    []string{"/api/conversations"},
		UserIDs:  []uuid.UUID{conv.ParticipantA, conv.ParticipantB},
	}
}

type GetOrCreateInput struct {
	OtherUserID uuid.UUID
	ListingID   *uuid.UUID
	JobID       *uuid.UUID
}

type GetOrCreateConversationUseCase struct {
	convRepo    repository.ConversationRepository
	profileRepo repository.ProfileRepository
}

func NewGetOrCreateConversationUseCase(convRepo repository.ConversationRepository, profileRepo repository.ProfileRepository) *GetOrCreateConversationUseCase {
	return &GetOrCreateConversationUseCase{convRepo: convRepo, profileRepo: profileRepo}
}

func (uc *GetOrCreateConversationUseCase) Execute(ctx context.Context, actor entity.Actor, input GetOrCreateInput) (*entity.Conversation, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	if input.OtherUserID == actor.UserID {
		return nil, apperror.Validation("нельзя создать беседу с самим собой")
	}
	if _, err := uc.profileRepo.FindByID(ctx, input.OtherUserID); err != nil {
		return nil, err
	}

	conv, err := uc.convRepo.FindByParticipants(ctx, actor.UserID, input.OtherUserID, input.ListingID, input.JobID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось найти беседу")
	}
	if conv != nil {
		return conv, nil
	}

	conv, err = entity.NewConversation(actor.UserID, input.OtherUserID, input.ListingID, input.JobID)
	if err != nil {
		return nil, err
	}
	if err := uc.convRepo.Create(ctx, conv); err != nil {
		return nil, apperror.Database(err, "не удалось создать беседу")
	}
	return conv, nil
}

type ListMyConversationsUseCase struct {
	convRepo repository.ConversationRepository
}

func NewListMyConversationsUseCase(convRepo repository.ConversationRepository) *ListMyConversationsUseCase {
	return &ListMyConversationsUseCase{convRepo: convRepo}
}

func (uc *ListMyConversationsUseCase) Execute(ctx context.Context, actor entity.Actor) ([]*entity.Conversation, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	return uc.convRepo.FindByUserID(ctx, actor.UserID)
}

type ListMessagesUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
}

func NewListMessagesUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) *ListMessagesUseCase {
	return &ListMessagesUseCase{convRepo: convRepo, msgRepo: msgRepo}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, actor entity.Actor, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(actor.UserID) {
		return nil, apperror.ErrForbidden
	}
	return uc.msgRepo.FindByConversationID(ctx, conversationID, limit, offset)
}

type SendMessageInput struct {
	Content string
	// Offer оффер работы по заданию; отправляет только автор задания.
	Offer *OfferInput
}

type OfferInput struct {
	JobID  uuid.UUID
	Amount int64
}

type SendMessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	jobRepo  repository.JobRepository
	pusher   MessagePusher
	notifier invalidation.Notifier
}

func NewSendMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	jobRepo repository.JobRepository,
	pusher MessagePusher,
	notifier invalidation.Notifier,
) *SendMessageUseCase {
	return &SendMessageUseCase{convRepo: convRepo, msgRepo: msgRepo, jobRepo: jobRepo, pusher: pusher, notifier: notifier}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, actor entity.Actor, conversationID uuid.UUID, input SendMessageInput) (*entity.Message, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(actor.UserID) {
		return nil, apperror.ErrForbidden
	}

	var offer *entity.Offer
	if input.Offer != nil {
		j, err := uc.jobRepo.FindByID(ctx, input.Offer.JobID)
		if err != nil {
			return nil, err
		}
		if !j.IsOwnedBy(actor.UserID) {
			return nil, apperror.New(apperror.ErrCodeForbidden, "оффер по заданию может отправить только его автор")
		}
		if j.Status != valueobject.JobStatusOpen {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "задание уже не открыто")
		}
		offer = &entity.Offer{JobID: j.ID, Amount: input.Offer.Amount}
	}

	msg, err := entity.NewMessage(conv.ID, actor.UserID, input.Content, offer)
	if err != nil {
		return nil, err
	}
	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return nil, apperror.Database(err, "не удалось отправить сообщение")
	}
	if err := uc.convRepo.Touch(ctx, conv.ID); err != nil {
		logger.Log.WithError(err).Warn("conversation: не удалось обновить время беседы")
	}

	push(uc.pusher, conv.Other(actor.UserID), EventMessage, msg)
	uc.notifier.Notify(ctx, signal(conv, "message"))
	return msg, nil
}

// RespondOfferUseCase принятие или отклонение оффера получателем.
type RespondOfferUseCase struct {
	tx       repository.Transactor
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	jobRepo  repository.JobRepository
	pusher   MessagePusher
	notifier invalidation.Notifier
}

func NewRespondOfferUseCase(
	tx repository.Transactor,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	jobRepo repository.JobRepository,
	pusher MessagePusher,
	notifier invalidation.Notifier,
) *RespondOfferUseCase {
	return &RespondOfferUseCase{tx: tx, convRepo: convRepo, msgRepo: msgRepo, jobRepo: jobRepo, pusher: pusher, notifier: notifier}
}

// Accept назначает получателя исполнителем через тот же переход hire, что и принятие отклика.
func (uc *RespondOfferUseCase) Accept(ctx context.Context, actor entity.Actor, messageID uuid.UUID) (*entity.Message, *entity.Job, error) {
	var (
		msg   *entity.Message
		conv  *entity.Conversation
		hired *entity.Job
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		msg, conv, err = uc.load(ctx, actor, messageID)
		if err != nil {
			return err
		}
		if err := msg.AcceptOffer(actor.UserID); err != nil {
			return err
		}

		hired, err = uc.jobRepo.FindByID(ctx, msg.Offer.JobID)
		if err != nil {
			return err
		}
		if err := job.ApplyLoaded(ctx, uc.jobRepo, hired, func(j *entity.Job) error {
			return j.AssignFromOffer(msg.SenderID, actor.UserID)
		}); err != nil {
			return err
		}
		return uc.saveOffer(ctx, msg)
	})
	if err != nil {
		return nil, nil, err
	}

	job.Record(hired, string(valueobject.JobActionHire))
	uc.notifier.Notify(ctx, job.Signal(hired, string(valueobject.JobActionHire)))
	uc.notifier.Notify(ctx, signal(conv, "offer_accepted"))
	push(uc.pusher, msg.SenderID, EventOffer, msg)
	return msg, hired, nil
}

func (uc *RespondOfferUseCase) Reject(ctx context.Context, actor entity.Actor, messageID uuid.UUID) (*entity.Message, error) {
	var (
		msg  *entity.Message
		conv *entity.Conversation
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		msg, conv, err = uc.load(ctx, actor, messageID)
		if err != nil {
			return err
		}
		if err := msg.RejectOffer(actor.UserID); err != nil {
			return err
		}
		return uc.saveOffer(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, signal(conv, "offer_rejected"))
	push(uc.pusher, msg.SenderID, EventOffer, msg)
	return msg, nil
}

func (uc *RespondOfferUseCase) load(ctx context.Context, actor entity.Actor, messageID uuid.UUID) (*entity.Message, *entity.Conversation, error) {
	if actor.IsAnonymous() {
		return nil, nil, apperror.ErrUnauthorized
	}
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	conv, err := uc.convRepo.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if !conv.IsParticipant(actor.UserID) {
		return nil, nil, apperror.ErrForbidden
	}
	return msg, conv, nil
}

func (uc *RespondOfferUseCase) saveOffer(ctx context.Context, msg *entity.Message) error {
	if err := uc.msgRepo.UpdateOffer(ctx, msg, valueobject.OfferStatusPending); err != nil {
		return apperror.Database(err, "не удалось обновить оффер")
	}
	return nil
}
