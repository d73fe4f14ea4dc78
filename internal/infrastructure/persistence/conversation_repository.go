package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

const conversationColumns = `c.id, c.participant_a, c.participant_b, c.listing_id, c.job_id, c.created_at, c.updated_at`

type conversationRow struct {
	ID           uuid.UUID  `db:"id"`
	ParticipantA uuid.UUID  `db:"participant_a"`
	ParticipantB uuid.UUID  `db:"participant_b"`
	ListingID    *uuid.UUID `db:"listing_id"`
	JobID        *uuid.UUID `db:"job_id"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r conversationRow) toEntity() *entity.Conversation {
	return &entity.Conversation{
		ID:           r.ID,
		ParticipantA: r.ParticipantA,
		ParticipantB: r.ParticipantB,
		ListingID:    r.ListingID,
		JobID:        r.JobID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, c *entity.Conversation) error {
	query := `
		INSERT INTO conversations (id, participant_a, participant_b, listing_id, job_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.ParticipantA, c.ParticipantB, c.ListingID, c.JobID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать беседу")
	}
	return nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var row conversationRow
	query := `SELECT ` + conversationColumns + ` FROM conversations c WHERE c.id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить беседу")
	}
	return row.toEntity(), nil
}

// FindByParticipants порядок участников не важен. Возвращает nil, если беседы нет.
func (r *ConversationRepository) FindByParticipants(ctx context.Context, a, b uuid.UUID, listingID, jobID *uuid.UUID) (*entity.Conversation, error) {
	var row conversationRow
	query := `
		SELECT ` + conversationColumns + ` FROM conversations c
		WHERE ((c.participant_a = $1 AND c.participant_b = $2) OR (c.participant_a = $2 AND c.participant_b = $1))
		  AND c.listing_id IS NOT DISTINCT FROM $3::uuid
		  AND c.job_id IS NOT DISTINCT FROM $4::uuid
		LIMIT 1
	`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, a, b, listingID, jobID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось найти беседу")
	}
	return row.toEntity(), nil
}

// FindByUserID беседы пользователя с последним сообщением.
func (r *ConversationRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	var rows []struct {
		conversationRow
		LastID        *uuid.UUID `db:"last_id"`
		LastSenderID  *uuid.UUID `db:"last_sender_id"`
		LastContent   *string    `db:"last_content"`
		LastCreatedAt *time.Time `db:"last_created_at"`
	}
	query := `
		SELECT ` + conversationColumns + `,
		       m.id AS last_id, m.sender_id AS last_sender_id, m.content AS last_content, m.created_at AS last_created_at
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, created_at FROM messages
			WHERE conversation_id = c.id ORDER BY created_at DESC LIMIT 1
		) m ON TRUE
		WHERE c.participant_a = $1 OR c.participant_b = $1
		ORDER BY c.updated_at DESC
	`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, userID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить беседы")
	}

	result := make([]*entity.Conversation, 0, len(rows))
	for _, row := range rows {
		conv := row.conversationRow.toEntity()
		if row.LastID != nil {
			conv.LastMessage = &entity.Message{
				ID:             *row.LastID,
				ConversationID: conv.ID,
				SenderID:       *row.LastSenderID,
				Content:        *row.LastContent,
				CreatedAt:      *row.LastCreatedAt,
			}
		}
		result = append(result, conv)
	}
	return result, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить беседу")
	}
	return nil
}

const messageColumns = `id, conversation_id, sender_id, content, offer, created_at`

type messageRow struct {
	ID             uuid.UUID       `db:"id"`
	ConversationID uuid.UUID       `db:"conversation_id"`
	SenderID       uuid.UUID       `db:"sender_id"`
	Content        string          `db:"content"`
	Offer          *types.JSONText `db:"offer"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r messageRow) toEntity() (*entity.Message, error) {
	m := &entity.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
	}
	if r.Offer != nil && len(*r.Offer) > 0 {
		var offer entity.Offer
		if err := r.Offer.Unmarshal(&offer); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждён оффер в сообщении")
		}
		m.Offer = &offer
	}
	return m, nil
}

func marshalOffer(o *entity.Offer) (*types.JSONText, error) {
	if o == nil {
		return nil, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать оффер")
	}
	text := types.JSONText(b)
	return &text, nil
}

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	offer, err := marshalOffer(m.Offer)
	if err != nil {
		return err
	}
	query := `INSERT INTO messages (` + messageColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query,
		m.ID, m.ConversationID, m.SenderID, m.Content, offer, m.CreatedAt); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить сообщение")
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var row messageRow
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrMessageNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сообщение")
	}
	return row.toEntity()
}

// FindByConversationID сообщения в хронологическом порядке.
func (r *MessageRepository) FindByConversationID(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	var c conditions
	c.add("conversation_id = $%d", conversationID)
	tail, args := c.page(limit, offset)

	var rows []messageRow
	query := `SELECT ` + messageColumns + ` FROM messages` + c.where() + ` ORDER BY created_at ASC` + tail
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сообщения")
	}

	result := make([]*entity.Message, 0, len(rows))
	for _, row := range rows {
		m, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

// UpdateOffer меняет статус оффера, только если в базе он всё ещё expected.
func (r *MessageRepository) UpdateOffer(ctx context.Context, m *entity.Message, expected valueobject.OfferStatus) error {
	offer, err := marshalOffer(m.Offer)
	if err != nil {
		return err
	}
	query := `UPDATE messages SET offer = $3 WHERE id = $1 AND offer->>'status' = $2`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, m.ID, string(expected), offer)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить оффер")
	}
	return requireAffected(res, apperror.ErrStaleState)
}
