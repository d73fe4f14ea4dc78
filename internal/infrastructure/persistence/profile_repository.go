package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

const profileColumns = `id, role, display_name, bio, avatar_url, skills, created_at, updated_at`

type profileRow struct {
	ID          uuid.UUID      `db:"id"`
	Role        string         `db:"role"`
	DisplayName string         `db:"display_name"`
	Bio         string         `db:"bio"`
	AvatarURL   *string        `db:"avatar_url"`
	Skills      pq.StringArray `db:"skills"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create повторное создание при гонке первых входов не считается ошибкой.
func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		p.ID, string(p.Role), p.DisplayName, p.Bio, p.AvatarURL, pq.StringArray(p.Skills), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать профиль")
	}
	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2, bio = $3, avatar_url = $4, skills = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.DisplayName, p.Bio, p.AvatarURL, pq.StringArray(p.Skills), p.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить профиль")
	}
	return requireAffected(res, apperror.ErrProfileNotFound)
}

// SetRole пишет роль только пока она пустая.
func (r *ProfileRepository) SetRole(ctx context.Context, p *entity.Profile) error {
	res, err := executor(ctx, r.db).ExecContext(ctx,
		`UPDATE profiles SET role = $2, updated_at = $3 WHERE id = $1 AND role = ''`,
		p.ID, string(p.Role), p.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить роль")
	}
	return requireAffected(res, apperror.ErrRoleAlreadySet)
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrProfileNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль")
	}

	skills := []string(row.Skills)
	if skills == nil {
		skills = []string{}
	}
	return &entity.Profile{
		ID:          row.ID,
		Role:        valueobject.ParseRole(row.Role),
		DisplayName: row.DisplayName,
		Bio:         row.Bio,
		AvatarURL:   row.AvatarURL,
		Skills:      skills,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

const userColumns = `id, email, password_hash, is_active, last_login_at, created_at, updated_at`

type userRow struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	IsActive     bool       `db:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		LastLoginAt:  r.LastLoginAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.IsActive, u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrEmailTaken
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать пользователя")
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, arg); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить время входа")
	}
	return nil
}

type sessionRow struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	RefreshToken string    `db:"refresh_token"`
	UserAgent    *string   `db:"user_agent"`
	IPAddress    *string   `db:"ip_address"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.UserID, s.RefreshToken, s.UserAgent, s.IPAddress, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать сессию")
	}
	return nil
}

// FindByToken неизвестный токен считается отсутствием авторизации.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*entity.Session, error) {
	var row sessionRow
	query := `SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM sessions WHERE refresh_token = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, token); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сессию")
	}
	return &entity.Session{
		ID:           row.ID,
		UserID:       row.UserID,
		RefreshToken: row.RefreshToken,
		UserAgent:    row.UserAgent,
		IPAddress:    row.IPAddress,
		ExpiresAt:    row.ExpiresAt,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, token); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить сессию")
	}
	return nil
}
