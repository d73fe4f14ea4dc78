package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/usecase/profile"
	"github.com/ignatzorin/market-backend/internal/validation"
)

// AuthService инкапсулирует регистрацию, вход и ротацию сессий.
type AuthService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	profiles     repository.ProfileRepository
	tokenManager *TokenManager
}

// Credentials email и пароль для регистрации и входа.
type Credentials struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *entity.User
	Profile   *entity.Profile
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, profiles repository.ProfileRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		profiles:     profiles,
		tokenManager: tokenManager,
	}
}

// SignUp создаёт пользователя и сразу выполняет вход.
func (s *AuthService) SignUp(ctx context.Context, in Credentials, meta map[string]string) (*AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(passHash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperror.Database(err, "не удалось создать пользователя")
	}

	return s.startSession(ctx, user, meta)
}

// SignIn проверяет учётные данные и возвращает токены.
func (s *AuthService) SignIn(ctx context.Context, in Credentials, meta map[string]string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		// вход не прерываем
		logger.Log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	return s.startSession(ctx, user, meta)
}

// SignOut удаляет refresh-сессию.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.sessions.DeleteByToken(ctx, refreshToken); err != nil {
		return apperror.Database(err, "не удалось завершить сессию")
	}
	return nil
}

// Refresh выпускает новую пару токенов, старая сессия удаляется.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta map[string]string) (*TokenPair, error) {
	userID, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	session, err := s.sessions.FindByToken(ctx, oldToken)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID || time.Now().After(session.ExpiresAt) {
		return nil, apperror.ErrUnauthorized
	}
	if err := s.sessions.DeleteByToken(ctx, oldToken); err != nil {
		return nil, apperror.Database(err, "не удалось удалить сессию")
	}

	pair, err := s.issue(ctx, userID, meta)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) startSession(ctx context.Context, user *entity.User, meta map[string]string) (*AuthResult, error) {
	pair, err := s.issue(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}
	p, err := s.ensureProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Profile: p, TokenPair: pair}, nil
}

func (s *AuthService) issue(ctx context.Context, userID uuid.UUID, meta map[string]string) (*TokenPair, error) {
	pair, _, refreshExp, err := s.tokenManager.GeneratePair(userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	session := &entity.Session{
		ID:           uuid.New(),
		UserID:       userID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
		CreatedAt:    time.Now(),
	}
	if ua, ok := meta["user_agent"]; ok {
		session.UserAgent = &ua
	}
	if ip, ok := meta["ip"]; ok {
		session.IPAddress = &ip
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperror.Database(err, "не удалось создать сессию")
	}
	return pair, nil
}

// ensureProfile при первом входе создаёт профиль без роли.
func (s *AuthService) ensureProfile(ctx context.Context, user *entity.User) (*entity.Profile, error) {
	p, err := s.profiles.FindByID(ctx, user.ID)
	if err == nil {
		return p, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	p = entity.NewProfile(user.ID, profile.DefaultDisplayName(user.Email))
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, apperror.Database(err, "не удалось создать профиль")
	}
	return p, nil
}
