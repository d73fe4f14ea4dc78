package entity

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// Actor тот, от чьего имени выполняется операция. Передаётся в каждый use case явно.
type Actor struct {
	UserID  uuid.UUID
	Role    valueobject.Role
	IsAdmin bool
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil
}

// RequireRole проверяет, что пользователь прошёл онбординг с нужной ролью.
func (a Actor) RequireRole(role valueobject.Role) error {
	if a.IsAnonymous() {
		return apperror.ErrUnauthorized
	}
	if a.Role == valueobject.RoleNone {
		return apperror.ErrRoleRequired
	}
	if a.Role != role {
		return apperror.New(apperror.ErrCodeForbidden, "действие доступно только роли "+string(role))
	}
	return nil
}

// RequireOnboarded проверяет только наличие выбранной роли.
func (a Actor) RequireOnboarded() error {
	if a.IsAnonymous() {
		return apperror.ErrUnauthorized
	}
	if a.Role == valueobject.RoleNone && !a.IsAdmin {
		return apperror.ErrRoleRequired
	}
	return nil
}
