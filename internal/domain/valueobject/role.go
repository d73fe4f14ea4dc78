package valueobject

import "github.com/ignatzorin/market-backend/internal/pkg/apperror"

type Role string

const (
	RoleNone       Role = ""
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// NewOnboardingRole роль, которую пользователь может выбрать сам.
func NewOnboardingRole(role string) (Role, error) {
	r := Role(role)
	if r != RoleClient && r != RoleFreelancer {
		return RoleNone, apperror.Validation("роль должна быть client или freelancer")
	}
	return r, nil
}

// ParseRole разбирает роль из хранилища, пустая строка означает «ещё не выбрана».
func ParseRole(role string) Role {
	switch Role(role) {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return Role(role)
	}
	return RoleNone
}
