package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/validation"
)

// Profile публичные данные пользователя. ID совпадает с ID пользователя.
type Profile struct {
	ID          uuid.UUID
	Role        valueobject.Role
	DisplayName string
	Bio         string
	AvatarURL   *string
	Skills      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProfile(userID uuid.UUID, displayName string) *Profile {
	now := time.Now()
	return &Profile{
		ID:          userID,
		Role:        valueobject.RoleNone,
		DisplayName: displayName,
		Skills:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ChooseRole онбординг: роль выбирается один раз.
func (p *Profile) ChooseRole(role valueobject.Role) error {
	if p.Role != valueobject.RoleNone {
		return apperror.ErrRoleAlreadySet
	}
	p.Role = role
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Profile) Update(displayName, bio string, avatarURL *string, skills []string) error {
	displayName = strings.TrimSpace(displayName)
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("о себе", bio, 0, validation.MaxBioLength); err != nil {
		return apperror.Validation(err.Error())
	}
	cleaned, err := validation.NormalizeSkills(skills)
	if err != nil {
		return apperror.Validation(err.Error())
	}

	p.DisplayName = displayName
	p.Bio = bio
	if avatarURL != nil {
		p.AvatarURL = avatarURL
	}
	p.Skills = cleaned
	p.UpdatedAt = time.Now()
	return nil
}
