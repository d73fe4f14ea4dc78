package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinTitleLength        = 3
	MaxTitleLength        = 200
	MinDescriptionLength  = 10
	MaxDescriptionLength  = 5000
	MinProposalLength     = 10
	MaxProposalLength     = 2000
	MinDisplayNameLength  = 2
	MaxDisplayNameLength  = 100
	MaxBioLength          = 1000
	MaxSkillLength        = 50
	MaxSkillsCount        = 30
	MaxMessageLength      = 5000
	MaxFeedbackLength     = 2000
	MaxExternalLinkLength = 500
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	displayNameRegex = regexp.MustCompile(`^[\p{L}0-9\s\-_.,!?()]+$`)
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должно быть не короче %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должно быть не длиннее %d символов", fieldName, max)
	}
	return nil
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	local, domain := parts[0], parts[1]
	if len(local) == 0 || len(local) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domain) == 0 || len(domain) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(local) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domain) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}
	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}
	return nil
}

// NormalizeSkills обрезает пробелы и отбрасывает дубликаты без учёта регистра.
func NormalizeSkills(skills []string) ([]string, error) {
	if len(skills) > MaxSkillsCount {
		return nil, fmt.Errorf("количество навыков не может превышать %d", MaxSkillsCount)
	}

	result := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		if utf8.RuneCountInString(skill) > MaxSkillLength {
			return nil, fmt.Errorf("навык не может быть длиннее %d символов", MaxSkillLength)
		}
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, skill)
	}
	return result, nil
}

// ValidateExternalLink проверяет http(s) ссылку.
func ValidateExternalLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}
	if err := ValidateLength("ссылка", link, 0, MaxExternalLinkLength); err != nil {
		return err
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("некорректный формат URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("ссылка должна начинаться с http:// или https://")
	}
	if parsed.Host == "" {
		return fmt.Errorf("ссылка должна содержать доменное имя")
	}
	return nil
}
