package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/validation"
)

type Listing struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	Title       string
	Description string
	Price       valueobject.Money
	Category    string
	Metadata    ListingMetadata
	PreviewURL  *string
	Status      valueobject.ListingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListingMetadata хранится как JSON: срок и платные опции.
type ListingMetadata struct {
	DeliveryDays int     `json:"delivery_days,omitempty"`
	AddOns       []AddOn `json:"add_ons,omitempty"`
}

type AddOn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}

func NewListing(sellerID uuid.UUID, title, description string, price int64, category string, meta ListingMetadata, previewURL *string) (*Listing, error) {
	l := &Listing{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Status:     valueobject.ListingStatusActive,
		PreviewURL: previewURL,
		CreatedAt:  time.Now(),
	}
	if err := l.apply(title, description, price, category, meta); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Listing) Update(title, description string, price int64, category string, meta ListingMetadata, previewURL *string) error {
	if l.Status == valueobject.ListingStatusBanned {
		return apperror.New(apperror.ErrCodeForbidden, "заблокированное объявление нельзя редактировать")
	}
	if err := l.apply(title, description, price, category, meta); err != nil {
		return err
	}
	if previewURL != nil {
		l.PreviewURL = previewURL
	}
	return nil
}

func (l *Listing) apply(title, description string, price int64, category string, meta ListingMetadata) error {
	title = strings.TrimSpace(title)
	if err := validation.ValidateLength("название", title, validation.MinTitleLength, validation.MaxTitleLength); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("описание", description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
		return apperror.Validation(err.Error())
	}
	if strings.TrimSpace(category) == "" {
		return apperror.Validation("категория обязательна")
	}
	money, err := valueobject.NewPositiveMoney(price)
	if err != nil {
		return err
	}
	if meta.DeliveryDays < 0 {
		return apperror.Validation("срок выполнения не может быть отрицательным")
	}
	seen := make(map[string]struct{}, len(meta.AddOns))
	for _, a := range meta.AddOns {
		if a.ID == "" || a.Title == "" {
			return apperror.Validation("у опции должны быть id и название")
		}
		if a.Price < 0 {
			return apperror.Validation("цена опции не может быть отрицательной")
		}
		if _, dup := seen[a.ID]; dup {
			return apperror.Validation("id опций должны быть уникальны")
		}
		seen[a.ID] = struct{}{}
	}

	l.Title = title
	l.Description = description
	l.Price = money
	l.Category = strings.TrimSpace(category)
	l.Metadata = meta
	l.UpdatedAt = time.Now()
	return nil
}

// Quote считает итоговую цену по выбранным опциям.
func (l *Listing) Quote(addOnIDs []string) (valueobject.Money, []AddOn, error) {
	total := l.Price
	selected := make([]AddOn, 0, len(addOnIDs))
	seen := make(map[string]struct{}, len(addOnIDs))

	for _, id := range addOnIDs {
		if _, dup := seen[id]; dup {
			return valueobject.Money{}, nil, apperror.Validation("опция выбрана дважды: " + id)
		}
		seen[id] = struct{}{}

		addOn, ok := l.findAddOn(id)
		if !ok {
			return valueobject.Money{}, nil, apperror.Validation("неизвестная опция: " + id)
		}
		total = total.Add(valueobject.Money{Amount: addOn.Price, Currency: total.Currency})
		selected = append(selected, addOn)
	}

	if total.Amount > valueobject.MaxAmount {
		return valueobject.Money{}, nil, apperror.Validation("сумма превышает допустимый максимум")
	}
	return total, selected, nil
}

func (l *Listing) findAddOn(id string) (AddOn, bool) {
	for _, a := range l.Metadata.AddOns {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// Moderate меняет статус от имени администратора.
func (l *Listing) Moderate(status valueobject.ListingStatus) {
	l.Status = status
	l.UpdatedAt = time.Now()
}

func (l *Listing) Archive() {
	l.Status = valueobject.ListingStatusArchived
	l.UpdatedAt = time.Now()
}

func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.SellerID == userID
}

// VisibleTo активные объявления видны всем, остальные только владельцу и администратору.
func (l *Listing) VisibleTo(actor Actor) bool {
	return l.Status == valueobject.ListingStatusActive || actor.IsAdmin || l.IsOwnedBy(actor.UserID)
}
