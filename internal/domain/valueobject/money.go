package valueobject

import (
	"fmt"

	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// DefaultCurrency площадка работает в иенах, суммы хранятся целыми.
const DefaultCurrency = "JPY"

// MaxAmount верхняя граница любой суммы на площадке.
const MaxAmount int64 = 100_000_000

type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.Validation("сумма не может быть отрицательной")
	}
	if amount > MaxAmount {
		return Money{}, apperror.Validation("сумма превышает допустимый максимум")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewPositiveMoney то же, что NewMoney, но ноль запрещён.
func NewPositiveMoney(amount int64) (Money, error) {
	if amount <= 0 {
		return Money{}, apperror.Validation("сумма должна быть больше нуля")
	}
	return NewMoney(amount, DefaultCurrency)
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
