package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation короткий конструктор для ошибок валидации входных данных.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Database оборачивает ошибку хранилища. Уже типизированные ошибки возвращаются как есть.
func Database(err error, message string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(err, ErrCodeDatabaseError, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для чужих ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeConflict
}

func IsInvalidState(err error) bool {
	return CodeOf(err) == ErrCodeInvalidState
}

var (
	ErrListingNotFound      = New(ErrCodeNotFound, "объявление не найдено")
	ErrJobNotFound          = New(ErrCodeNotFound, "задание не найдено")
	ErrBidNotFound          = New(ErrCodeNotFound, "отклик не найден")
	ErrOrderNotFound        = New(ErrCodeNotFound, "заказ не найден")
	ErrReviewNotFound       = New(ErrCodeNotFound, "отзыв не найден")
	ErrConversationNotFound = New(ErrCodeNotFound, "беседа не найдена")
	ErrMessageNotFound      = New(ErrCodeNotFound, "сообщение не найдено")
	ErrProfileNotFound      = New(ErrCodeNotFound, "профиль не найден")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrWalletNotFound       = New(ErrCodeNotFound, "кошелёк не найден")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверный email или пароль")

	ErrAlreadyBid       = New(ErrCodeConflict, "already bid: вы уже откликнулись на это задание")
	ErrAlreadyReviewed  = New(ErrCodeConflict, "already submitted: вы уже оставили отзыв")
	ErrRoleAlreadySet   = New(ErrCodeConflict, "роль уже выбрана")
	ErrEmailTaken       = New(ErrCodeConflict, "email уже зарегистрирован")
	ErrHirePending      = New(ErrCodeConflict, "оплата найма по этому отклику уже начата")
	ErrStaleState       = New(ErrCodeConflict, "запись изменилась, обновите страницу и повторите")
	ErrRoleRequired     = New(ErrCodeForbidden, "сначала выберите роль в профиле")
	ErrInsufficientFund = New(ErrCodeValidation, "недостаточно средств")
)
