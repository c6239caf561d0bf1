// Package apperror описывает ошибки приложения, которые HTTP слой переводит в ответы.
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
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodePayment       ErrorCode = "PAYMENT_ERROR"
)

// AppError: ошибка бизнес-логики с кодом и HTTP статусом для ответа клиенту.
// Message показывается пользователю, Cause только логируется.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

var httpStatusByCode = map[ErrorCode]int{
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodePayment:      http.StatusBadGateway,
}

// StatusFor возвращает HTTP статус кода. Неизвестные коды дают 500.
func StatusFor(code ErrorCode) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: StatusFor(code)}
}

// Wrap сохраняет исходную ошибку в Cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// As извлекает AppError из цепочки ошибок.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf возвращает код AppError из цепочки или пустую строку.
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool   { return CodeOf(err) == ErrCodeNotFound }
func IsForbidden(err error) bool  { return CodeOf(err) == ErrCodeForbidden }
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

var (
	ErrOrderNotFound        = New(ErrCodeNotFound, "заказ не найден")
	ErrGigNotFound          = New(ErrCodeNotFound, "услуга не найдена")
	ErrConversationNotFound = New(ErrCodeNotFound, "беседа не найдена")
	ErrMessageNotFound      = New(ErrCodeNotFound, "сообщение не найдено")
	ErrNotificationNotFound = New(ErrCodeNotFound, "уведомление не найдено")
	ErrPayoutMethodNotFound = New(ErrCodeNotFound, "способ выплаты не найден")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrRevisionLimitReached = New(ErrCodeValidation, "лимит доработок исчерпан")
	ErrInsufficientBalance  = New(ErrCodeValidation, "недостаточно средств для вывода")
	ErrAlreadyPaid          = New(ErrCodeValidation, "заказ уже оплачен")
)
