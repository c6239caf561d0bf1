package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_MapsHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, New(ErrCodeNotFound, "x").HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, New(ErrCodeValidation, "x").HTTPStatus)
	assert.Equal(t, http.StatusForbidden, New(ErrCodeForbidden, "x").HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, New(ErrCodePayment, "x").HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, New(ErrCodeDatabaseError, "x").HTTPStatus)
}

func TestAs_UnwrapsChain(t *testing.T) {
	cause := errors.New("stripe down")
	err := fmt.Errorf("payment service: %w", Wrap(cause, ErrCodePayment, "платёжный сервис недоступен"))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, ErrCodePayment, appErr.Code)
	assert.ErrorIs(t, err, cause)

	_, ok = As(cause)
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(ErrGigNotFound))
	assert.True(t, IsForbidden(ErrForbidden))
	assert.True(t, IsValidation(ErrRevisionLimitReached))
	assert.False(t, IsNotFound(ErrForbidden))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("order service: %w", ErrOrderNotFound)
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
}
