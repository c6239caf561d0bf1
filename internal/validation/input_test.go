package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"user@example.com", false},
		{"first.last+tag@sub.example.org", false},
		{"", true},
		{"user.example.com", true},
		{"user@localhost", true},
		{"us er@example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.Error(t, ValidatePassword("Sec1"))
	assert.Error(t, ValidatePassword("secret123"))
	assert.Error(t, ValidatePassword("SECRET123"))
	assert.Error(t, ValidatePassword("SecretPass"))
	assert.Error(t, ValidatePassword("Aa1"+strings.Repeat("x", 70)))
}

func TestValidateRatingAndReason(t *testing.T) {
	assert.NoError(t, ValidateRating(1))
	assert.NoError(t, ValidateRating(5))
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))

	assert.EqualError(t, ValidateReason("   "), "поле «причина» не может быть пустым")
	assert.NoError(t, ValidateReason("Нужна другая цветовая схема"))
}

func TestValidateReviewComment(t *testing.T) {
	assert.EqualError(t, ValidateReviewComment(" \n "), "поле «текст отзыва» не может быть пустым")
	assert.Error(t, ValidateReviewComment(strings.Repeat("а", MaxReviewLength+1)))
	assert.NoError(t, ValidateReviewComment("Отличная работа, всё в срок"))
}

func TestValidateURL(t *testing.T) {
	ok := "https://cdn.example.com/a.png"
	bad := "ftp://cdn.example.com/a.png"
	empty := ""
	assert.NoError(t, ValidateURL(&ok))
	assert.NoError(t, ValidateURL(&empty))
	assert.NoError(t, ValidateURL(nil))
	assert.Error(t, ValidateURL(&bad))
}

func TestValidateGigFields(t *testing.T) {
	assert.NoError(t, ValidateGigTitle("Logo design"))
	assert.Error(t, ValidateGigTitle("Logo"))
	assert.Error(t, ValidateGigPrice(0))
	assert.NoError(t, ValidateDeliveryTime(3))
	assert.Error(t, ValidateDeliveryTime(0))
}
