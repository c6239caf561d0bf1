package validation

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	// bcrypt учитывает только первые 72 байта пароля.
	MaxPasswordBytes = 72
)

// ValidatePassword требует от 8 символов, заглавную и строчную букву и цифру.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.New("пароль должен быть не менее 8 символов")
	}
	if len(password) > MaxPasswordBytes {
		return errors.New("пароль слишком длинный")
	}

	var upper, lower, digit bool
	for _, r := range password {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
		digit = digit || unicode.IsDigit(r)
	}

	switch {
	case !upper:
		return errors.New("пароль должен содержать заглавную букву")
	case !lower:
		return errors.New("пароль должен содержать строчную букву")
	case !digit:
		return errors.New("пароль должен содержать цифру")
	}
	return nil
}
