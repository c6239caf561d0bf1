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
	MinDisplayNameLength    = 2
	MaxDisplayNameLength    = 100
	MinGigTitleLength       = 5
	MaxGigTitleLength       = 200
	MinGigDescriptionLength = 20
	MaxGigDescriptionLength = 5000
	MaxCategoryLength       = 100
	MinGigPrice             = 1.0
	MaxGigPrice             = 10000000.0
	MinDeliveryDays         = 1
	MaxDeliveryDays         = 90
	MinRating               = 1
	MaxRating               = 5
	MaxReviewLength         = 2000
	MaxRequirementsLength   = 5000
	MaxReasonLength         = 1000
	MaxBioLength            = 1000
	MaxLocationLength       = 100
	MinMessageLength        = 1
	MaxMessageLength        = 5000
	MaxURLLength            = 500
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	// Базовая проверка формата
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	// Проверка на валидные символы в локальной части
	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	// Проверка на валидные символы в доменной части
	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("поле «%s» не может быть пустым", fieldName)
	}
	return nil
}

// ValidateGigTitle проверяет заголовок услуги.
func ValidateGigTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("название услуги обязательно")
	}
	return ValidateLength("название услуги", title, MinGigTitleLength, MaxGigTitleLength)
}

// ValidateGigDescription проверяет описание услуги.
func ValidateGigDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("описание услуги обязательно")
	}
	return ValidateLength("описание услуги", description, MinGigDescriptionLength, MaxGigDescriptionLength)
}

// ValidateGigPrice проверяет цену услуги в рупиях.
func ValidateGigPrice(price float64) error {
	if price < MinGigPrice {
		return fmt.Errorf("цена должна быть не меньше %.0f", MinGigPrice)
	}
	if price > MaxGigPrice {
		return fmt.Errorf("цена не может превышать %.0f", MaxGigPrice)
	}
	return nil
}

// ValidateDeliveryTime проверяет срок выполнения в днях.
func ValidateDeliveryTime(days int) error {
	if days < MinDeliveryDays || days > MaxDeliveryDays {
		return fmt.Errorf("срок выполнения должен быть от %d до %d дней", MinDeliveryDays, MaxDeliveryDays)
	}
	return nil
}

// ValidateRating проверяет оценку отзыва.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("рейтинг должен быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateReviewComment проверяет текст отзыва.
func ValidateReviewComment(comment string) error {
	comment = strings.TrimSpace(comment)
	if err := ValidateNonEmpty("текст отзыва", comment); err != nil {
		return err
	}
	return ValidateLength("текст отзыва", comment, 0, MaxReviewLength)
}

// ValidateReason проверяет причину отмены, доработки или спора.
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if err := ValidateNonEmpty("причина", reason); err != nil {
		return err
	}
	return ValidateLength("причина", reason, 0, MaxReasonLength)
}

// ValidateLocation проверяет местоположение.
func ValidateLocation(location *string) error {
	if location != nil && *location != "" {
		loc := strings.TrimSpace(*location)
		if err := ValidateLength("местоположение", loc, 0, MaxLocationLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBio проверяет описание профиля.
func ValidateBio(bio *string) error {
	if bio != nil && *bio != "" {
		bioStr := strings.TrimSpace(*bio)
		if err := ValidateLength("описание профиля", bioStr, 0, MaxBioLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateURL проверяет ссылку на аватар или изображение.
func ValidateURL(link *string) error {
	if link != nil && *link != "" {
		linkStr := strings.TrimSpace(*link)

		if err := ValidateLength("ссылка", linkStr, 0, MaxURLLength); err != nil {
			return err
		}

		parsedURL, err := url.Parse(linkStr)
		if err != nil {
			return fmt.Errorf("некорректный формат URL")
		}

		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("ссылка должна начинаться с http:// или https://")
		}

		if parsedURL.Host == "" {
			return fmt.Errorf("ссылка должна содержать доменное имя")
		}
	}
	return nil
}

// ValidateMessageContent проверяет содержимое сообщения.
func ValidateMessageContent(content string) error {
	if content == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}

	content = strings.TrimSpace(content)

	if err := ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength); err != nil {
		return err
	}

	return nil
}
