package service

import (
	"errors"

	"github.com/ignatzorin/gig-marketplace/internal/payment"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/storage"
)

// mapError переводит ошибки хранилища и шлюза в ошибки приложения.
// Уже готовые AppError возвращаются без изменений.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrGigNotFound):
		return apperror.ErrGigNotFound
	case errors.Is(err, repository.ErrOrderNotFound):
		return apperror.ErrOrderNotFound
	case errors.Is(err, repository.ErrConversationNotFound):
		return apperror.ErrConversationNotFound
	case errors.Is(err, repository.ErrMessageNotFound):
		return apperror.ErrMessageNotFound
	case errors.Is(err, repository.ErrNotificationNotFound):
		return apperror.ErrNotificationNotFound
	case errors.Is(err, repository.ErrPayoutMethodNotFound):
		return apperror.ErrPayoutMethodNotFound
	case errors.Is(err, repository.ErrConversationExists):
		return apperror.New(apperror.ErrCodeConflict, "диалог по заказу уже существует")
	case errors.Is(err, repository.ErrSavedGigNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "услуга не найдена в сохранённых")
	case errors.Is(err, repository.ErrEmailTaken):
		return apperror.New(apperror.ErrCodeValidation, "пользователь с таким email уже существует")
	case errors.Is(err, repository.ErrReviewExists):
		return apperror.New(apperror.ErrCodeValidation, "вы уже оставили отзыв на эту услугу")
	case errors.Is(err, repository.ErrGigAlreadySaved):
		return apperror.New(apperror.ErrCodeValidation, "услуга уже сохранена")
	case errors.Is(err, repository.ErrGigHasOrders):
		return apperror.New(apperror.ErrCodeConflict, "нельзя удалить услугу, по которой есть заказы")
	case errors.Is(err, repository.ErrDisputeAlreadyOpen):
		return apperror.New(apperror.ErrCodeValidation, "по заказу уже открыт спор")
	case errors.Is(err, repository.ErrInsufficientFunds):
		return apperror.ErrInsufficientBalance
	case errors.Is(err, repository.ErrPaymentIntentInUse):
		return apperror.New(apperror.ErrCodeConflict, "платёж уже привязан к другому заказу")
	case errors.Is(err, payment.ErrIntentNotFound):
		return apperror.Wrap(err, apperror.ErrCodePayment, "платёж не найден у платёжного провайдера")
	case errors.Is(err, storage.ErrEmptyFile), errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrUnsupportedType):
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return apperror.Wrap(err, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
}

func validationError(msg string) error {
	return apperror.New(apperror.ErrCodeValidation, msg)
}

func forbidden(msg string) error {
	return apperror.New(apperror.ErrCodeForbidden, msg)
}
