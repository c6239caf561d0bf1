package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo        NotificationRepository
	broadcaster Broadcaster
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository, broadcaster Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, broadcaster: broadcasterOrNoop(broadcaster)}
}

// List возвращает страницу уведомлений пользователя и число непрочитанных.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page, limit int, unreadOnly bool) (*models.NotificationPage, error) {
	page, limit, offset := pageWindow(page, limit, 20, 100)

	items, total, err := s.repo.List(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, mapError(err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	return &models.NotificationPage{
		Notifications: items,
		TotalPages:    totalPages(total, limit),
		CurrentPage:   page,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

// MarkAsRead отмечает уведомление пользователя как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return mapError(s.repo.MarkAsRead(ctx, id, userID))
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// Delete удаляет уведомление пользователя.
func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return mapError(s.repo.Delete(ctx, id, userID))
}

// PurgeOlderThan удаляет уведомления, созданные раньше before.
func (s *NotificationService) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, before)
}

// Notify сохраняет уведомление и отправляет его в комнату пользователя.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	emitToUser(s.broadcaster, n.UserID, EventNotification, n)
	return nil
}

// OrderPlaced уведомляет продавца о новом заказе.
func (s *NotificationService) OrderPlaced(ctx context.Context, order *models.Order) {
	s.send(ctx, &models.Notification{
		UserID:     order.SellerID,
		Title:      "New Order Received!",
		Message:    fmt.Sprintf("You received a new order for %q", order.GigTitle),
		Type:       models.NotificationOrderPlaced,
		OrderID:    &order.ID,
		GigID:      &order.GigID,
		FromUserID: &order.BuyerID,
		ActionURL:  actionURL("/freelancer/orders/%s", order.ID),
	})
}

// OrderDelivered уведомляет покупателя о сдаче работы.
func (s *NotificationService) OrderDelivered(ctx context.Context, order *models.Order) {
	s.send(ctx, &models.Notification{
		UserID:     order.BuyerID,
		Title:      "Order Delivered!",
		Message:    fmt.Sprintf("Your order %q has been delivered", order.GigTitle),
		Type:       models.NotificationOrderDelivered,
		OrderID:    &order.ID,
		GigID:      &order.GigID,
		FromUserID: &order.SellerID,
		ActionURL:  actionURL("/client/orders/%s", order.ID),
	})
}

// OrderCompleted уведомляет продавца о завершении заказа.
func (s *NotificationService) OrderCompleted(ctx context.Context, order *models.Order) {
	s.send(ctx, &models.Notification{
		UserID:     order.SellerID,
		Title:      "Order Completed!",
		Message:    fmt.Sprintf("Your order %q has been completed and payment released", order.GigTitle),
		Type:       models.NotificationOrderCompleted,
		OrderID:    &order.ID,
		GigID:      &order.GigID,
		FromUserID: &order.BuyerID,
		ActionURL:  actionURL("/freelancer/orders/%s", order.ID),
	})
}

// OrderCancelled уведомляет вторую сторону об отмене заказа.
func (s *NotificationService) OrderCancelled(ctx context.Context, order *models.Order, cancelledBy uuid.UUID, reason string) {
	recipient := order.Counterparty(cancelledBy)
	path := "/client/orders/%s"
	if recipient == order.SellerID {
		path = "/freelancer/orders/%s"
	}
	msg := fmt.Sprintf("Order %q has been cancelled", order.GigTitle)
	if reason != "" {
		msg += ". Reason: " + reason
	}
	s.send(ctx, &models.Notification{
		UserID:     recipient,
		Title:      "Order Cancelled",
		Message:    msg,
		Type:       models.NotificationOrderCancelled,
		OrderID:    &order.ID,
		GigID:      &order.GigID,
		FromUserID: &cancelledBy,
		ActionURL:  actionURL(path, order.ID),
		Metadata:   metadata(map[string]interface{}{"reason": reason}),
	})
}

// PaymentReceived уведомляет продавца о поступлении оплаты.
func (s *NotificationService) PaymentReceived(ctx context.Context, order *models.Order, amount float64) {
	url := "/freelancer/earnings"
	s.send(ctx, &models.Notification{
		UserID:     order.SellerID,
		Title:      "Payment Received!",
		Message:    fmt.Sprintf("You received $%.2f for %q", amount, order.GigTitle),
		Type:       models.NotificationPaymentReceived,
		OrderID:    &order.ID,
		GigID:      &order.GigID,
		FromUserID: &order.BuyerID,
		ActionURL:  &url,
		Metadata:   metadata(map[string]interface{}{"amount": amount}),
	})
}

// MessageReceived уведомляет остальных участников диалога о новом сообщении.
func (s *NotificationService) MessageReceived(ctx context.Context, conv *models.Conversation, senderID uuid.UUID, content string) {
	preview := []rune(content)
	text := content
	if len(preview) > 50 {
		text = string(preview[:50]) + "..."
	}
	url := "/messages?conversationId=" + conv.ID.String()
	for _, participant := range conv.Participants {
		if participant == senderID {
			continue
		}
		s.send(ctx, &models.Notification{
			UserID:     participant,
			Title:      "New Message",
			Message:    fmt.Sprintf("You have a new message: %q", text),
			Type:       models.NotificationMessageReceived,
			OrderID:    conv.OrderID,
			FromUserID: &senderID,
			ActionURL:  &url,
			Metadata:   metadata(map[string]interface{}{"conversationId": conv.ID}),
		})
	}
}

// ReviewReceived уведомляет продавца о новом отзыве на услугу.
func (s *NotificationService) ReviewReceived(ctx context.Context, gig *models.Gig, review *models.GigReview) {
	s.send(ctx, &models.Notification{
		UserID:     gig.SellerID,
		Title:      "New Review!",
		Message:    fmt.Sprintf("%s rated your gig %q %d stars", review.UserName, gig.Title, review.Rating),
		Type:       models.NotificationReviewReceived,
		GigID:      &gig.ID,
		FromUserID: &review.UserID,
		ActionURL:  actionURL("/gigs/%s", gig.ID),
		Metadata:   metadata(map[string]interface{}{"rating": review.Rating}),
	})
}

// send не прерывает основную операцию: ошибка только логируется.
func (s *NotificationService) send(ctx context.Context, n *models.Notification) {
	if err := s.Notify(ctx, n); err != nil {
		logger.Component("notifications").
			WithError(err).
			WithField("user_id", n.UserID).
			WithField("type", n.Type).
			Warn("failed to create notification")
	}
}

func actionURL(format string, id uuid.UUID) *string {
	url := fmt.Sprintf(format, id)
	return &url
}

func metadata(v map[string]interface{}) models.RawJSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
