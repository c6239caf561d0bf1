package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/gig-marketplace/internal/domain/valueobject"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/metrics"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/payment"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
	"github.com/ignatzorin/gig-marketplace/internal/ws"
)

const (
	recentEarningsLimit      = 5
	paymentNotificationLimit = 10
	paymentNotificationSince = 24 * time.Hour
)

// PaymentOrders описывает операции над заказами, нужные платежам.
type PaymentOrders interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(order *models.Order) (*repository.OrderChange, error)) (*models.Order, error)
	ListReleasable(ctx context.Context, deliveredBefore time.Time) ([]models.Order, error)
}

// PaymentReports собирает денежные агрегаты.
type PaymentReports interface {
	SellerEarnings(ctx context.Context, sellerID uuid.UUID, monthStart time.Time) (*repository.EarningsTotals, error)
	RecentSellerOrders(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error)
	PlatformTotals(ctx context.Context) (*repository.PlatformTotals, error)
	RecentPayments(ctx context.Context, userID uuid.UUID, asSeller bool, since time.Time, limit int) ([]models.Order, error)
}

// WithdrawalStore хранит выводы средств.
type WithdrawalStore interface {
	Available(ctx context.Context, sellerID uuid.UUID, sellerShare float64) (float64, error)
	Create(ctx context.Context, w *models.Withdrawal, sellerShare float64) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Withdrawal, error)
}

// DisputeStore хранит споры по заказам.
type DisputeStore interface {
	Create(ctx context.Context, d *models.Dispute, history *models.OrderStatusHistory, msg *models.OrderMessage) error
	HasOpen(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// SystemMessenger пишет системные сообщения в диалог заказа.
type SystemMessenger interface {
	SendSystemMessage(ctx context.Context, order *models.Order, content string, systemData map[string]interface{}) error
}

// PaymentNotifier создаёт уведомления о движении денег.
type PaymentNotifier interface {
	PaymentReceived(ctx context.Context, order *models.Order, amount float64)
	OrderCompleted(ctx context.Context, order *models.Order)
}

// PaymentDeps собирает зависимости PaymentService.
type PaymentDeps struct {
	Orders           PaymentOrders
	Reports          PaymentReports
	Withdrawals      WithdrawalStore
	Disputes         DisputeStore
	Users            SellerAccounts
	Gateway          payment.Gateway
	Escrow           EscrowOps
	Chat             SystemMessenger
	Notifier         PaymentNotifier
	Broadcaster      Broadcaster
	Cache            *CacheService
	Pricing          valueobject.Pricing
	AutoReleaseAfter time.Duration
}

// PaymentService проводит оплату заказов через эскроу и считает заработок продавцов.
type PaymentService struct {
	orders           PaymentOrders
	reports          PaymentReports
	withdrawals      WithdrawalStore
	disputes         DisputeStore
	users            SellerAccounts
	gateway          payment.Gateway
	escrow           EscrowOps
	chat             SystemMessenger
	notifier         PaymentNotifier
	broadcaster      Broadcaster
	cache            *CacheService
	pricing          valueobject.Pricing
	autoReleaseAfter time.Duration
	refs             *shortid.Shortid
	now              func() time.Time
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(deps PaymentDeps) *PaymentService {
	after := deps.AutoReleaseAfter
	if after <= 0 {
		after = 72 * time.Hour
	}
	return &PaymentService{
		orders:           deps.Orders,
		reports:          deps.Reports,
		withdrawals:      deps.Withdrawals,
		disputes:         deps.Disputes,
		users:            deps.Users,
		gateway:          deps.Gateway,
		escrow:           deps.Escrow,
		chat:             deps.Chat,
		notifier:         deps.Notifier,
		broadcaster:      broadcasterOrNoop(deps.Broadcaster),
		cache:            deps.Cache,
		pricing:          deps.Pricing,
		autoReleaseAfter: after,
		refs:             shortid.MustNew(1, shortid.DefaultABC, uint64(time.Now().UnixNano())),
		now:              time.Now,
	}
}

// AutoReleaseAfter возвращает срок, после которого сданный заказ оплачивается автоматически.
func (s *PaymentService) AutoReleaseAfter() time.Duration {
	return s.autoReleaseAfter
}

// CreateIntent авторизует оплату заказа с отложенным списанием.
func (s *PaymentService) CreateIntent(ctx context.Context, orderID, buyerID uuid.UUID) (*models.PaymentIntent, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := checkPayable(order, buyerID); err != nil {
		return nil, err
	}

	split := s.pricing.Split(order.Amount, order.TotalAmount)
	intent, err := s.gateway.Authorize(ctx, payment.AuthorizeRequest{
		AmountCents: split.TotalCents,
		Currency:    payment.DefaultCurrency,
		Description: "Order: " + order.GigTitle,
		Metadata: map[string]string{
			"orderId":      order.ID.String(),
			"buyerId":      order.BuyerID.String(),
			"sellerId":     order.SellerID.String(),
			"platformFee":  strconv.FormatInt(split.PlatformFeeCents, 10),
			"sellerAmount": strconv.FormatInt(split.SellerAmountCents, 10),
		},
	})
	metrics.PaymentOperation("authorize", err)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePayment, "не удалось создать платёж")
	}

	_, err = s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if err := checkPayable(o, buyerID); err != nil {
			return nil, err
		}
		o.PaymentIntentID = &intent.ID
		o.PaymentStatus = models.PaymentStatusProcessing
		return nil, nil
	})
	if err != nil {
		if _, cerr := s.gateway.Cancel(context.Background(), intent.ID); cerr != nil {
			logger.Component("payments").WithError(cerr).WithField("intent_id", intent.ID).Warn("failed to cancel orphaned intent")
		}
		return nil, mapError(err)
	}

	logger.Component("payments").WithField("order_id", orderID).WithField("intent_id", intent.ID).Info("payment intent created")
	return &models.PaymentIntent{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

func checkPayable(o *models.Order, buyerID uuid.UUID) error {
	if o.BuyerID != buyerID {
		return forbidden("оплатить заказ может только покупатель")
	}
	if o.PaymentStatus == models.PaymentStatusPaid || o.PaymentStatus == models.PaymentStatusReleased {
		return apperror.ErrAlreadyPaid
	}
	if o.Status != models.OrderStatusPending {
		return validationError("оплатить можно только заказ, ожидающий оплаты")
	}
	return nil
}

// Confirm списывает авторизованную оплату и запускает заказ в работу.
// Деньги остаются на счёте платформы до приёмки работы.
func (s *PaymentService) Confirm(ctx context.Context, orderID, buyerID uuid.UUID, intentID string) (*models.Order, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, validationError("не указан идентификатор платежа")
	}

	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if err := checkPayable(o, buyerID); err != nil {
			return nil, err
		}
		if o.PaymentIntentID == nil || *o.PaymentIntentID != intentID {
			return nil, validationError("платёж не относится к этому заказу")
		}

		intent, err := s.gateway.Get(ctx, intentID)
		metrics.PaymentOperation("get", err)
		if err != nil {
			return nil, mapError(err)
		}
		if err := s.checkIntentMatches(o, intent); err != nil {
			return nil, err
		}
		if intent.Status != payment.StatusRequiresCapture {
			return nil, validationError("платёж не подтверждён покупателем")
		}
		captured, err := s.gateway.Capture(ctx, intentID)
		metrics.PaymentOperation("capture", err)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodePayment, "не удалось списать оплату")
		}

		from = o.Status
		if err := transition(o, models.OrderStatusActive); err != nil {
			return nil, err
		}
		o.PaymentIntentID = &intentID
		o.PaymentStatus = models.PaymentStatusPaid
		if captured.ChargeID != "" {
			o.ChargeID = &captured.ChargeID
		}

		sellerID := o.SellerID
		text := fmt.Sprintf("Payment confirmed! I'll start working on your order right away. Expected delivery: %d days.", o.DeliveryTime)
		return &repository.OrderChange{
			History: &models.OrderStatusHistory{
				Status: o.Status,
				Note:   "Payment confirmed. Funds held in escrow until delivery.",
			},
			Message: &models.OrderMessage{SenderID: &sellerID, Message: text},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.settled(order, from)
	net := s.pricing.Net(order.Amount)
	now := s.now().UTC()
	emitToUser(s.broadcaster, order.SellerID, EventPaymentReceived, map[string]interface{}{
		"orderId":       order.ID,
		"amount":        order.Amount,
		"netAmount":     net,
		"buyerName":     s.userName(ctx, order.BuyerID),
		"gigTitle":      order.GigTitle,
		"message":       "Payment received! You can start working on the order.",
		"paymentStatus": order.PaymentStatus,
		"timestamp":     now,
	})
	emitToUser(s.broadcaster, order.BuyerID, EventPaymentConfirmed, map[string]interface{}{
		"orderId":       order.ID,
		"amount":        order.TotalAmount,
		"gigTitle":      order.GigTitle,
		"message":       "Payment confirmed! Your order is now active.",
		"paymentStatus": order.PaymentStatus,
		"timestamp":     now,
	})
	s.systemMessage(ctx, order, "Payment confirmed. Funds held in escrow until delivery.", map[string]interface{}{
		"type":   "payment_confirmed",
		"amount": order.TotalAmount,
	})
	s.notifier.PaymentReceived(ctx, order, net)
	return order, nil
}

// checkIntentMatches сверяет намерение процессора с заказом: оно должно быть
// создано для этого заказа и на его полную сумму.
func (s *PaymentService) checkIntentMatches(o *models.Order, intent *payment.Intent) error {
	if intent.Metadata["orderId"] != o.ID.String() {
		return validationError("платёж не относится к этому заказу")
	}
	if intent.AmountCents != s.pricing.Split(o.Amount, o.TotalAmount).TotalCents {
		return validationError("сумма платежа не совпадает с суммой заказа")
	}
	return nil
}

// Release закрывает сданный заказ по решению покупателя и переводит оплату продавцу.
func (s *PaymentService) Release(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if o.BuyerID != buyerID {
			return nil, forbidden("перевести оплату может только покупатель")
		}
		if o.PaymentStatus == models.PaymentStatusReleased {
			return nil, validationError("оплата уже переведена продавцу")
		}
		if o.Status != models.OrderStatusDelivered {
			return nil, validationError("перевести оплату можно только по сданному заказу")
		}
		if o.PaymentStatus != models.PaymentStatusPaid {
			return nil, validationError("заказ не оплачен")
		}
		from = o.Status
		if err := s.complete(ctx, o, "Payment for completed order: "+o.GigTitle); err != nil {
			return nil, err
		}
		return &repository.OrderChange{
			History: &models.OrderStatusHistory{
				Status: o.Status,
				Note:   "Order completed and payment released to seller",
			},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.released(ctx, order, from, "Thank you! Order completed successfully. Payment has been released.",
		map[string]interface{}{"type": "payment_released"})
	return order, nil
}

// complete переводит долю продавца и закрывает заказ. Вызывается под блокировкой заказа.
func (s *PaymentService) complete(ctx context.Context, o *models.Order, description string) error {
	if err := transition(o, models.OrderStatusCompleted); err != nil {
		return err
	}
	if _, err := s.escrow.Release(ctx, o, description); err != nil {
		return err
	}
	completedAt := s.now().UTC()
	o.PaymentStatus = models.PaymentStatusReleased
	o.CompletedAt = &completedAt
	return nil
}

func (s *PaymentService) released(ctx context.Context, order *models.Order, from, text string, systemData map[string]interface{}) {
	s.settled(order, from)
	split := s.pricing.Split(order.Amount, order.TotalAmount)
	emitToUser(s.broadcaster, order.SellerID, EventPaymentReleased, map[string]interface{}{
		"orderId":  order.ID,
		"amount":   float64(split.SellerAmountCents) / 100,
		"gigTitle": order.GigTitle,
		"message":  "Payment has been released to your account!",
	})
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderCompleted, map[string]interface{}{
		"orderId": order.ID,
		"status":  order.Status,
	})
	s.systemMessage(ctx, order, text, systemData)
	s.notifier.OrderCompleted(ctx, order)
}

// Refund отменяет заказ и возвращает покупателю удержанную оплату.
func (s *PaymentService) Refund(ctx context.Context, orderID, userID uuid.UUID, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		if err := validation.ValidateLength("причина", reason, 0, validation.MaxReasonLength); err != nil {
			return nil, validationError(err.Error())
		}
	} else {
		reason = "No reason provided"
	}

	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if !o.IsParticipant(userID) {
			return nil, forbidden("вернуть оплату может только покупатель или продавец")
		}
		switch o.PaymentStatus {
		case models.PaymentStatusRefunded:
			return nil, validationError("оплата уже возвращена")
		case models.PaymentStatusReleased:
			return nil, validationError("оплата уже переведена продавцу")
		}
		if valueobject.OrderStatus(o.Status).IsTerminal() {
			return nil, validationError("заказ уже закрыт")
		}
		if err := s.escrow.Unwind(ctx, o); err != nil {
			return nil, err
		}
		from = o.Status
		if err := transition(o, models.OrderStatusCancelled); err != nil {
			return nil, err
		}
		o.PaymentStatus = models.PaymentStatusRefunded

		return &repository.OrderChange{
			History: &models.OrderStatusHistory{
				Status: o.Status,
				Note:   "Order cancelled and refunded. Reason: " + reason,
			},
			Message: &models.OrderMessage{
				Message:  "Order cancelled and refund processed. Reason: " + reason,
				IsSystem: true,
			},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.settled(order, from)
	emitToUser(s.broadcaster, order.BuyerID, EventPaymentRefunded, map[string]interface{}{
		"orderId":  order.ID,
		"amount":   order.TotalAmount,
		"gigTitle": order.GigTitle,
		"reason":   reason,
	})
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderCancelled, map[string]interface{}{
		"orderId":     order.ID,
		"reason":      reason,
		"cancelledBy": userID,
	})
	return order, nil
}

// OpenDispute открывает спор по заказу. Открытый спор останавливает автоматическую выплату.
func (s *PaymentService) OpenDispute(ctx context.Context, orderID, userID uuid.UUID, reason, description string) (*models.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateReason(reason); err != nil {
		return nil, validationError(err.Error())
	}
	desc := optionalString(description)
	if desc != nil {
		if err := validation.ValidateLength("описание", *desc, 0, validation.MaxRequirementsLength); err != nil {
			return nil, validationError(err.Error())
		}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !order.IsParticipant(userID) {
		return nil, forbidden("открыть спор может только покупатель или продавец")
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, validationError("нельзя открыть спор по отменённому заказу")
	}

	text := fmt.Sprintf("⚠️ A dispute has been opened for this order. Reason: %s. Our support team will review this case.", reason)
	dispute := &models.Dispute{
		OrderID:     order.ID,
		InitiatorID: userID,
		Reason:      reason,
		Description: desc,
		Status:      models.DisputeStatusOpen,
	}
	err = s.disputes.Create(ctx, dispute,
		&models.OrderStatusHistory{Status: models.OrderStatusDisputed, Note: "Dispute opened: " + reason},
		&models.OrderMessage{Message: text, IsSystem: true},
	)
	if err != nil {
		return nil, mapError(err)
	}

	s.systemMessage(ctx, order, text, map[string]interface{}{
		"type":        "dispute_opened",
		"reason":      reason,
		"description": description,
	})
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventDisputeOpened, map[string]interface{}{
		"orderId":   order.ID,
		"disputeId": dispute.ID,
		"reason":    reason,
		"openedBy":  userID,
	})
	logger.Component("payments").WithField("order_id", order.ID).WithField("dispute_id", dispute.ID).Warn("dispute opened")
	return dispute, nil
}

// ReleaseDue выплачивает продавцам заказы, сданные раньше deliveredBefore и
// не оспоренные покупателем. Ошибка по одному заказу не останавливает остальные.
func (s *PaymentService) ReleaseDue(ctx context.Context, deliveredBefore time.Time) (int, error) {
	orders, err := s.orders.ListReleasable(ctx, deliveredBefore)
	if err != nil {
		return 0, mapError(err)
	}

	log := logger.Component("auto_release")
	hours := int(s.autoReleaseAfter.Hours())
	released, failed := 0, 0
	for _, candidate := range orders {
		if err := ctx.Err(); err != nil {
			break
		}
		entry := log.WithField("order_id", candidate.ID)

		open, err := s.disputes.HasOpen(ctx, candidate.ID)
		if err != nil {
			failed++
			entry.WithError(err).Error("dispute check failed")
			continue
		}
		if open {
			continue
		}

		var from string
		order, err := s.orders.Mutate(ctx, candidate.ID, func(o *models.Order) (*repository.OrderChange, error) {
			if o.Status != models.OrderStatusDelivered || o.PaymentStatus != models.PaymentStatusPaid {
				return nil, errAlreadyHandled
			}
			// Спор мог открыться после HasOpen; флаг прочитан под блокировкой строки.
			if o.HasOpenDispute {
				return nil, errAlreadyHandled
			}
			from = o.Status
			if err := s.complete(ctx, o, "Auto-released payment for order: "+o.GigTitle); err != nil {
				return nil, err
			}
			return &repository.OrderChange{
				History: &models.OrderStatusHistory{
					Status: o.Status,
					Note:   fmt.Sprintf("Payment auto-released after %d hours", hours),
				},
			}, nil
		})
		if errors.Is(err, errAlreadyHandled) {
			continue
		}
		if err != nil {
			failed++
			entry.WithError(err).Error("auto-release failed")
			continue
		}

		released++
		s.released(ctx, order, from,
			"✅ Payment has been automatically released to the seller after the review period.",
			map[string]interface{}{"type": "auto_release"})
		entry.Info("payment auto-released")
	}

	metrics.AutoRelease(released, failed)
	return released, nil
}

var errAlreadyHandled = apperror.New(apperror.ErrCodeConflict, "заказ уже обработан")

// Earnings возвращает сводку заработка продавца за вычетом комиссии.
func (s *PaymentService) Earnings(ctx context.Context, sellerID uuid.UUID) (*models.Earnings, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	share := s.sellerShare()

	var (
		totals    *repository.EarningsTotals
		available float64
		recent    []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.reports.SellerEarnings(gctx, sellerID, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		available, err = s.withdrawals.Available(gctx, sellerID, share)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.reports.RecentSellerOrders(gctx, sellerID, recentEarningsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapError(err)
	}

	recentOrders := make([]models.EarningsOrder, 0, len(recent))
	for _, o := range recent {
		recentOrders = append(recentOrders, models.EarningsOrder{Order: o, NetAmount: s.pricing.Net(o.Amount)})
	}
	return &models.Earnings{
		TotalEarnings:          valueobject.RoundCents(totals.Released * share),
		MonthlyEarnings:        valueobject.RoundCents(totals.ReleasedMonthly * share),
		PendingEarnings:        valueobject.RoundCents(totals.Paid * share),
		AvailableForWithdrawal: valueobject.RoundCents(math.Max(available, 0)),
		CompletedOrders:        totals.CompletedOrders,
		PendingOrders:          totals.PendingOrders,
		RecentOrders:           recentOrders,
	}, nil
}

// History возвращает платёжную историю: заказы клиента или продавца.
func (s *PaymentService) History(ctx context.Context, userID uuid.UUID, role, paymentStatus string, page, limit int) (*models.OrderPage, error) {
	paymentStatus = strings.TrimSpace(paymentStatus)
	if paymentStatus != "" {
		if _, ok := models.ValidPaymentStatuses[paymentStatus]; !ok {
			return nil, validationError("неизвестный статус оплаты")
		}
	}
	page, limit, offset := pageWindow(page, limit, 20, 100)
	filter := models.OrderFilter{PaymentStatus: paymentStatus, Limit: limit, Offset: offset}
	if role == models.RoleClient {
		filter.BuyerID = &userID
	} else {
		filter.SellerID = &userID
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return &models.OrderPage{Orders: orders, TotalPages: totalPages(total, limit), CurrentPage: page, Total: total}, nil
}

// WithdrawInput: запрос на вывод средств.
type WithdrawInput struct {
	Amount         float64
	Method         string
	PayoutMethodID *uuid.UUID
}

// Withdraw выводит доступные средства продавца. Выплата фиксируется сразу
// как завершённая, реальный перевод на реквизиты не выполняется.
func (s *PaymentService) Withdraw(ctx context.Context, sellerID uuid.UUID, in WithdrawInput) (*models.Withdrawal, error) {
	amount := valueobject.RoundCents(in.Amount)
	if amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return nil, validationError("сумма вывода должна быть больше нуля")
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = models.WithdrawalMethodBankTransfer
	}
	ref, err := s.refs.Generate()
	if err != nil {
		return nil, mapError(err)
	}

	processed := s.now().UTC()
	w := &models.Withdrawal{
		SellerID:       sellerID,
		Reference:      "WD-" + ref,
		Amount:         amount,
		Method:         method,
		PayoutMethodID: in.PayoutMethodID,
		Status:         models.WithdrawalStatusCompleted,
		ProcessedAt:    &processed,
	}
	if err := s.withdrawals.Create(ctx, w, s.sellerShare()); err != nil {
		return nil, mapError(err)
	}
	logger.Component("payments").WithField("seller_id", sellerID).WithField("reference", w.Reference).
		WithField("amount", amount).Info("withdrawal recorded")
	return w, nil
}

// Withdrawals возвращает выводы продавца.
func (s *PaymentService) Withdrawals(ctx context.Context, sellerID uuid.UUID) ([]models.Withdrawal, error) {
	list, err := s.withdrawals.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

// PlatformStats возвращает оборот и комиссию платформы.
func (s *PaymentService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	totals, err := s.reports.PlatformTotals(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	stats := &models.PlatformStats{
		TotalOrders:     totals.TotalOrders,
		CompletedOrders: totals.CompletedOrders,
		TotalRevenue:    valueobject.RoundCents(totals.ReleasedTotal),
		PlatformFees:    s.pricing.Fee(totals.ReleasedAmount),
	}
	if totals.TotalOrders > 0 {
		stats.CompletionRate = valueobject.RoundCents(float64(totals.CompletedOrders) / float64(totals.TotalOrders) * 100)
	}
	return stats, nil
}

// Notifications возвращает события оплаты за последние сутки.
func (s *PaymentService) Notifications(ctx context.Context, userID uuid.UUID, role string) ([]models.PaymentNotification, error) {
	asSeller := role == models.RoleFreelancer
	orders, err := s.reports.RecentPayments(ctx, userID, asSeller, s.now().Add(-paymentNotificationSince), paymentNotificationLimit)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]models.PaymentNotification, 0, len(orders))
	for _, o := range orders {
		n := models.PaymentNotification{
			ID:            o.ID,
			GigTitle:      o.GigTitle,
			PaymentStatus: o.PaymentStatus,
			Timestamp:     o.UpdatedAt,
		}
		if asSeller {
			n.Type = "payment_received"
			n.Title = "Payment Received"
			n.Amount = s.pricing.Net(o.Amount)
			n.Message = fmt.Sprintf("You received $%.2f for %q", n.Amount, o.GigTitle)
		} else {
			n.Type = "payment_sent"
			n.Title = "Payment Sent"
			n.Amount = o.TotalAmount
			n.Message = fmt.Sprintf("Payment of $%.2f sent for %q", n.Amount, o.GigTitle)
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *PaymentService) sellerShare() float64 {
	return (100 - s.pricing.FeePercent) / 100
}

func (s *PaymentService) settled(order *models.Order, from string) {
	if from != "" && from != order.Status {
		metrics.OrderTransition(from, order.Status)
	}
	if s.cache != nil {
		s.cache.InvalidateOrderStats(order.BuyerID, order.SellerID)
	}
	logger.Component("payments").
		WithField("order_id", order.ID).
		WithField("status", order.Status).
		WithField("payment_status", order.PaymentStatus).
		Info("order payment updated")
}

func (s *PaymentService) systemMessage(ctx context.Context, order *models.Order, text string, data map[string]interface{}) {
	if s.chat == nil {
		return
	}
	if err := s.chat.SendSystemMessage(ctx, order, text, data); err != nil {
		logger.Component("payments").WithError(err).WithField("order_id", order.ID).Warn("failed to post system message")
	}
}

func (s *PaymentService) userName(ctx context.Context, id uuid.UUID) string {
	if s.users == nil {
		return ""
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.Name
}
