package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/gig-marketplace/internal/domain/valueobject"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/metrics"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/storage"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
	"github.com/ignatzorin/gig-marketplace/internal/ws"
)

const (
	statsCacheTTL      = 30 * time.Second
	recentOrdersLimit  = 5
	defaultMaxFiles    = 5
	defaultOrdersLimit = 10
)

// OrderStore описывает хранилище заказов.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order, note string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LoadDetails(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	BuyerCounters(ctx context.Context, buyerID uuid.UUID) (*repository.OrderCounters, error)
	SellerCounters(ctx context.Context, sellerID uuid.UUID) (*repository.OrderCounters, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(order *models.Order) (*repository.OrderChange, error)) (*models.Order, error)
	AddMessage(ctx context.Context, msg *models.OrderMessage) error
	ListFiles(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryFile, error)
}

// OrderParties загружает краткие карточки сторон заказов.
type OrderParties interface {
	ListShort(ctx context.Context, ids []uuid.UUID) ([]models.UserShort, error)
}

// OrderChat дублирует сообщения ленты заказа в диалог заказа.
type OrderChat interface {
	MirrorOrderMessage(ctx context.Context, order *models.Order, senderID uuid.UUID, text string) (*models.Message, error)
}

// OrderNotifier создаёт уведомления о событиях заказа.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderDelivered(ctx context.Context, order *models.Order)
	OrderCompleted(ctx context.Context, order *models.Order)
	OrderCancelled(ctx context.Context, order *models.Order, cancelledBy uuid.UUID, reason string)
}

// EscrowOps переводит или возвращает удержанную оплату.
type EscrowOps interface {
	Release(ctx context.Context, order *models.Order, description string) (string, error)
	Unwind(ctx context.Context, order *models.Order) error
}

// OrderDeps собирает зависимости OrderService.
type OrderDeps struct {
	Orders       OrderStore
	Gigs         GigLookup
	Users        OrderParties
	Chat         OrderChat
	Notifier     OrderNotifier
	Escrow       EscrowOps
	Uploader     FileUploader
	Broadcaster  Broadcaster
	Cache        *CacheService
	Pricing      valueobject.Pricing
	MaxRevisions int
	MaxFiles     int
}

// CreateOrderInput: данные нового заказа.
type CreateOrderInput struct {
	GigID        uuid.UUID
	PackageType  string
	Requirements string
}

// OrderService ведёт заказ по жизненному циклу от создания до закрытия.
type OrderService struct {
	orders       OrderStore
	gigs         GigLookup
	users        OrderParties
	chat         OrderChat
	notifier     OrderNotifier
	escrow       EscrowOps
	uploader     FileUploader
	broadcaster  Broadcaster
	cache        *CacheService
	pricing      valueobject.Pricing
	maxRevisions int
	maxFiles     int
	now          func() time.Time
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(deps OrderDeps) *OrderService {
	maxFiles := deps.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	maxRevisions := deps.MaxRevisions
	if maxRevisions < 0 {
		maxRevisions = 0
	}
	return &OrderService{
		orders:       deps.Orders,
		gigs:         deps.Gigs,
		users:        deps.Users,
		chat:         deps.Chat,
		notifier:     deps.Notifier,
		escrow:       deps.Escrow,
		uploader:     deps.Uploader,
		broadcaster:  broadcasterOrNoop(deps.Broadcaster),
		cache:        deps.Cache,
		pricing:      deps.Pricing,
		maxRevisions: maxRevisions,
		maxFiles:     maxFiles,
		now:          time.Now,
	}
}

// Create оформляет заказ на услугу. Заказ ждёт оплаты в статусе pending.
func (s *OrderService) Create(ctx context.Context, buyerID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	gig, err := s.gigs.GetByID(ctx, in.GigID)
	if err != nil {
		return nil, mapError(err)
	}
	if gig.SellerID == buyerID {
		return nil, validationError("нельзя заказать собственную услугу")
	}

	pkg := strings.TrimSpace(in.PackageType)
	if pkg == "" {
		pkg = models.PackageBasic
	}
	if _, ok := models.ValidPackageTypes[pkg]; !ok {
		return nil, validationError("неизвестный пакет услуги")
	}
	requirements := optionalString(in.Requirements)
	if requirements != nil {
		if err := validation.ValidateLength("требования", *requirements, 0, validation.MaxRequirementsLength); err != nil {
			return nil, validationError(err.Error())
		}
	}

	quote, err := s.pricing.Quote(gig.Price)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		GigID:         gig.ID,
		BuyerID:       buyerID,
		SellerID:      gig.SellerID,
		GigTitle:      gig.Title,
		GigImage:      gig.Image,
		PackageType:   pkg,
		Amount:        quote.Amount,
		ServiceFee:    quote.ServiceFee,
		TotalAmount:   quote.Total,
		DeliveryTime:  gig.DeliveryTime,
		DeliveryDate:  s.now().UTC().AddDate(0, 0, gig.DeliveryTime),
		Status:        models.OrderStatusPending,
		Requirements:  requirements,
		MaxRevisions:  s.maxRevisions,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: "card",
	}
	if err := s.orders.Create(ctx, order, "Order created and awaiting payment"); err != nil {
		return nil, mapError(err)
	}

	metrics.OrderTransition("none", order.Status)
	s.invalidateStats(order)
	s.notifier.OrderPlaced(ctx, order)
	logger.Component("orders").WithField("order_id", order.ID).WithField("buyer_id", buyerID).Info("order created")
	return order, nil
}

// Pay отмечает заказ оплаченным без платёжного шлюза и запускает работу.
func (s *OrderService) Pay(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if o.BuyerID != buyerID {
			return nil, forbidden("оплатить заказ может только покупатель")
		}
		if o.PaymentStatus == models.PaymentStatusPaid || o.PaymentStatus == models.PaymentStatusReleased {
			return nil, apperror.ErrAlreadyPaid
		}
		from = o.Status
		if err := transition(o, models.OrderStatusActive); err != nil {
			return nil, err
		}
		o.PaymentStatus = models.PaymentStatusPaid

		sellerID := o.SellerID
		text := fmt.Sprintf("Great! Your order is now active. I'll start working on it right away and deliver within %d days.",
			o.DeliveryTime)
		return &repository.OrderChange{
			History: &models.OrderStatusHistory{
				Status: o.Status,
				Note:   "Payment processed successfully. Order is now active.",
			},
			Message: &models.OrderMessage{SenderID: &sellerID, Message: text},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.afterTransition(order, from)
	emitToUser(s.broadcaster, order.SellerID, EventOrderStatusUpdate, statusUpdate(order, "New order received! Payment confirmed."))
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderActivated, map[string]interface{}{
		"orderId": order.ID,
		"status":  order.Status,
	})
	return order, nil
}

// BuyerOrders возвращает страницу заказов покупателя.
func (s *OrderService) BuyerOrders(ctx context.Context, buyerID uuid.UUID, status string, page, limit int) (*models.OrderPage, error) {
	return s.page(ctx, models.OrderFilter{BuyerID: &buyerID}, status, page, limit)
}

// SellerOrders возвращает страницу заказов продавца.
func (s *OrderService) SellerOrders(ctx context.Context, sellerID uuid.UUID, status string, page, limit int) (*models.OrderPage, error) {
	return s.page(ctx, models.OrderFilter{SellerID: &sellerID}, status, page, limit)
}

func (s *OrderService) page(ctx context.Context, filter models.OrderFilter, status string, page, limit int) (*models.OrderPage, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		if _, ok := models.ValidOrderStatuses[status]; !ok {
			return nil, validationError("неизвестный статус заказа")
		}
	}
	page, limit, offset := pageWindow(page, limit, defaultOrdersLimit, 100)
	filter.Status = status
	filter.Limit = limit
	filter.Offset = offset

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.attachParties(ctx, orders); err != nil {
		return nil, err
	}
	return &models.OrderPage{
		Orders:      orders,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	}, nil
}

// BuyerStats возвращает сводку по заказам покупателя.
func (s *OrderService) BuyerStats(ctx context.Context, buyerID uuid.UUID) (*models.BuyerStats, error) {
	load := func() (interface{}, error) {
		var (
			counters *repository.OrderCounters
			recent   []models.Order
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			counters, err = s.orders.BuyerCounters(gctx, buyerID)
			return err
		})
		g.Go(func() error {
			var err error
			recent, _, err = s.orders.List(gctx, models.OrderFilter{BuyerID: &buyerID, Limit: recentOrdersLimit})
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := s.attachParties(ctx, recent); err != nil {
			return nil, err
		}
		return &models.BuyerStats{
			Total:        counters.Total,
			Active:       counters.Active,
			Completed:    counters.Completed,
			Cancelled:    counters.Cancelled,
			TotalSpent:   valueobject.RoundCents(counters.CompletedSum),
			RecentOrders: recent,
		}, nil
	}

	v, err := s.cached(ctx, StatsCacheKey(buyerID, "buyer"), load)
	if err != nil {
		return nil, mapError(err)
	}
	return v.(*models.BuyerStats), nil
}

// SellerStats возвращает сводку по заказам продавца.
func (s *OrderService) SellerStats(ctx context.Context, sellerID uuid.UUID) (*models.SellerStats, error) {
	load := func() (interface{}, error) {
		var (
			counters *repository.OrderCounters
			recent   []models.Order
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			counters, err = s.orders.SellerCounters(gctx, sellerID)
			return err
		})
		g.Go(func() error {
			var err error
			recent, _, err = s.orders.List(gctx, models.OrderFilter{SellerID: &sellerID, Limit: recentOrdersLimit})
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := s.attachParties(ctx, recent); err != nil {
			return nil, err
		}
		return &models.SellerStats{
			Total:           counters.Total,
			Active:          counters.Active,
			Completed:       counters.Completed,
			Cancelled:       counters.Cancelled,
			TotalEarnings:   valueobject.RoundCents(counters.CompletedSum),
			PendingEarnings: valueobject.RoundCents(counters.InProgressSum),
			RecentOrders:    recent,
		}, nil
	}

	v, err := s.cached(ctx, StatsCacheKey(sellerID, "seller"), load)
	if err != nil {
		return nil, mapError(err)
	}
	return v.(*models.SellerStats), nil
}

func (s *OrderService) cached(ctx context.Context, key string, load func() (interface{}, error)) (interface{}, error) {
	if s.cache == nil {
		return load()
	}
	return s.cache.GetOrSet(ctx, key, statsCacheTTL, load)
}

// Get возвращает заказ с историей, сообщениями, файлами и сторонами.
func (s *OrderService) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.participantOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.LoadDetails(ctx, order); err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// Deliver сдаёт работу покупателю. Файлы загружаются до блокировки заказа
// и удаляются, если сдача не состоялась.
func (s *OrderService) Deliver(ctx context.Context, orderID, sellerID uuid.UUID, note string, files []*multipart.FileHeader) (*models.Order, error) {
	if len(files) > s.maxFiles {
		return nil, validationError(fmt.Sprintf("можно приложить не больше %d файлов", s.maxFiles))
	}
	deliveryNote := optionalString(note)
	if deliveryNote != nil {
		if err := validation.ValidateLength("комментарий к сдаче", *deliveryNote, 0, validation.MaxRequirementsLength); err != nil {
			return nil, validationError(err.Error())
		}
	}

	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := checkDeliverable(current, sellerID); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadDeliveries(ctx, orderID, files)
	if err != nil {
		return nil, err
	}

	var (
		from         string
		wasRevision  bool
		deliveredNow = s.now().UTC()
	)
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if err := checkDeliverable(o, sellerID); err != nil {
			return nil, err
		}
		from = o.Status
		wasRevision = o.Status == models.OrderStatusRevision
		if err := transition(o, models.OrderStatusDelivered); err != nil {
			return nil, err
		}
		o.DeliveryNote = deliveryNote
		o.DeliveredAt = &deliveredNow

		history := "Order delivered by seller"
		text := "I've delivered your order!"
		if wasRevision {
			history = fmt.Sprintf("Revision delivered by seller (%d/%d)", o.RevisionCount, o.MaxRevisions)
			text = "I've submitted the revision as requested!"
		}
		if deliveryNote != nil {
			text += " " + *deliveryNote
		}
		return &repository.OrderChange{
			History: &models.OrderStatusHistory{Status: o.Status, Note: history},
			Message: &models.OrderMessage{SenderID: &sellerID, Message: text},
			Files:   uploaded,
		}, nil
	})
	if err != nil {
		s.discardUploads(uploaded)
		return nil, mapError(err)
	}
	order.DeliveryFiles = uploaded

	s.afterTransition(order, from)
	emitToUser(s.broadcaster, order.BuyerID, EventOrderStatusUpdate, statusUpdate(order, "Your order has been delivered!"))
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderDelivered, map[string]interface{}{
		"orderId":      order.ID,
		"status":       order.Status,
		"deliveryNote": order.DeliveryNote,
		"files":        uploaded,
		"isRevision":   wasRevision,
	})
	s.notifier.OrderDelivered(ctx, order)
	return order, nil
}

func checkDeliverable(o *models.Order, sellerID uuid.UUID) error {
	if o.SellerID != sellerID {
		return forbidden("сдать работу может только продавец")
	}
	if o.Status != models.OrderStatusActive && o.Status != models.OrderStatusRevision {
		return validationError("сдать работу можно только по заказу в работе или на доработке")
	}
	return nil
}

func (s *OrderService) uploadDeliveries(ctx context.Context, orderID uuid.UUID, files []*multipart.FileHeader) ([]models.DeliveryFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.uploader == nil {
		return nil, validationError("загрузка файлов недоступна")
	}
	uploaded := make([]models.DeliveryFile, 0, len(files))
	for _, fh := range files {
		stored, err := s.uploader.Upload(ctx, fh, storage.DeliveryPolicy, storage.DeliveryKey(orderID))
		if err != nil {
			s.discardUploads(uploaded)
			return nil, mapError(err)
		}
		uploaded = append(uploaded, models.DeliveryFile{
			FileName: stored.OriginalName,
			FileURL:  stored.URL,
			FileType: stored.MIME,
			FileSize: stored.Size,
			PublicID: stored.Key,
		})
	}
	return uploaded, nil
}

func (s *OrderService) discardUploads(files []models.DeliveryFile) {
	for _, f := range files {
		// контекст запроса может быть уже отменён
		if err := s.uploader.Delete(context.Background(), f.PublicID); err != nil {
			logger.Component("orders").WithError(err).WithField("key", f.PublicID).Warn("failed to remove orphaned delivery file")
		}
	}
}

// AcceptInput: необязательная оценка покупателя при приёмке.
type AcceptInput struct {
	Rating *int
	Review *string
}

// Accept принимает работу, закрывает заказ и переводит оплату продавцу.
func (s *OrderService) Accept(ctx context.Context, orderID, buyerID uuid.UUID, in AcceptInput) (*models.Order, error) {
	if in.Rating != nil {
		if err := validation.ValidateRating(*in.Rating); err != nil {
			return nil, validationError(err.Error())
		}
	}
	review := optionalString(derefString(in.Review))
	if review != nil {
		if err := validation.ValidateLength("отзыв", *review, 0, validation.MaxReviewLength); err != nil {
			return nil, validationError(err.Error())
		}
	}

	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if o.BuyerID != buyerID {
			return nil, forbidden("принять работу может только покупатель")
		}
		if o.Status != models.OrderStatusDelivered {
			return nil, validationError("принять можно только сданный заказ")
		}
		from = o.Status
		if err := transition(o, models.OrderStatusCompleted); err != nil {
			return nil, err
		}
		if o.PaymentStatus == models.PaymentStatusPaid {
			if _, err := s.escrow.Release(ctx, o, "Payment for completed order: "+o.GigTitle); err != nil {
				return nil, err
			}
		}
		completedAt := s.now().UTC()
		o.PaymentStatus = models.PaymentStatusReleased
		o.CompletedAt = &completedAt
		if in.Rating != nil {
			o.IsReviewed = true
			o.BuyerRating = in.Rating
			o.BuyerReview = review
		}

		return &repository.OrderChange{
			History: &models.OrderStatusHistory{
				Status: o.Status,
				Note:   "Order completed and payment released",
			},
			Message: &models.OrderMessage{
				SenderID: &buyerID,
				Message:  "Thank you! I'm satisfied with the delivery. Order completed.",
			},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.afterTransition(order, from)
	emitToUser(s.broadcaster, order.SellerID, EventOrderStatusUpdate, statusUpdate(order, "Your order has been completed and payment released!"))
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderCompleted, map[string]interface{}{
		"orderId": order.ID,
		"status":  order.Status,
	})
	s.notifier.OrderCompleted(ctx, order)
	return order, nil
}

// RequestRevision возвращает сданную работу на доработку в пределах лимита.
func (s *OrderService) RequestRevision(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateReason(reason); err != nil {
		return nil, validationError(err.Error())
	}

	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if o.BuyerID != buyerID {
			return nil, forbidden("запросить доработку может только покупатель")
		}
		if o.Status != models.OrderStatusDelivered {
			return nil, validationError("доработку можно запросить только по сданному заказу")
		}
		if !valueobject.CanRequestRevision(o.RevisionCount, o.MaxRevisions) {
			return nil, apperror.ErrRevisionLimitReached
		}
		from = o.Status
		if err := transition(o, models.OrderStatusRevision); err != nil {
			return nil, err
		}
		o.RevisionCount++

		return &repository.OrderChange{
			History: &models.OrderStatusHistory{
				Status: o.Status,
				Note:   fmt.Sprintf("Revision requested (%d/%d)", o.RevisionCount, o.MaxRevisions),
			},
			Message: &models.OrderMessage{
				SenderID: &buyerID,
				Message:  "I need some revisions: " + reason,
			},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.afterTransition(order, from)
	emitToUser(s.broadcaster, order.SellerID, EventOrderStatusUpdate, statusUpdate(order, "Buyer requested a revision"))
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventRevisionRequested, map[string]interface{}{
		"orderId":       order.ID,
		"reason":        reason,
		"revisionCount": order.RevisionCount,
		"maxRevisions":  order.MaxRevisions,
	})
	return order, nil
}

// Cancel отменяет незавершённый заказ и возвращает покупателю удержанную оплату.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		if err := validation.ValidateLength("причина", reason, 0, validation.MaxReasonLength); err != nil {
			return nil, validationError(err.Error())
		}
	}

	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if !o.IsParticipant(userID) {
			return nil, forbidden("отменить заказ может только покупатель или продавец")
		}
		if valueobject.OrderStatus(o.Status).IsTerminal() {
			return nil, validationError("нельзя отменить завершённый или отменённый заказ")
		}
		if err := s.escrow.Unwind(ctx, o); err != nil {
			return nil, err
		}
		from = o.Status
		if err := transition(o, models.OrderStatusCancelled); err != nil {
			return nil, err
		}
		if valueobject.PaymentStatus(o.PaymentStatus).CanTransitionTo(models.PaymentStatusRefunded) {
			o.PaymentStatus = models.PaymentStatusRefunded
		}

		note := reason
		if note == "" {
			note = "Order cancelled"
		}
		shown := reason
		if shown == "" {
			shown = "No reason provided"
		}
		return &repository.OrderChange{
			History: &models.OrderStatusHistory{Status: o.Status, Note: note},
			Message: &models.OrderMessage{
				Message:  "Order cancelled. Reason: " + shown,
				IsSystem: true,
			},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.afterTransition(order, from)
	emitToUser(s.broadcaster, order.Counterparty(userID), EventOrderStatusUpdate, statusUpdate(order, "Order has been cancelled"))
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderCancelled, map[string]interface{}{
		"orderId":     order.ID,
		"reason":      reason,
		"cancelledBy": userID,
	})
	s.notifier.OrderCancelled(ctx, order, userID, reason)
	return order, nil
}

// AddMessage пишет сообщение в ленту заказа и дублирует его в диалог заказа.
func (s *OrderService) AddMessage(ctx context.Context, orderID, userID uuid.UUID, text string) (*models.OrderMessage, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateMessageContent(text); err != nil {
		return nil, validationError(err.Error())
	}
	order, err := s.participantOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	msg := &models.OrderMessage{OrderID: order.ID, SenderID: &userID, Message: text}
	if err := s.orders.AddMessage(ctx, msg); err != nil {
		return nil, mapError(err)
	}
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventNewOrderMessage, map[string]interface{}{
		"orderId": order.ID,
		"message": msg,
	})

	if s.chat != nil {
		if _, err := s.chat.MirrorOrderMessage(ctx, order, userID, text); err != nil {
			logger.Component("orders").WithError(err).WithField("order_id", order.ID).Warn("failed to mirror order message to chat")
		}
	}
	return msg, nil
}

// Files возвращает файлы, приложенные к сдаче работы.
func (s *OrderService) Files(ctx context.Context, orderID, userID uuid.UUID) ([]models.DeliveryFile, error) {
	order, err := s.participantOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	files, err := s.orders.ListFiles(ctx, order.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return files, nil
}

// ForceStatus выставляет статус в обход переходов. Доступно только в режиме разработки.
func (s *OrderService) ForceStatus(ctx context.Context, orderID, userID uuid.UUID, status, note string) (*models.Order, error) {
	status = strings.TrimSpace(status)
	if _, ok := models.ValidOrderStatuses[status]; !ok {
		return nil, validationError("неизвестный статус заказа")
	}

	var from string
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) (*repository.OrderChange, error) {
		if !o.IsParticipant(userID) {
			return nil, forbidden("нет доступа к заказу")
		}
		from = o.Status
		o.Status = status
		switch status {
		case models.OrderStatusDelivered:
			now := s.now().UTC()
			o.DeliveredAt = &now
		case models.OrderStatusCompleted:
			now := s.now().UTC()
			o.CompletedAt = &now
		}

		text := strings.TrimSpace(note)
		if text == "" {
			text = fmt.Sprintf("Status changed to %s", status)
		}
		return &repository.OrderChange{
			History: &models.OrderStatusHistory{Status: status, Note: text},
		}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.afterTransition(order, from)
	emitToRoom(s.broadcaster, ws.RoomOrder(order.ID), EventOrderStatusUpdate, statusUpdate(order, "Order status updated"))
	return order, nil
}

// ListAll возвращает все заказы. Используется маршрутами разработки.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// CanJoinOrder разрешает вход в комнату заказа только его сторонам.
func (s *OrderService) CanJoinOrder(ctx context.Context, userID, orderID uuid.UUID) (bool, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return false, nil
		}
		return false, err
	}
	return order.IsParticipant(userID), nil
}

func (s *OrderService) participantOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !order.IsParticipant(userID) {
		return nil, forbidden("нет доступа к заказу")
	}
	return order, nil
}

func (s *OrderService) attachParties(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 || s.users == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(orders)*2)
	ids := make([]uuid.UUID, 0, len(orders)*2)
	for _, o := range orders {
		for _, id := range []uuid.UUID{o.BuyerID, o.SellerID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	users, err := s.users.ListShort(ctx, ids)
	if err != nil {
		return mapError(err)
	}
	byID := make(map[uuid.UUID]*models.UserShort, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range orders {
		orders[i].Buyer = byID[orders[i].BuyerID]
		orders[i].Seller = byID[orders[i].SellerID]
	}
	return nil
}

func (s *OrderService) afterTransition(order *models.Order, from string) {
	metrics.OrderTransition(from, order.Status)
	s.invalidateStats(order)
	logger.Component("orders").
		WithField("order_id", order.ID).
		WithField("from", from).
		WithField("to", order.Status).
		Info("order status changed")
}

func (s *OrderService) invalidateStats(order *models.Order) {
	if s.cache != nil {
		s.cache.InvalidateOrderStats(order.BuyerID, order.SellerID)
	}
}

// transition меняет статус заказа, если переход допустим.
func transition(o *models.Order, to string) error {
	next, err := valueobject.OrderStatus(o.Status).TransitionTo(valueobject.OrderStatus(to))
	if err != nil {
		return err
	}
	o.Status = string(next)
	return nil
}

func statusUpdate(order *models.Order, message string) map[string]interface{} {
	return map[string]interface{}{
		"orderId":       order.ID,
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
		"message":       message,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
