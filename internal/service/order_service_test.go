package service

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/domain/valueobject"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/storage"
	"github.com/ignatzorin/gig-marketplace/internal/ws"
)

// memOrderStore хранит заказы в памяти и применяет Mutate к копии,
// как транзакция: при ошибке изменения не сохраняются.
type memOrderStore struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	history  []models.OrderStatusHistory
	messages []models.OrderMessage
	files    []models.DeliveryFile
	counters *repository.OrderCounters
	lists    int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *memOrderStore) put(o *models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.orders[o.ID] = o
	return o
}

func (m *memOrderStore) Create(ctx context.Context, order *models.Order, note string) error {
	order.ID = uuid.New()
	m.put(order)
	m.mu.Lock()
	m.history = append(m.history, models.OrderStatusHistory{OrderID: order.ID, Status: order.Status, Note: note})
	m.mu.Unlock()
	return nil
}

func (m *memOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderStore) LoadDetails(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.history {
		if h.OrderID == order.ID {
			order.StatusHistory = append(order.StatusHistory, h)
		}
	}
	return nil
}

func (m *memOrderStore) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]models.Order, 0)
	for _, o := range m.orders {
		if filter.BuyerID != nil && o.BuyerID != *filter.BuyerID {
			continue
		}
		if filter.SellerID != nil && o.SellerID != *filter.SellerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	total := len(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memOrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	out, _, err := m.List(ctx, models.OrderFilter{})
	return out, err
}

func (m *memOrderStore) BuyerCounters(ctx context.Context, buyerID uuid.UUID) (*repository.OrderCounters, error) {
	return m.counters, nil
}

func (m *memOrderStore) SellerCounters(ctx context.Context, sellerID uuid.UUID) (*repository.OrderCounters, error) {
	return m.counters, nil
}

func (m *memOrderStore) Mutate(ctx context.Context, id uuid.UUID, fn func(order *models.Order) (*repository.OrderChange, error)) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	change, err := fn(&cp)
	if err != nil {
		return nil, err
	}
	*o = cp
	if change != nil {
		if change.History != nil {
			change.History.OrderID = id
			m.history = append(m.history, *change.History)
		}
		if change.Message != nil {
			change.Message.OrderID = id
			m.messages = append(m.messages, *change.Message)
		}
		m.files = append(m.files, change.Files...)
	}
	out := cp
	return &out, nil
}

func (m *memOrderStore) AddMessage(ctx context.Context, msg *models.OrderMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.New()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memOrderStore) ListFiles(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryFile, error) {
	return m.files, nil
}

func (m *memOrderStore) lastHistory() models.OrderStatusHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[len(m.history)-1]
}

func (m *memOrderStore) lastMessage() models.OrderMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[len(m.messages)-1]
}

type mockEscrow struct {
	mock.Mock
}

func (m *mockEscrow) Release(ctx context.Context, order *models.Order, description string) (string, error) {
	args := m.Called(ctx, order.ID, description)
	return args.String(0), args.Error(1)
}

func (m *mockEscrow) Unwind(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order.ID)
	return args.Error(0)
}

type mockOrderNotifier struct {
	mock.Mock
}

func (m *mockOrderNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	m.Called(order.ID)
}

func (m *mockOrderNotifier) OrderDelivered(ctx context.Context, order *models.Order) {
	m.Called(order.ID)
}

func (m *mockOrderNotifier) OrderCompleted(ctx context.Context, order *models.Order) {
	m.Called(order.ID)
}

func (m *mockOrderNotifier) OrderCancelled(ctx context.Context, order *models.Order, cancelledBy uuid.UUID, reason string) {
	m.Called(order.ID, cancelledBy, reason)
}

type mockOrderChat struct {
	mock.Mock
}

func (m *mockOrderChat) MirrorOrderMessage(ctx context.Context, order *models.Order, senderID uuid.UUID, text string) (*models.Message, error) {
	args := m.Called(order.ID, senderID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, fh *multipart.FileHeader, policy storage.Policy, keyFn func(string, time.Time) string) (*storage.StoredFile, error) {
	args := m.Called(fh.Filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StoredFile), args.Error(1)
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	return m.Called(key).Error(0)
}

type orderFixture struct {
	svc      *OrderService
	store    *memOrderStore
	gigs     *mockGigLookup
	users    *mockUserRepo
	escrow   *mockEscrow
	notifier *mockOrderNotifier
	chat     *mockOrderChat
	uploader *mockUploader
	bus      *recordingBroadcaster
	cache    *CacheService

	buyerID  uuid.UUID
	sellerID uuid.UUID
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		store:    newMemOrderStore(),
		gigs:     new(mockGigLookup),
		users:    new(mockUserRepo),
		escrow:   new(mockEscrow),
		notifier: new(mockOrderNotifier),
		chat:     new(mockOrderChat),
		uploader: new(mockUploader),
		bus:      &recordingBroadcaster{},
		cache:    NewCacheService(0),
		buyerID:  uuid.New(),
		sellerID: uuid.New(),
	}
	f.svc = NewOrderService(OrderDeps{
		Orders:       f.store,
		Gigs:         f.gigs,
		Users:        f.users,
		Chat:         f.chat,
		Notifier:     f.notifier,
		Escrow:       f.escrow,
		Uploader:     f.uploader,
		Broadcaster:  f.bus,
		Cache:        f.cache,
		Pricing:      valueobject.Pricing{FeePercent: 5, INRToUSD: 0.012},
		MaxRevisions: 1,
	})
	return f
}

func (f *orderFixture) order(status, paymentStatus string) *models.Order {
	return f.store.put(&models.Order{
		BuyerID:       f.buyerID,
		SellerID:      f.sellerID,
		GigTitle:      "Logo design",
		Amount:        100,
		ServiceFee:    5,
		TotalAmount:   105,
		DeliveryTime:  3,
		Status:        status,
		PaymentStatus: paymentStatus,
		MaxRevisions:  1,
	})
}

func TestOrderService_Create(t *testing.T) {
	f := newOrderFixture()
	gig := &models.Gig{ID: uuid.New(), SellerID: f.sellerID, Title: "Logo design", Price: 5000, DeliveryTime: 3}
	f.gigs.On("GetByID", mock.Anything, gig.ID).Return(gig, nil)
	f.notifier.On("OrderPlaced", mock.Anything).Return()

	order, err := f.svc.Create(context.Background(), f.buyerID, CreateOrderInput{GigID: gig.ID, Requirements: "  vector please "})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.PackageBasic, order.PackageType)
	assert.Equal(t, 60.0, order.Amount)
	assert.Equal(t, 3.0, order.ServiceFee)
	assert.Equal(t, 63.0, order.TotalAmount)
	assert.Equal(t, 1, order.MaxRevisions)
	require.NotNil(t, order.Requirements)
	assert.Equal(t, "vector please", *order.Requirements)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 3), order.DeliveryDate, time.Minute)
	assert.Equal(t, "Order created and awaiting payment", f.store.lastHistory().Note)
	f.notifier.AssertCalled(t, "OrderPlaced", order.ID)
}

func TestOrderService_CreateErrors(t *testing.T) {
	f := newOrderFixture()
	own := &models.Gig{ID: uuid.New(), SellerID: f.buyerID, Price: 100, DeliveryTime: 1}
	missing := uuid.New()
	f.gigs.On("GetByID", mock.Anything, own.ID).Return(own, nil)
	f.gigs.On("GetByID", mock.Anything, missing).Return(nil, repository.ErrGigNotFound)

	_, err := f.svc.Create(context.Background(), f.buyerID, CreateOrderInput{GigID: own.ID})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Create(context.Background(), f.buyerID, CreateOrderInput{GigID: missing})
	assert.True(t, apperror.IsNotFound(err))

	other := &models.Gig{ID: uuid.New(), SellerID: f.sellerID, Price: 100, DeliveryTime: 1}
	f.gigs.On("GetByID", mock.Anything, other.ID).Return(other, nil)
	_, err = f.svc.Create(context.Background(), f.buyerID, CreateOrderInput{GigID: other.ID, PackageType: "gold"})
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Pay(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusPending, models.PaymentStatusPending)

	_, err := f.svc.Pay(context.Background(), o.ID, f.sellerID)
	assert.True(t, apperror.IsForbidden(err))

	order, err := f.svc.Pay(context.Background(), o.ID, f.buyerID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusActive, order.Status)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Contains(t, f.store.lastMessage().Message, "deliver within 3 days")
	require.NotNil(t, f.store.lastMessage().SenderID)
	assert.Equal(t, f.sellerID, *f.store.lastMessage().SenderID)

	updates := f.bus.byEvent(EventOrderStatusUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, f.sellerID, updates[0].User)
	activated := f.bus.byEvent(EventOrderActivated)
	require.Len(t, activated, 1)
	assert.Equal(t, ws.RoomOrder(o.ID), activated[0].Room)

	_, err = f.svc.Pay(context.Background(), o.ID, f.buyerID)
	assert.ErrorIs(t, err, apperror.ErrAlreadyPaid)
}

func TestOrderService_DeliverWithFiles(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.uploader.On("Upload", "logo.png").Return(&storage.StoredFile{
		Key: "order_deliveries/x_logo.png", URL: "/uploads/order_deliveries/x_logo.png",
		OriginalName: "logo.png", MIME: "image/png", Size: 42,
	}, nil)
	f.notifier.On("OrderDelivered", o.ID).Return()

	order, err := f.svc.Deliver(context.Background(), o.ID, f.sellerID, "final files", []*multipart.FileHeader{{Filename: "logo.png"}})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.DeliveredAt)
	require.Len(t, f.store.files, 1)
	assert.Equal(t, "image/png", f.store.files[0].FileType)
	assert.Equal(t, "Order delivered by seller", f.store.lastHistory().Note)
	assert.Equal(t, "I've delivered your order! final files", f.store.lastMessage().Message)
	assert.Len(t, f.bus.byEvent(EventOrderDelivered), 1)
	updates := f.bus.byEvent(EventOrderStatusUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, f.buyerID, updates[0].User)
	f.notifier.AssertExpectations(t)
}

func TestOrderService_DeliverRules(t *testing.T) {
	f := newOrderFixture()
	pending := f.order(models.OrderStatusPending, models.PaymentStatusPending)
	active := f.order(models.OrderStatusActive, models.PaymentStatusPaid)

	_, err := f.svc.Deliver(context.Background(), active.ID, f.buyerID, "", nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Deliver(context.Background(), pending.ID, f.sellerID, "", nil)
	assert.True(t, apperror.IsValidation(err))

	tooMany := make([]*multipart.FileHeader, 6)
	_, err = f.svc.Deliver(context.Background(), active.ID, f.sellerID, "", tooMany)
	assert.True(t, apperror.IsValidation(err))
	f.uploader.AssertNotCalled(t, "Upload", mock.Anything)
}

func TestOrderService_DeliverUploadFailureCleansUp(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.uploader.On("Upload", "a.pdf").Return(&storage.StoredFile{Key: "k1", OriginalName: "a.pdf"}, nil)
	f.uploader.On("Upload", "b.exe").Return(nil, storage.ErrUnsupportedType)
	f.uploader.On("Delete", "k1").Return(nil)

	_, err := f.svc.Deliver(context.Background(), o.ID, f.sellerID, "", []*multipart.FileHeader{{Filename: "a.pdf"}, {Filename: "b.exe"}})
	assert.True(t, apperror.IsValidation(err))
	f.uploader.AssertCalled(t, "Delete", "k1")

	stored, _ := f.store.GetByID(context.Background(), o.ID)
	assert.Equal(t, models.OrderStatusActive, stored.Status)
}

func TestOrderService_RevisionCycle(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusDelivered, models.PaymentStatusPaid)
	f.notifier.On("OrderDelivered", o.ID).Return()

	order, err := f.svc.RequestRevision(context.Background(), o.ID, f.buyerID, "make it blue")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRevision, order.Status)
	assert.Equal(t, 1, order.RevisionCount)
	assert.Equal(t, "Revision requested (1/1)", f.store.lastHistory().Note)
	assert.Equal(t, "I need some revisions: make it blue", f.store.lastMessage().Message)
	assert.Len(t, f.bus.byEvent(EventRevisionRequested), 1)

	_, err = f.svc.Deliver(context.Background(), o.ID, f.sellerID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Revision delivered by seller (1/1)", f.store.lastHistory().Note)
	assert.Equal(t, "I've submitted the revision as requested!", f.store.lastMessage().Message)

	_, err = f.svc.RequestRevision(context.Background(), o.ID, f.buyerID, "again")
	assert.ErrorIs(t, err, apperror.ErrRevisionLimitReached)

	_, err = f.svc.RequestRevision(context.Background(), o.ID, f.buyerID, "  ")
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_AcceptReleasesEscrow(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusDelivered, models.PaymentStatusPaid)
	f.escrow.On("Release", mock.Anything, o.ID, "Payment for completed order: Logo design").Return("tr_1", nil)
	f.notifier.On("OrderCompleted", o.ID).Return()
	rating := 5

	order, err := f.svc.Accept(context.Background(), o.ID, f.buyerID, AcceptInput{Rating: &rating, Review: strPtr("great work")})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, models.PaymentStatusReleased, order.PaymentStatus)
	assert.NotNil(t, order.CompletedAt)
	assert.True(t, order.IsReviewed)
	assert.Equal(t, 5, *order.BuyerRating)
	assert.Equal(t, "Order completed and payment released", f.store.lastHistory().Note)
	assert.Len(t, f.bus.byEvent(EventOrderCompleted), 1)
	f.escrow.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestOrderService_AcceptTransferFailureKeepsOrder(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusDelivered, models.PaymentStatusPaid)
	f.escrow.On("Release", mock.Anything, o.ID, mock.Anything).
		Return("", apperror.New(apperror.ErrCodePayment, "transfer failed"))

	_, err := f.svc.Accept(context.Background(), o.ID, f.buyerID, AcceptInput{})
	require.Error(t, err)

	stored, _ := f.store.GetByID(context.Background(), o.ID)
	assert.Equal(t, models.OrderStatusDelivered, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Empty(t, f.bus.byEvent(EventOrderCompleted))
}

func TestOrderService_AcceptRules(t *testing.T) {
	f := newOrderFixture()
	active := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	delivered := f.order(models.OrderStatusDelivered, models.PaymentStatusPaid)
	bad := 6

	_, err := f.svc.Accept(context.Background(), active.ID, f.buyerID, AcceptInput{})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Accept(context.Background(), delivered.ID, f.sellerID, AcceptInput{})
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Accept(context.Background(), delivered.ID, f.buyerID, AcceptInput{Rating: &bad})
	assert.True(t, apperror.IsValidation(err))
	f.escrow.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Cancel(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.escrow.On("Unwind", mock.Anything, o.ID).Return(nil)
	f.notifier.On("OrderCancelled", o.ID, f.sellerID, "").Return()

	order, err := f.svc.Cancel(context.Background(), o.ID, f.sellerID, "")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, models.PaymentStatusRefunded, order.PaymentStatus)
	assert.Equal(t, "Order cancelled", f.store.lastHistory().Note)
	msg := f.store.lastMessage()
	assert.True(t, msg.IsSystem)
	assert.Equal(t, "Order cancelled. Reason: No reason provided", msg.Message)

	updates := f.bus.byEvent(EventOrderStatusUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, f.buyerID, updates[0].User)
	assert.Len(t, f.bus.byEvent(EventOrderCancelled), 1)

	_, err = f.svc.Cancel(context.Background(), o.ID, f.buyerID, "changed my mind")
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_CancelRefundFailure(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.escrow.On("Unwind", mock.Anything, o.ID).Return(apperror.New(apperror.ErrCodePayment, "refund failed"))

	_, err := f.svc.Cancel(context.Background(), o.ID, f.buyerID, "too slow")
	require.Error(t, err)

	stored, _ := f.store.GetByID(context.Background(), o.ID)
	assert.Equal(t, models.OrderStatusActive, stored.Status)

	_, err = f.svc.Cancel(context.Background(), o.ID, uuid.New(), "")
	assert.True(t, apperror.IsForbidden(err))
}

func TestOrderService_AddMessageMirrorsToChat(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.chat.On("MirrorOrderMessage", o.ID, f.buyerID, "any update?").Return(&models.Message{}, nil)

	msg, err := f.svc.AddMessage(context.Background(), o.ID, f.buyerID, "  any update? ")
	require.NoError(t, err)
	assert.Equal(t, "any update?", msg.Message)

	events := f.bus.byEvent(EventNewOrderMessage)
	require.Len(t, events, 1)
	assert.Equal(t, ws.RoomOrder(o.ID), events[0].Room)
	f.chat.AssertExpectations(t)

	_, err = f.svc.AddMessage(context.Background(), o.ID, uuid.New(), "hi")
	assert.True(t, apperror.IsForbidden(err))
}

func TestOrderService_AddMessageChatFailureIsNotFatal(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.chat.On("MirrorOrderMessage", o.ID, f.sellerID, "working on it").Return(nil, errors.New("db down"))

	_, err := f.svc.AddMessage(context.Background(), o.ID, f.sellerID, "working on it")
	require.NoError(t, err)
}

func TestOrderService_BuyerOrdersAttachesParties(t *testing.T) {
	f := newOrderFixture()
	f.order(models.OrderStatusActive, models.PaymentStatusPaid)
	f.order(models.OrderStatusCompleted, models.PaymentStatusReleased)
	f.users.On("ListShort", mock.Anything, mock.Anything).Return([]models.UserShort{
		{ID: f.buyerID, Name: "Buyer"},
		{ID: f.sellerID, Name: "Seller"},
	}, nil)

	page, err := f.svc.BuyerOrders(context.Background(), f.buyerID, models.OrderStatusActive, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "Buyer", page.Orders[0].Buyer.Name)
	assert.Equal(t, "Seller", page.Orders[0].Seller.Name)

	_, err = f.svc.SellerOrders(context.Background(), f.sellerID, "bogus", 1, 10)
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_StatsAreCachedUntilTransition(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusPending, models.PaymentStatusPending)
	f.store.counters = &repository.OrderCounters{Total: 3, Active: 1, Completed: 2, CompletedSum: 210.004, InProgressSum: 50}
	f.users.On("ListShort", mock.Anything, mock.Anything).Return([]models.UserShort{}, nil)

	stats, err := f.svc.SellerStats(context.Background(), f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 210.0, stats.TotalEarnings)
	assert.Equal(t, 50.0, stats.PendingEarnings)
	assert.Len(t, stats.RecentOrders, 1)

	_, err = f.svc.SellerStats(context.Background(), f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.lists)

	_, err = f.svc.Pay(context.Background(), o.ID, f.buyerID)
	require.NoError(t, err)
	_, err = f.svc.SellerStats(context.Background(), f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.lists)

	buyer, err := f.svc.BuyerStats(context.Background(), f.buyerID)
	require.NoError(t, err)
	assert.Equal(t, 210.0, buyer.TotalSpent)
}

func TestOrderService_GetAndFiles(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)

	order, err := f.svc.Get(context.Background(), o.ID, f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, order.ID)

	_, err = f.svc.Get(context.Background(), o.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Get(context.Background(), uuid.New(), f.buyerID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Files(context.Background(), o.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}

func TestOrderService_ForceStatus(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusPending, models.PaymentStatusPending)

	_, err := f.svc.ForceStatus(context.Background(), o.ID, f.buyerID, "shipped", "")
	assert.True(t, apperror.IsValidation(err))

	order, err := f.svc.ForceStatus(context.Background(), o.ID, f.buyerID, models.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredAt)
	assert.Equal(t, "Status changed to delivered", f.store.lastHistory().Note)
}

func TestOrderService_CanJoinOrder(t *testing.T) {
	f := newOrderFixture()
	o := f.order(models.OrderStatusActive, models.PaymentStatusPaid)

	ok, err := f.svc.CanJoinOrder(context.Background(), f.buyerID, o.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanJoinOrder(context.Background(), uuid.New(), o.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CanJoinOrder(context.Background(), f.buyerID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
