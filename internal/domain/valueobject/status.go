package valueobject

import "github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"

// OrderStatus: статус жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRevision  OrderStatus = "revision"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusActive, OrderStatusCancelled},
	OrderStatusActive:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {OrderStatusRevision, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusRevision:  {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	for _, status := range orderTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo возвращает ошибку валидации, если переход запрещён.
func (s OrderStatus) TransitionTo(newStatus OrderStatus) (OrderStatus, error) {
	if !s.CanTransitionTo(newStatus) {
		return s, apperror.New(apperror.ErrCodeValidation, "недопустимый переход статуса заказа: "+string(s)+" → "+string(newStatus))
	}
	return newStatus, nil
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

// PaymentStatus: статус оплаты заказа в эскроу.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusReleased   PaymentStatus = "released"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusRefunded},
	PaymentStatusProcessing: {PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusRefunded},
	PaymentStatusPaid:       {PaymentStatusReleased, PaymentStatusRefunded},
	PaymentStatusReleased:   {},
	PaymentStatusRefunded:   {},
}

func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// IsSettled сообщает, что деньги уже выплачены продавцу или возвращены покупателю.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusReleased || s == PaymentStatusRefunded
}

func (s PaymentStatus) CanTransitionTo(newStatus PaymentStatus) bool {
	for _, status := range paymentTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// CanRequestRevision проверяет лимит доработок заказа.
func CanRequestRevision(revisionCount, maxRevisions int) bool {
	return revisionCount < maxRevisions
}
