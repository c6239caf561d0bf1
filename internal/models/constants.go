package models

// OrderStatus константы статусов заказов
const (
	OrderStatusPending   = "pending"
	OrderStatusActive    = "active"
	OrderStatusDelivered = "delivered"
	OrderStatusRevision  = "revision"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	// OrderStatusDisputed пишется только в историю, статус заказа не меняет.
	OrderStatusDisputed = "disputed"
)

// PaymentStatus константы статусов оплаты заказа
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusPaid       = "paid"
	PaymentStatusReleased   = "released"
	PaymentStatusRefunded   = "refunded"
)

// PackageType константы пакетов услуги
const (
	PackageBasic    = "basic"
	PackageStandard = "standard"
	PackagePremium  = "premium"
)

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:   {},
	OrderStatusActive:    {},
	OrderStatusDelivered: {},
	OrderStatusRevision:  {},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// ValidPackageTypes список валидных пакетов
var ValidPackageTypes = map[string]struct{}{
	PackageBasic:    {},
	PackageStandard: {},
	PackagePremium:  {},
}

// ValidPaymentStatuses список валидных статусов оплаты
var ValidPaymentStatuses = map[string]struct{}{
	PaymentStatusPending:    {},
	PaymentStatusProcessing: {},
	PaymentStatusPaid:       {},
	PaymentStatusReleased:   {},
	PaymentStatusRefunded:   {},
}
