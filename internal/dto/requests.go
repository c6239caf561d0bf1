package dto

import (
	"strconv"
	"strings"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

// RegisterRequest represents the request to register a user
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Name             *string `json:"name"`
	Avatar           *string `json:"avatar"`
	Bio              *string `json:"bio"`
	Location         *string `json:"location"`
	PaymentAccountID *string `json:"payment_account_id"`
}

// GigForm represents gig fields sent as a multipart or urlencoded form.
// Numbers arrive as strings, so they are parsed explicitly.
type GigForm struct {
	Title             *string `form:"title"`
	Description       *string `form:"description"`
	Category          *string `form:"category"`
	Price             *string `form:"price"`
	DeliveryTime      *string `form:"delivery_time"`
	Image             *string `form:"image_url"`
	BasicTitle        *string `form:"basic_title"`
	BasicDescription  *string `form:"basic_description"`
	BasicPrice        *string `form:"basic_price"`
	BasicDeliveryTime *string `form:"basic_delivery_time"`
}

// ParsePrice converts the price field, nil when absent
func (f *GigForm) ParsePrice() (*float64, error) {
	return parseOptionalFloat(f.Price)
}

// ParseDeliveryTime converts the delivery time field, nil when absent
func (f *GigForm) ParseDeliveryTime() (*int, error) {
	return parseOptionalInt(f.DeliveryTime)
}

// ParseBasicPackage builds the basic package when its title is present
func (f *GigForm) ParseBasicPackage() (*models.GigPackage, error) {
	if f.BasicTitle == nil || strings.TrimSpace(*f.BasicTitle) == "" {
		return nil, nil
	}
	pkg := &models.GigPackage{Title: strings.TrimSpace(*f.BasicTitle)}
	if f.BasicDescription != nil {
		pkg.Description = strings.TrimSpace(*f.BasicDescription)
	}
	price, err := parseOptionalFloat(f.BasicPrice)
	if err != nil {
		return nil, err
	}
	if price != nil {
		pkg.Price = *price
	}
	days, err := parseOptionalInt(f.BasicDeliveryTime)
	if err != nil {
		return nil, err
	}
	if days != nil {
		pkg.DeliveryTime = *days
	}
	return pkg, nil
}

// CreateReviewRequest represents a gig review; Feedback is accepted as an alias of Comment
type CreateReviewRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Comment  string `json:"comment"`
	Feedback string `json:"feedback"`
}

// Text returns the comment, falling back to the feedback alias
func (r *CreateReviewRequest) Text() string {
	if strings.TrimSpace(r.Comment) != "" {
		return r.Comment
	}
	return r.Feedback
}

// CreateOrderRequest represents the request to order a gig
type CreateOrderRequest struct {
	GigID        string `json:"gig_id" binding:"required"`
	PackageType  string `json:"package_type"`
	Requirements string `json:"requirements"`
}

// DeliverOrderRequest represents a delivery note sent as JSON or multipart
type DeliverOrderRequest struct {
	DeliveryNote string `form:"delivery_note" json:"delivery_note"`
}

// AcceptOrderRequest represents the buyer accepting a delivery
type AcceptOrderRequest struct {
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

// ReasonRequest represents revision and cancellation requests
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// OrderMessageRequest represents a message in the order thread
type OrderMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// PaymentIntentRequest represents the request to authorise a payment
type PaymentIntentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// ConfirmPaymentRequest represents the request to capture an authorised payment
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	OrderID         string `json:"order_id" binding:"required"`
}

// WithdrawRequest represents a seller withdrawal
type WithdrawRequest struct {
	Amount         float64 `json:"amount" binding:"required"`
	Method         string  `json:"method"`
	PayoutMethodID string  `json:"payout_method_id"`
}

// DisputeRequest represents the request to open a dispute
type DisputeRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// PayoutMethodRequest represents payout method fields; nil fields are left unchanged on update
type PayoutMethodRequest struct {
	Type          string  `json:"type"`
	AccountName   *string `json:"account_name"`
	AccountNumber *string `json:"account_number"`
	RoutingNumber *string `json:"routing_number"`
	BankName      *string `json:"bank_name"`
	Email         *string `json:"email"`
}

// ConversationRequest represents the request to find or create a conversation
type ConversationRequest struct {
	ParticipantID string `json:"participant_id"`
	OrderID       string `json:"order_id"`
	GigID         string `json:"gig_id"`
	Type          string `json:"type"`
}

// DirectConversationRequest represents the request to open a direct conversation
type DirectConversationRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

// SendMessageRequest represents the request to send a chat message
type SendMessageRequest struct {
	Content     string             `json:"content"`
	MessageType string             `json:"message_type"`
	Attachments models.Attachments `json:"attachments"`
	ReplyTo     string             `json:"reply_to"`
}

// UpdateMessageRequest represents the request to edit a message
type UpdateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddMessageReactionRequest represents the request to toggle a reaction
type AddMessageReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// ForceStatusRequest represents the development-only status override
type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func parseOptionalFloat(raw *string) (*float64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalInt(raw *string) (*int, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
