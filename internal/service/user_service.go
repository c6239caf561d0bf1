package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
)

const (
	minSearchQueryLength = 2
	searchResultLimit    = 10
	activityLimit        = 10
)

// UserRepository описывает операции с пользователями, нужные сервисам.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	Search(ctx context.Context, q, role string, excludeID uuid.UUID, limit int) ([]models.UserShort, error)
	ListShort(ctx context.Context, ids []uuid.UUID) ([]models.UserShort, error)
}

// ActivityOrders возвращает последние заказы стороны сделки.
type ActivityOrders interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
}

// ActivityReviews возвращает отзывы, оставленные пользователем.
type ActivityReviews interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ReviewWithGig, error)
}

// ActivityGigs возвращает услуги продавца.
type ActivityGigs interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Gig, error)
}

// UserService отвечает за профиль, поиск собеседников и ленту активности.
type UserService struct {
	users   UserRepository
	orders  ActivityOrders
	reviews ActivityReviews
	gigs    ActivityGigs
}

// NewUserService создаёт сервис пользователей.
func NewUserService(users UserRepository, orders ActivityOrders, reviews ActivityReviews, gigs ActivityGigs) *UserService {
	return &UserService{users: users, orders: orders, reviews: reviews, gigs: gigs}
}

// ProfileUpdate содержит изменяемые поля профиля. nil означает «не менять».
type ProfileUpdate struct {
	Name             *string
	Avatar           *string
	Bio              *string
	Location         *string
	PaymentAccountID *string
}

// UpdateProfile применяет частичное обновление профиля.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateLength("имя", name, validation.MinDisplayNameLength, validation.MaxDisplayNameLength); err != nil {
			return nil, validationError(err.Error())
		}
		user.Name = name
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(in.Bio); err != nil {
			return nil, validationError(err.Error())
		}
		user.Bio = optionalString(*in.Bio)
	}
	if in.Location != nil {
		if err := validation.ValidateLocation(in.Location); err != nil {
			return nil, validationError(err.Error())
		}
		user.Location = optionalString(*in.Location)
	}
	if in.Avatar != nil {
		if err := validation.ValidateURL(in.Avatar); err != nil {
			return nil, validationError(err.Error())
		}
		user.Avatar = optionalString(*in.Avatar)
	}
	if in.PaymentAccountID != nil {
		user.PaymentAccountID = optionalString(*in.PaymentAccountID)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// Search ищет собеседников по имени или email, исключая вызывающего.
func (s *UserService) Search(ctx context.Context, callerID uuid.UUID, q, role string) ([]models.UserShort, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSearchQueryLength {
		return nil, validationError("поисковый запрос должен быть не короче 2 символов")
	}
	if role != "" && role != models.RoleClient && role != models.RoleFreelancer {
		return nil, validationError("неизвестная роль")
	}
	users, err := s.users.Search(ctx, q, role, callerID, searchResultLimit)
	if err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// Activity собирает ленту последних действий пользователя в зависимости от роли.
func (s *UserService) Activity(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	var items []models.ActivityItem
	if user.Role == models.RoleFreelancer {
		items, err = s.sellerActivity(ctx, userID)
	} else {
		items, err = s.buyerActivity(ctx, userID)
	}
	if err != nil {
		return nil, mapError(err)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	if len(items) > activityLimit {
		items = items[:activityLimit]
	}
	return items, nil
}

func (s *UserService) buyerActivity(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error) {
	orders, _, err := s.orders.List(ctx, models.OrderFilter{BuyerID: &userID, Limit: 10})
	if err != nil {
		return nil, err
	}
	names, err := s.counterpartyNames(ctx, orders, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.ActivityItem, 0, len(orders)+5)
	for _, o := range orders {
		amount := o.TotalAmount
		items = append(items, models.ActivityItem{
			Type:        "order_placed",
			Title:       fmt.Sprintf("Ordered %q", o.GigTitle),
			Description: "From " + names[o.SellerID],
			Date:        o.CreatedAt,
			Status:      o.Status,
			Amount:      &amount,
		})
	}

	reviews, err := s.reviews.ListByUser(ctx, userID, 5)
	if err != nil {
		return nil, err
	}
	for _, r := range reviews {
		rating := r.Rating
		items = append(items, models.ActivityItem{
			Type:        "review_given",
			Title:       fmt.Sprintf("Reviewed %q", r.GigTitle),
			Description: fmt.Sprintf("Rated %d stars", r.Rating),
			Date:        r.CreatedAt,
			Rating:      &rating,
		})
	}
	return items, nil
}

func (s *UserService) sellerActivity(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error) {
	orders, _, err := s.orders.List(ctx, models.OrderFilter{SellerID: &userID, Limit: 10})
	if err != nil {
		return nil, err
	}
	names, err := s.counterpartyNames(ctx, orders, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.ActivityItem, 0, len(orders)+5)
	for _, o := range orders {
		amount := o.Amount
		items = append(items, models.ActivityItem{
			Type:        "order_received",
			Title:       fmt.Sprintf("New order for %q", o.GigTitle),
			Description: "From " + names[o.BuyerID],
			Date:        o.CreatedAt,
			Status:      o.Status,
			Amount:      &amount,
		})
	}

	gigs, err := s.gigs.ListBySeller(ctx, userID, 5)
	if err != nil {
		return nil, err
	}
	for _, g := range gigs {
		price := g.Price
		category := "General"
		if g.Category != nil && *g.Category != "" {
			category = *g.Category
		}
		items = append(items, models.ActivityItem{
			Type:        "gig_created",
			Title:       fmt.Sprintf("Created gig %q", g.Title),
			Description: "In " + category,
			Date:        g.CreatedAt,
			Price:       &price,
		})
	}
	return items, nil
}

func (s *UserService) counterpartyNames(ctx context.Context, orders []models.Order, userID uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	if len(orders) == 0 {
		return names, nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.Counterparty(userID))
	}
	users, err := s.users.ListShort(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
