package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/storage"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
)

const (
	gigCacheTTL     = time.Minute
	gigListCacheTTL = 30 * time.Second
	mineGigsLimit   = 100
)

// GigRepository описывает хранилище услуг.
type GigRepository interface {
	Create(ctx context.Context, gig *models.Gig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	List(ctx context.Context, filter models.GigFilter) ([]models.Gig, int, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Gig, error)
	Update(ctx context.Context, gig *models.Gig) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileUploader сохраняет загруженные файлы во внешнем хранилище.
type FileUploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader, policy storage.Policy, keyFn func(string, time.Time) string) (*storage.StoredFile, error)
	Delete(ctx context.Context, key string) error
}

// GigInput содержит поля услуги при создании и обновлении.
// При обновлении nil-поля не меняются.
type GigInput struct {
	Title        *string
	Description  *string
	Category     *string
	Price        *float64
	DeliveryTime *int
	Image        *string
	BasicPackage *models.GigPackage
}

// GigPage: страница каталога услуг.
type GigPage struct {
	Gigs        []models.Gig `json:"gigs"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
	Total       int          `json:"total"`
}

// GigService управляет каталогом услуг.
type GigService struct {
	repo     GigRepository
	uploader FileUploader
	cache    *CacheService
}

// NewGigService создаёт сервис услуг. cache может быть nil.
func NewGigService(repo GigRepository, uploader FileUploader, cache *CacheService) *GigService {
	return &GigService{repo: repo, uploader: uploader, cache: cache}
}

// Create публикует новую услугу фрилансера с необязательным изображением.
func (s *GigService) Create(ctx context.Context, sellerID uuid.UUID, role string, in GigInput, image *multipart.FileHeader) (*models.Gig, error) {
	if role != models.RoleFreelancer {
		return nil, forbidden("создавать услуги могут только фрилансеры")
	}
	if in.Title == nil || in.Description == nil || in.Price == nil || in.DeliveryTime == nil {
		return nil, validationError("название, описание, цена и срок выполнения обязательны")
	}

	gig := &models.Gig{SellerID: sellerID}
	if err := applyGigInput(gig, in); err != nil {
		return nil, err
	}

	if image != nil {
		stored, err := s.uploadImage(ctx, sellerID, image)
		if err != nil {
			return nil, err
		}
		gig.Image = &stored.URL
	}
	if gig.Image != nil {
		gig.Images = []string{*gig.Image}
	}

	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, mapError(err)
	}
	s.invalidate(gig.ID)

	logger.Component("gigs").WithField("gig_id", gig.ID).WithField("seller_id", sellerID).Info("gig created")
	return gig, nil
}

// List возвращает страницу каталога с фильтрами по категории и строке поиска.
func (s *GigService) List(ctx context.Context, category, search string, page, limit int) (*GigPage, error) {
	page, limit, offset := pageWindow(page, limit, 20, 100)
	filter := models.GigFilter{
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
		Limit:    limit,
		Offset:   offset,
	}

	load := func() (interface{}, error) {
		gigs, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &GigPage{Gigs: gigs, TotalPages: totalPages(total, limit), CurrentPage: page, Total: total}, nil
	}

	var (
		v   interface{}
		err error
	)
	if s.cache != nil {
		v, err = s.cache.GetOrSet(ctx, GigListCacheKey(filter), gigListCacheTTL, load)
	} else {
		v, err = load()
	}
	if err != nil {
		return nil, mapError(err)
	}
	return v.(*GigPage), nil
}

// Mine возвращает услуги продавца.
func (s *GigService) Mine(ctx context.Context, sellerID uuid.UUID) ([]models.Gig, error) {
	gigs, err := s.repo.ListBySeller(ctx, sellerID, mineGigsLimit)
	if err != nil {
		return nil, mapError(err)
	}
	return gigs, nil
}

// Get возвращает услугу по идентификатору.
func (s *GigService) Get(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(GigCacheKey(id)); ok {
			return v.(*models.Gig), nil
		}
	}
	gig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if s.cache != nil {
		s.cache.Set(GigCacheKey(id), gig, gigCacheTTL)
	}
	return gig, nil
}

// Update применяет частичное обновление. Изменять услугу может только её продавец.
func (s *GigService) Update(ctx context.Context, sellerID, id uuid.UUID, in GigInput, image *multipart.FileHeader) (*models.Gig, error) {
	gig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if gig.SellerID != sellerID {
		return nil, forbidden("изменять услугу может только её владелец")
	}

	if err := applyGigInput(gig, in); err != nil {
		return nil, err
	}
	if image != nil {
		stored, err := s.uploadImage(ctx, sellerID, image)
		if err != nil {
			return nil, err
		}
		gig.Image = &stored.URL
		gig.Images = append([]string{stored.URL}, gig.Images...)
	}

	if err := s.repo.Update(ctx, gig); err != nil {
		return nil, mapError(err)
	}
	s.invalidate(id)
	return gig, nil
}

// Delete удаляет услугу продавца.
func (s *GigService) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	gig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if gig.SellerID != sellerID {
		return forbidden("удалить услугу может только её владелец")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	s.invalidate(id)
	return nil
}

func (s *GigService) uploadImage(ctx context.Context, sellerID uuid.UUID, image *multipart.FileHeader) (*storage.StoredFile, error) {
	if s.uploader == nil {
		return nil, validationError("загрузка файлов недоступна")
	}
	stored, err := s.uploader.Upload(ctx, image, storage.ImagePolicy, storage.GigImageKey(sellerID))
	if err != nil {
		return nil, mapError(err)
	}
	return stored, nil
}

func (s *GigService) invalidate(id uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateGig(id)
	}
}

func applyGigInput(gig *models.Gig, in GigInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validation.ValidateGigTitle(title); err != nil {
			return validationError(err.Error())
		}
		gig.Title = title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if err := validation.ValidateGigDescription(desc); err != nil {
			return validationError(err.Error())
		}
		gig.Description = desc
	}
	if in.Category != nil {
		if err := validation.ValidateLength("категория", *in.Category, 0, validation.MaxCategoryLength); err != nil {
			return validationError(err.Error())
		}
		gig.Category = optionalString(*in.Category)
	}
	if in.Price != nil {
		if err := validation.ValidateGigPrice(*in.Price); err != nil {
			return validationError(err.Error())
		}
		gig.Price = *in.Price
	}
	if in.DeliveryTime != nil {
		if err := validation.ValidateDeliveryTime(*in.DeliveryTime); err != nil {
			return validationError(err.Error())
		}
		gig.DeliveryTime = *in.DeliveryTime
	}
	if in.Image != nil {
		if err := validation.ValidateURL(in.Image); err != nil {
			return validationError(err.Error())
		}
		gig.Image = optionalString(*in.Image)
	}
	if in.BasicPackage != nil {
		pkg := *in.BasicPackage
		if pkg.Price < 0 || pkg.DeliveryTime < 0 {
			return validationError("некорректные параметры пакета")
		}
		gig.BasicPackage = &pkg
	}
	return nil
}
