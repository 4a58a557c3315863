package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fjod/storefront/internal/blob"
	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const MaxImageSize = 5 << 20

var (
	ErrUnauthenticated = errors.New("an authenticated session is required")
	ErrProductNotFound = errors.New("product not found")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is a seller's new product form.
type Submission struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Category    domain.Category
	Image       Image
}

func (s Submission) Validate() error {
	verr := &domain.ValidationError{}
	if utf8.RuneCountInString(strings.TrimSpace(s.Name)) < 3 {
		verr.Add("name", "Product name must be at least 3 characters.")
	}
	if !s.Price.IsPositive() {
		verr.Add("price", "Price must be a positive number.")
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Description)) < 10 {
		verr.Add("description", "Description must be at least 10 characters.")
	}
	if !s.Category.Valid() {
		verr.Add("category", "Please select a category.")
	}
	switch {
	case len(s.Image.Data) == 0:
		verr.Add("image", "Image is required.")
	case len(s.Image.Data) > MaxImageSize:
		verr.Add("image", "Max file size is 5MB.")
	case imageExtensions[strings.ToLower(s.Image.ContentType)] == "":
		verr.Add("image", ".jpg, .jpeg, .png and .webp files are accepted.")
	}
	return verr.Err()
}

type PrincipalSource interface {
	Principal() *domain.Principal
}

// Service lists new products: image to the blob store, record to the source,
// then the shared Store.
type Service struct {
	store  *Store
	source Source
	blobs  blob.Store
	logger *zap.Logger
}

func NewService(store *Store, source Source, blobs blob.Store, logger *zap.Logger) *Service {
	return &Service{store: store, source: source, blobs: blobs, logger: logger}
}

func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) Product(id string) (domain.Product, error) {
	p, ok := s.store.Get(id)
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// AddProduct validates sub and lists it for session's principal.
func (s *Service) AddProduct(ctx context.Context, session PrincipalSource, sub Submission) (domain.Product, error) {
	principal := session.Principal()
	if principal == nil {
		return domain.Product{}, ErrUnauthenticated
	}
	if err := sub.Validate(); err != nil {
		return domain.Product{}, err
	}

	path := "products/" + uuid.NewString() + imageExtensions[strings.ToLower(sub.Image.ContentType)]
	ref, err := s.blobs.Upload(ctx, path, sub.Image.Data, sub.Image.ContentType)
	if err != nil {
		return domain.Product{}, fmt.Errorf("upload product image: %w", err)
	}

	product, err := s.source.Insert(ctx, domain.ProductDraft{
		Name:        strings.TrimSpace(sub.Name),
		Image:       s.blobs.PublicURL(ref),
		Price:       sub.Price,
		Description: strings.TrimSpace(sub.Description),
		Category:    sub.Category,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	s.store.Append(product)

	s.logger.Info("product listed",
		zap.String("product_id", product.ID),
		zap.String("seller_id", principal.ID),
		zap.String("category", string(product.Category)))
	return product, nil
}
