package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Law-son/Smart-Ecommerce-System/internal/cache"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
)

// ProductInput is the payload for creating or updating a product.
type ProductInput struct {
	CategoryID  int64           `json:"category_id" validate:"gt=0"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

// CatalogService serves catalog reads cache-first and owns both product
// caches. Any catalog write clears the per-id cache and invalidates the
// list cache wholesale: partial invalidation risks staleness.
type CatalogService struct {
	store    port.Store
	products *cache.Cache[int64, domain.Product]
	list     *cache.ListCache[domain.Product]
	reviews  *ReviewService
	validate *validator.Validate
}

func NewCatalogService(store port.Store, products *cache.Cache[int64, domain.Product], list *cache.ListCache[domain.Product], reviews *ReviewService) *CatalogService {
	return &CatalogService{
		store:    store,
		products: products,
		list:     list,
		reviews:  reviews,
		validate: validator.New(),
	}
}

// GetAllProducts returns the whole catalog, from the list cache while it
// is valid. A miss fetches from the store and populates both caches.
func (s *CatalogService) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok := s.list.Get(); ok {
		return products, nil
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	for _, p := range products {
		s.products.Put(p.ID, p)
	}
	s.list.Put(products)
	log.Debug().Int("count", len(products)).Msg("catalog cache reloaded")

	out := make([]domain.Product, len(products))
	copy(out, products)
	return out, nil
}

// GetProduct returns a single product, cache-first.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if p, ok := s.products.Get(id); ok {
		return p, nil
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}

	s.products.Put(id, p)
	return p, nil
}

// SearchByName filters products by case-insensitive substring match on
// the name. A blank keyword returns the whole catalog. While the list
// cache is valid the filter runs against it and its result is trusted,
// an empty result included; only an invalid list cache falls back to the
// store's search.
func (s *CatalogService) SearchByName(ctx context.Context, keyword string) ([]domain.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.GetAllProducts(ctx)
	}

	if products, ok := s.list.Get(); ok {
		needle := strings.ToLower(keyword)
		matched := make([]domain.Product, 0)
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				matched = append(matched, p)
			}
		}
		return matched, nil
	}

	products, err := s.store.SearchProducts(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// SortByPrice returns the catalog ordered by price. Ties break
// arbitrarily; the sort is not required to be stable.
func (s *CatalogService) SortByPrice(ctx context.Context, ascending bool) ([]domain.Product, error) {
	products, err := s.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(products, func(i, j int) bool {
		cmp := products[i].Price.Cmp(products[j].Price)
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	})
	return products, nil
}

// SortByName returns the catalog in case-insensitive lexicographic order.
// The sort is stable: products with equal names keep their input order.
func (s *CatalogService) SortByName(ctx context.Context) ([]domain.Product, error) {
	products, err := s.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})
	return products, nil
}

// SortByRating returns the catalog ordered by average rating, highest
// first. Ratings come through the rating cache.
func (s *CatalogService) SortByRating(ctx context.Context) ([]domain.Product, error) {
	products, err := s.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	ratings := make(map[int64]float64, len(products))
	for _, p := range products {
		rating, err := s.reviews.AverageRating(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		ratings[p.ID] = rating
	}

	sort.Slice(products, func(i, j int) bool {
		return ratings[products[i].ID] > ratings[products[j].ID]
	})
	return products, nil
}

// CreateProduct validates and persists a new product, then invalidates
// the entire product cache.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (int64, error) {
	p, err := s.productFromInput(in)
	if err != nil {
		return 0, err
	}

	id, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}

	s.invalidateAll()
	return id, nil
}

// UpdateProduct validates and persists changes to an existing product,
// then invalidates the entire product cache.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	p, err := s.productFromInput(in)
	if err != nil {
		return err
	}
	p.ID = id

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update product: %w", err)
	}

	s.invalidateAll()
	return nil
}

// DeleteProduct removes a product and invalidates the entire product
// cache.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidateAll()
	return nil
}

func (s *CatalogService) productFromInput(in ProductInput) (domain.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if in.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}
	if err := s.validate.Struct(in); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrValidation, formatValidationError(err))
	}

	return domain.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	}, nil
}

func (s *CatalogService) invalidateAll() {
	s.products.Clear()
	s.list.Invalidate()
	log.Debug().Msg("product cache invalidated")
}
