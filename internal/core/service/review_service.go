package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Law-son/Smart-Ecommerce-System/internal/cache"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
)

const maxCommentLength = 500

// ReviewInput is the payload for submitting a review.
type ReviewInput struct {
	UserID    int64  `json:"user_id" validate:"gt=0"`
	ProductID int64  `json:"product_id" validate:"gt=0"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comment   string `json:"comment"`
}

// ReviewService validates and stores reviews and caches per-product
// average ratings.
type ReviewService struct {
	store    port.Store
	ratings  *cache.Cache[int64, float64]
	validate *validator.Validate
}

func NewReviewService(store port.Store, ratings *cache.Cache[int64, float64]) *ReviewService {
	return &ReviewService{
		store:    store,
		ratings:  ratings,
		validate: validator.New(),
	}
}

// SubmitReview persists a review and invalidates the cached average for
// the product. Comments longer than 500 characters after trimming are
// truncated rather than rejected.
func (s *ReviewService) SubmitReview(ctx context.Context, in ReviewInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrValidation, formatValidationError(err))
	}

	comment := strings.TrimSpace(in.Comment)
	if len([]rune(comment)) > maxCommentLength {
		comment = string([]rune(comment)[:maxCommentLength])
	}

	id, err := s.store.InsertReview(ctx, domain.Review{
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   comment,
	})
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}

	s.ratings.Invalidate(in.ProductID)
	log.Debug().Int64("product_id", in.ProductID).Int("rating", in.Rating).Msg("review submitted")
	return id, nil
}

// AverageRating returns the mean rating for a product, cache-first. A
// product without reviews rates 0.0, and that value is cached too.
func (s *ReviewService) AverageRating(ctx context.Context, productID int64) (float64, error) {
	if rating, ok := s.ratings.Get(productID); ok {
		return rating, nil
	}

	rating, err := s.store.AverageRating(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}

	s.ratings.Put(productID, rating)
	return rating, nil
}

// ReviewsByProduct lists the persisted reviews for a product.
func (s *ReviewService) ReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	reviews, err := s.store.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		parts = append(parts, fmt.Sprintf("%s violates '%s'", e.Field(), e.Tag()))
	}
	return strings.Join(parts, "; ")
}
