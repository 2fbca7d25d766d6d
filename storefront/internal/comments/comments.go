package comments

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stylehub/storefront/storefront/internal/domain"
	"github.com/stylehub/storefront/storefront/internal/remote"
	"go.uber.org/zap"
)

var ErrInvalidComment = errors.New("author and comment are required")

// Input is a comment as entered by a customer. Rating 0 means none.
type Input struct {
	ProductID string `validate:"required"`
	Author    string `validate:"required"`
	Email     string `validate:"omitempty,email"`
	Comment   string `validate:"required"`
	Rating    int    `validate:"gte=0,lte=5"`
}

// ValidationError lists the fields that failed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidComment.Error() + " (" + strings.Join(e.Fields, ", ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrInvalidComment }

type Store interface {
	Add(ctx context.Context, in remote.CommentInput) (*domain.Comment, error)
	List(ctx context.Context, productID string) ([]domain.Comment, error)
}

type Service struct {
	store    Store
	validate *validator.Validate
	log      *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Validate trims whitespace-only fields before checking them.
func (s *Service) Validate(in Input) error {
	in.Author = strings.TrimSpace(in.Author)
	in.Comment = strings.TrimSpace(in.Comment)

	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, fe.Field())
	}
	return ve
}

// Submit validates locally and only then posts the comment.
func (s *Service) Submit(ctx context.Context, in Input) (*domain.Comment, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	created, err := s.store.Add(ctx, remote.CommentInput{
		ProductID: in.ProductID,
		Author:    strings.TrimSpace(in.Author),
		Email:     in.Email,
		Comment:   strings.TrimSpace(in.Comment),
		Rating:    in.Rating,
	})
	if err != nil {
		s.log.Error("failed to add comment", zap.String("product_id", in.ProductID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

// List never fails; errors are logged and yield an empty list.
func (s *Service) List(ctx context.Context, productID string) []domain.Comment {
	comments, err := s.store.List(ctx, productID)
	if err != nil {
		s.log.Warn("failed to fetch comments", zap.String("product_id", productID), zap.Error(err))
		return []domain.Comment{}
	}
	if comments == nil {
		return []domain.Comment{}
	}
	return comments
}

// Stats summarises ratings. Comments without a rating count towards
// TotalComments only. The average is rounded to one decimal.
func Stats(comments []domain.Comment) domain.CommentStats {
	stats := domain.CommentStats{
		TotalComments:      len(comments),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	sum := 0
	for _, c := range comments {
		if c.Rating < 1 || c.Rating > 5 {
			continue
		}
		stats.RatingDistribution[c.Rating]++
		stats.TotalRatings++
		sum += c.Rating
	}

	if stats.TotalRatings > 0 {
		avg := float64(sum) / float64(stats.TotalRatings)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}
