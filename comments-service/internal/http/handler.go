package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stylehub/storefront/comments-service/internal/domain"
	"github.com/stylehub/storefront/pkg/httpapi"
	"github.com/stylehub/storefront/pkg/logger"
	"go.uber.org/zap"
)

type CommentStore interface {
	Add(ctx context.Context, c *domain.Comment) error
	ListByProduct(ctx context.Context, productID string) ([]domain.Comment, error)
}

type CommentsHandler struct {
	store    CommentStore
	validate *validator.Validate
	timeout  time.Duration
	log      *zap.Logger
}

func NewCommentsHandler(store CommentStore, timeout time.Duration, log *zap.Logger) *CommentsHandler {
	return &CommentsHandler{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  timeout,
		log:      log,
	}
}

type CreateCommentRequestDTO struct {
	ProductID string `json:"productId" validate:"required,max=128"`
	Author    string `json:"author" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Comment   string `json:"comment" validate:"required,max=2000"`
	Rating    int    `json:"rating" validate:"gte=0,lte=5"`
}

type ListResponseDTO struct {
	Comments []domain.Comment `json:"comments"`
}

// Routes mounts the comment endpoints; writes go through limiter.
func (h *CommentsHandler) Routes(limiter func(http.Handler) http.Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.List)
		r.With(limiter).Post("/", h.Create)
	}
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateCommentRequestDTO
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Author = strings.TrimSpace(req.Author)
	req.Email = strings.TrimSpace(req.Email)
	req.Comment = strings.TrimSpace(req.Comment)

	if err := h.validate.Struct(req); err != nil {
		httpapi.RespondJSON(w, http.StatusBadRequest, httpapi.ErrorResponse{
			Error:   "invalid comment",
			Code:    "validation_failed",
			Details: err.Error(),
		})
		return
	}

	c := &domain.Comment{
		ProductID: req.ProductID,
		Author:    req.Author,
		Email:     req.Email,
		Comment:   req.Comment,
		Rating:    req.Rating,
	}
	if err := h.store.Add(ctx, c); err != nil {
		logger.WithContext(ctx, h.log).Error("add comment", zap.String("product_id", c.ProductID), zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "Failed to add comment")
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, c)
}

func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := strings.TrimSpace(r.URL.Query().Get("productId"))
	if productID == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	comments, err := h.store.ListByProduct(ctx, productID)
	if err != nil {
		logger.WithContext(ctx, h.log).Error("list comments", zap.String("product_id", productID), zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch comments")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, ListResponseDTO{Comments: comments})
}
