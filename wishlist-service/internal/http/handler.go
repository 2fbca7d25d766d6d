package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stylehub/storefront/pkg/httpapi"
	"github.com/stylehub/storefront/pkg/logger"
	"github.com/stylehub/storefront/wishlist-service/internal/domain"
	"github.com/stylehub/storefront/wishlist-service/internal/repository"
	"go.uber.org/zap"
)

type WishlistService interface {
	List(ctx context.Context, owner string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, owner string, item domain.WishlistItem) (*domain.WishlistItem, error)
	Remove(ctx context.Context, owner, productID string) error
	Clear(ctx context.Context, owner string) (int64, error)
}

type WishlistHandler struct {
	service WishlistService
	timeout time.Duration
	log     *zap.Logger
}

func NewWishlistHandler(service WishlistService, timeout time.Duration, log *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
}

type ListResponseDTO struct {
	Items []domain.WishlistItem `json:"items"`
}

type ConflictResponseDTO struct {
	Error         string `json:"error"`
	AlreadyExists bool   `json:"alreadyExists"`
}

func (h *WishlistHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Delete("/", h.Clear)
	r.Delete("/{productId}", h.Remove)
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner := httpapi.SessionIDFromContext(r.Context())
	items, err := h.service.List(ctx, owner)
	if err != nil {
		logger.WithContext(ctx, h.log).Error("list wishlist", zap.String("owner", owner), zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to load wishlist")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, ListResponseDTO{Items: items})
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Price < 0 {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	owner := httpapi.SessionIDFromContext(r.Context())
	item, err := h.service.Add(ctx, owner, domain.WishlistItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
		Category:  req.Category,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		httpapi.RespondJSON(w, http.StatusConflict, ConflictResponseDTO{
			Error:         "product already in wishlist",
			AlreadyExists: true,
		})
		return
	}
	if err != nil {
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, item)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "productId")
	owner := httpapi.SessionIDFromContext(r.Context())

	err := h.service.Remove(ctx, owner, productID)
	if errors.Is(err, repository.ErrItemNotFound) {
		httpapi.RespondError(w, http.StatusNotFound, "not_found", "product not in wishlist")
		return
	}
	if err != nil {
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner := httpapi.SessionIDFromContext(r.Context())
	removed, err := h.service.Clear(ctx, owner)
	if err != nil {
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to clear wishlist")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
