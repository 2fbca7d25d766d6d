package service

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stylehub/storefront/pkg/logger"
	"github.com/stylehub/storefront/wishlist-service/internal/cache"
	"github.com/stylehub/storefront/wishlist-service/internal/domain"
	"github.com/stylehub/storefront/wishlist-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wishlist_cache_lookups_total",
	Help: "Wishlist cache lookups by result.",
}, []string{"result"})

type WishlistService struct {
	repo  repository.WishlistRepository
	cache cache.WishlistCache
	log   *zap.Logger
	sfg   singleflight.Group // Prevents cache stampede
}

func NewWishlistService(repo repository.WishlistRepository, cache cache.WishlistCache, log *zap.Logger) *WishlistService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WishlistService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (s *WishlistService) List(ctx context.Context, owner string) ([]domain.WishlistItem, error) {
	log := logger.WithContext(ctx, s.log)
	v, err, _ := s.sfg.Do(owner, func() (interface{}, error) {
		items, err := s.cache.Get(ctx, owner)
		if err == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return items, nil
		}

		if errors.Is(err, cache.ErrCacheMiss) {
			cacheLookups.WithLabelValues("miss").Inc()
		} else {
			cacheLookups.WithLabelValues("error").Inc()
			log.Warn("cache get error", zap.String("owner", owner), zap.Error(err))
		}

		// the epoch is read before the database so a write that commits in
		// between makes the write-back below a no-op
		version, verr := s.cache.Version(ctx, owner)

		items, err = s.repo.List(ctx, owner)
		if err != nil {
			return nil, err
		}

		if verr != nil {
			log.Warn("cache version error", zap.String("owner", owner), zap.Error(verr))
			return items, nil
		}

		go func(items []domain.WishlistItem) {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := s.cache.Set(setCtx, owner, items, version)
			if errors.Is(err, cache.ErrStaleVersion) {
				log.Debug("skipping stale cache write", zap.String("owner", owner))
				return
			}
			if err != nil {
				log.Warn("cache set error", zap.String("owner", owner), zap.Error(err))
			}
		}(items)

		return items, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.WishlistItem), nil
}

// Add stores item for owner. repository.ErrAlreadyExists is returned
// unchanged so callers can report the conflict.
func (s *WishlistService) Add(ctx context.Context, owner string, item domain.WishlistItem) (*domain.WishlistItem, error) {
	item.Owner = owner
	if err := s.repo.Add(ctx, &item); err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			logger.WithContext(ctx, s.log).Error("repo add item error", zap.String("owner", owner), zap.Error(err))
		}
		return nil, err
	}

	s.invalidateCache(owner)
	return &item, nil
}

func (s *WishlistService) Remove(ctx context.Context, owner, productID string) error {
	if err := s.repo.Remove(ctx, owner, productID); err != nil {
		if !errors.Is(err, repository.ErrItemNotFound) {
			logger.WithContext(ctx, s.log).Error("repo remove item error", zap.String("owner", owner), zap.Error(err))
		}
		return err
	}

	s.invalidateCache(owner)
	return nil
}

func (s *WishlistService) Clear(ctx context.Context, owner string) (int64, error) {
	n, err := s.repo.Clear(ctx, owner)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("repo clear error", zap.String("owner", owner), zap.Error(err))
		return 0, err
	}

	s.invalidateCache(owner)
	return n, nil
}

// invalidateCache runs after every write. Reads already in flight must not
// be shared with callers arriving after the write.
func (s *WishlistService) invalidateCache(owner string) {
	s.sfg.Forget(owner)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, owner); err != nil {
		s.log.Warn("cache invalidate error", zap.String("owner", owner), zap.Error(err))
	}
}
