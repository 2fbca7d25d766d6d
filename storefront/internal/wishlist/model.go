package wishlist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stylehub/storefront/storefront/internal/domain"
	"github.com/stylehub/storefront/storefront/internal/remote"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrLoad   = errors.New("failed to load wishlist")
	ErrAdd    = errors.New("failed to add to wishlist")
	ErrRemove = errors.New("failed to remove from wishlist")
	ErrClear  = errors.New("failed to clear wishlist")
)

const (
	placeholderPrefix = "local-"
	refreshKey        = "refresh"
)

// Remote is the wishlist store the model mirrors.
type Remote interface {
	List(ctx context.Context) ([]domain.WishlistEntry, error)
	Add(ctx context.Context, p domain.Product) (remote.AddResult, error)
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// Model is an optimistic local mirror of the remote wishlist. Mutations
// update local state first and compensate if the remote call fails.
// Operations on the same product are serialised.
type Model struct {
	remote Remote
	log    *zap.Logger

	mu      sync.RWMutex
	entries []domain.WishlistEntry
	err     error
	loading int
	// acked counts remote writes that succeeded. A reload started before
	// the latest acknowledged write is discarded.
	acked uint64

	keys keyedMutex
	sfg  singleflight.Group
}

func NewModel(r Remote, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{remote: r, log: log, entries: []domain.WishlistEntry{}}
}

// Add optimistically lists the product and creates it remotely. Created and
// AlreadyExists are both successes and trigger a reload.
func (m *Model) Add(ctx context.Context, p domain.Product) (remote.AddOutcome, error) {
	unlock := m.keys.Lock(p.ID)
	defer unlock()
	return m.add(ctx, p)
}

func (m *Model) add(ctx context.Context, p domain.Product) (remote.AddOutcome, error) {
	placeholder := domain.WishlistEntry{
		ID:        placeholderPrefix + uuid.NewString(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		AddedAt:   time.Now().UTC(),
		Pending:   true,
	}
	t := m.apply(func(cur []domain.WishlistEntry) transition { return reduceAdd(cur, placeholder) })

	res, err := m.remote.Add(ctx, p)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAdd, err)
		m.fail(t, err)
		m.log.Warn("wishlist add failed", zap.String("product_id", p.ID), zap.Error(err))
		return 0, err
	}

	if res.Outcome == remote.AlreadyExists {
		m.log.Debug("product already in wishlist", zap.String("product_id", p.ID))
	}
	m.acknowledge()
	m.sfg.Forget(refreshKey)
	_ = m.Refresh(ctx)
	return res.Outcome, nil
}

// Remove optimistically drops the product and deletes it remotely. A remote
// 404 counts as success.
func (m *Model) Remove(ctx context.Context, productID string) error {
	unlock := m.keys.Lock(productID)
	defer unlock()
	return m.remove(ctx, productID)
}

func (m *Model) remove(ctx context.Context, productID string) error {
	t := m.apply(func(cur []domain.WishlistEntry) transition { return reduceRemove(cur, productID) })

	err := m.remote.Remove(ctx, productID)
	if err != nil && !remote.IsStatus(err, http.StatusNotFound) {
		err = fmt.Errorf("%w: %w", ErrRemove, err)
		m.fail(t, err)
		m.log.Warn("wishlist remove failed", zap.String("product_id", productID), zap.Error(err))
		return err
	}
	m.acknowledge()
	return nil
}

// Toggle removes the product if listed, otherwise adds it. added reports
// which branch ran.
func (m *Model) Toggle(ctx context.Context, p domain.Product) (added bool, err error) {
	unlock := m.keys.Lock(p.ID)
	defer unlock()

	if m.Contains(p.ID) {
		return false, m.remove(ctx, p.ID)
	}
	_, err = m.add(ctx, p)
	return true, err
}

func (m *Model) Contains(productID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return indexOf(m.entries, productID) >= 0
}

func (m *Model) Clear(ctx context.Context) error {
	t := m.apply(reduceClear)

	if err := m.remote.Clear(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrClear, err)
		m.fail(t, err)
		m.log.Warn("wishlist clear failed", zap.Error(err))
		return err
	}
	m.acknowledge()
	return nil
}

// Refresh replaces local state with the remote list. On failure the list
// is emptied and the error recorded. Concurrent calls share one request.
// A result is dropped if a remote write was acknowledged while it loaded.
func (m *Model) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.loading++
	m.mu.Unlock()

	_, err, _ := m.sfg.Do(refreshKey, func() (interface{}, error) {
		m.mu.RLock()
		started := m.acked
		m.mu.RUnlock()

		items, err := m.remote.List(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.acked != started {
			m.log.Debug("discarding wishlist load that predates a write")
			return nil, nil
		}
		if err != nil {
			m.entries = []domain.WishlistEntry{}
			m.err = fmt.Errorf("%w: %w", ErrLoad, err)
			return nil, m.err
		}
		m.entries = items
		m.err = nil
		return nil, nil
	})

	m.mu.Lock()
	m.loading--
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("wishlist load failed", zap.Error(err))
	}
	return err
}

// Entries returns a copy of the current list, newest first.
func (m *Model) Entries() []domain.WishlistEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.WishlistEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Model) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Err is the error of the last failed operation, cleared by the next one.
func (m *Model) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Model) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading > 0
}

func (m *Model) acknowledge() {
	m.mu.Lock()
	m.acked++
	m.mu.Unlock()
}

func (m *Model) apply(reduce func([]domain.WishlistEntry) transition) transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := reduce(m.entries)
	m.entries = t.next
	m.err = nil
	return t
}

func (m *Model) fail(t transition, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = t.compensate(m.entries)
	m.err = err
}
