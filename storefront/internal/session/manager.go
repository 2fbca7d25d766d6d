package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionKey    = "stylehub_session_id"
	historyPrefix = "chat_history_"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Manager owns the anonymous session id shared by the cart, wishlist and
// checkout flows.
type Manager struct {
	mu      sync.Mutex
	storage Storage
	log     *zap.Logger
}

func NewManager(storage Storage, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{storage: storage, log: log}
}

// GetOrCreateSessionID returns the stored id, creating and persisting a new
// UUIDv4 when none exists.
func (m *Manager) GetOrCreateSessionID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.storage.Get(ctx, SessionKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("load session: %w", err)
	}

	id = uuid.NewString()
	if err := m.storage.Set(ctx, SessionKey, id); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	m.log.Info("session created", zap.String("session_id", id))
	return id, nil
}

// SessionID returns the stored id without creating one. ok is false when no
// session exists.
func (m *Manager) SessionID(ctx context.Context) (id string, ok bool, err error) {
	id, err = m.storage.Get(ctx, SessionKey)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session: %w", err)
	}
	return id, id != "", nil
}

// ResetSession replaces the stored id. History of the previous session is
// left in storage.
func (m *Manager) ResetSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	if err := m.storage.Set(ctx, SessionKey, id); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	m.log.Info("session reset", zap.String("session_id", id))
	return id, nil
}

func (m *Manager) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) LoadHistory(ctx context.Context) ([]ChatMessage, error) {
	key, err := m.historyKey(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := m.storage.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var msgs []ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		m.log.Warn("discarding unreadable chat history", zap.String("key", key), zap.Error(err))
		return []ChatMessage{}, nil
	}
	return msgs, nil
}

func (m *Manager) AppendHistory(ctx context.Context, msg ChatMessage) error {
	msgs, err := m.LoadHistory(ctx)
	if err != nil {
		return err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msgs = append(msgs, msg)

	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	key, err := m.historyKey(ctx)
	if err != nil {
		return err
	}
	return m.storage.Set(ctx, key, string(raw))
}

func (m *Manager) ClearHistory(ctx context.Context) error {
	key, err := m.historyKey(ctx)
	if err != nil {
		return err
	}
	return m.storage.Delete(ctx, key)
}

func (m *Manager) historyKey(ctx context.Context) (string, error) {
	id, err := m.GetOrCreateSessionID(ctx)
	if err != nil {
		return "", err
	}
	return historyPrefix + id, nil
}
