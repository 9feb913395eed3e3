// Package preferences persists the dashboard's anchor date and active view.
package preferences

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
)

// Keys under which the view state is stored.
const (
	KeyCurrentDate = "inv.currentDate"
	KeyActiveView  = "inv.activeView"
)

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ViewPreference is the persisted view state.
type ViewPreference struct {
	Anchor calendar.Date `json:"anchor"`
	View   calendar.View `json:"view"`
}

// Service loads and saves the view state.
type Service struct {
	store  Store
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService wires a preference service. loc decides what "today" is.
func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now, logger: logger}
}

// Today is the current calendar day in the configured timezone.
func (s *Service) Today() calendar.Date {
	return calendar.DateOf(s.now().In(s.loc))
}

// Load reads the stored state. Missing, unreadable or unparsable values fall
// back to today and the month view.
func (s *Service) Load(ctx context.Context) ViewPreference {
	pref := ViewPreference{Anchor: s.Today(), View: calendar.ViewMonth}

	if raw, ok := s.get(ctx, KeyCurrentDate); ok {
		if d, err := calendar.ParseDate(raw); err == nil {
			pref.Anchor = d
		} else {
			s.logger.Debug("ignoring stored anchor date", zap.String("value", raw), zap.Error(err))
		}
	}
	if raw, ok := s.get(ctx, KeyActiveView); ok {
		if v, err := calendar.ParseView(raw); err == nil {
			pref.View = v
		} else {
			s.logger.Debug("ignoring stored view", zap.String("value", raw), zap.Error(err))
		}
	}
	return pref
}

// Save stores the state.
func (s *Service) Save(ctx context.Context, pref ViewPreference) error {
	if err := s.store.Set(ctx, KeyCurrentDate, pref.Anchor.String()); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyActiveView, string(pref.View))
}

func (s *Service) get(ctx context.Context, key string) (string, bool) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("preference read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, ok
}

// MemoryStore keeps preferences in process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
