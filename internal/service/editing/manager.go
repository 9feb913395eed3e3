package editing

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/domain/models"
)

// Manager keeps one edit session per entry.
type Manager struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
	writer   Writer
	logger   *zap.Logger
}

// NewManager creates a new session manager.
func NewManager(writer Writer, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[int64]*Session),
		writer:   writer,
		logger:   logger,
	}
}

// Open returns the session of entry, creating it on first use. An existing
// idle session picks up the given entry.
func (m *Manager) Open(entry models.InventoryEntry) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[entry.ID]; ok {
		s.Refresh(entry)
		return s
	}
	s := NewSession(entry, m.writer, m.logger.With(zap.Int64("entry_id", entry.ID)))
	m.sessions[entry.ID] = s
	return s
}

// Get retrieves the session of an entry.
func (m *Manager) Get(entryID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[entryID]
	return s, ok
}

// Close forgets the session of an entry.
func (m *Manager) Close(entryID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, entryID)
}

// Wait blocks until every session's dispatched deletes have finished.
func (m *Manager) Wait() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Wait()
	}
}
