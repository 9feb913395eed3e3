package editing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/totals"
)

// ErrPending is returned when a change arrives while the previous one is
// still being saved.
var ErrPending = errors.New("a save is already in progress for this entry")

// ErrNotEditing is returned by draft operations when no row is being edited.
var ErrNotEditing = errors.New("no row is being edited")

// Writer persists entries and deletes items on the backend.
type Writer interface {
	UpdateEntry(ctx context.Context, entry models.InventoryEntry) (models.InventoryEntry, error)
	DeleteItem(ctx context.Context, itemID int64) error
}

// Status is the save badge shown next to an entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSaving  Status = "saving"
	StatusSaved   Status = "saved"
	StatusFailed  Status = "failed"
	StatusDeleted Status = "deleted"
)

// State is a snapshot of a session.
type State struct {
	Entry        models.InventoryEntry `json:"entry"`
	EditingIndex *int                  `json:"editing_index,omitempty"`
	Draft        *models.InventoryItem `json:"draft,omitempty"`
	Status       Status                `json:"status"`
	Error        string                `json:"error,omitempty"`
}

// Session edits the items of one entry and pushes every structural change to
// the backend as a full replace. Local state is optimistic: a failed save
// keeps it and only flips the status to failed.
type Session struct {
	mu      sync.Mutex
	entry   models.InventoryEntry
	table   *Table
	writer  Writer
	logger  *zap.Logger
	status  Status
	lastErr string
	pending bool
	changed bool

	deleteTimeout time.Duration
	deletes       sync.WaitGroup
}

// NewSession opens an edit session on entry.
func NewSession(entry models.InventoryEntry, writer Writer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		entry:         entry.Clone(),
		writer:        writer,
		logger:        logger,
		status:        StatusIdle,
		deleteTimeout: 15 * time.Second,
	}
	s.table = NewTable(entry.Items, s.onItemsChanged, s.dispatchDelete)
	return s
}

// EntryID is the id of the edited entry.
func (s *Session) EntryID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry.ID
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Refresh adopts a freshly fetched entry unless the session is busy or holds
// local changes whose save failed.
func (s *Session) Refresh(entry models.InventoryEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, editing := s.table.Editing(); editing || s.pending || s.status == StatusFailed {
		return false
	}
	s.entry = entry.Clone()
	s.table.Reset(entry.Items)
	return true
}

// BeginEdit starts editing row index.
func (s *Session) BeginEdit(index int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.BeginEdit(index); err != nil {
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

// SelectProduct points the draft at p.
func (s *Session) SelectProduct(p models.Product) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.table.SelectProduct(p) {
		return s.stateLocked(), ErrNotEditing
	}
	return s.stateLocked(), nil
}

// SetDraftQty changes the draft quantity.
func (s *Session) SetDraftQty(qty int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.table.SetDraftQty(qty) {
		return s.stateLocked(), ErrNotEditing
	}
	return s.stateLocked(), nil
}

// Discard drops the draft.
func (s *Session) Discard() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table.Discard()
	return s.stateLocked()
}

// Commit saves the draft into the items and pushes the entry.
func (s *Session) Commit(ctx context.Context) (State, error) {
	return s.mutate(ctx, StatusSaved, func(t *Table) error {
		t.Commit()
		return nil
	})
}

// Add appends item and pushes the entry.
func (s *Session) Add(ctx context.Context, item models.InventoryItem) (State, error) {
	return s.mutate(ctx, StatusSaved, func(t *Table) error {
		return t.Add(item)
	})
}

// Delete removes the item with itemID and pushes the entry. The backend
// delete of the item itself is fired without waiting for its outcome. An id
// the entry does not hold is rejected with ErrItemNotFound and nothing is
// sent.
func (s *Session) Delete(ctx context.Context, itemID int64) (State, error) {
	return s.mutate(ctx, StatusDeleted, func(t *Table) error {
		return t.Delete(itemID)
	})
}

// DeleteRow removes row index, saved or not, and pushes the entry.
func (s *Session) DeleteRow(ctx context.Context, index int) (State, error) {
	return s.mutate(ctx, StatusDeleted, func(t *Table) error {
		return t.DeleteAt(index)
	})
}

// Wait blocks until dispatched item deletes have finished.
func (s *Session) Wait() {
	s.deletes.Wait()
}

func (s *Session) mutate(ctx context.Context, success Status, fn func(*Table) error) (State, error) {
	s.mu.Lock()
	if s.pending {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, ErrPending
	}

	s.changed = false
	if err := fn(s.table); err != nil {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, err
	}
	if !s.changed {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, nil
	}

	s.pending = true
	s.status = StatusSaving
	optimistic := s.entry.Clone()
	s.mu.Unlock()

	saved, err := s.writer.UpdateEntry(ctx, optimistic)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false

	if err != nil {
		s.status = StatusFailed
		s.lastErr = err.Error()
		s.logger.Warn("entry save failed, keeping local changes",
			zap.Int64("entry_id", optimistic.ID),
			zap.Error(err))
		return s.stateLocked(), fmt.Errorf("save entry %d: %w", optimistic.ID, err)
	}

	if saved.Split == nil {
		saved.Split = optimistic.Split
	}
	s.entry = saved.Clone()
	s.table.replaceItems(saved.Items)
	s.status = success
	s.lastErr = ""
	s.logger.Debug("entry saved", zap.Int64("entry_id", saved.ID), zap.Int("items", len(saved.Items)))
	return s.stateLocked(), nil
}

// onItemsChanged runs under s.mu, called back from the table.
func (s *Session) onItemsChanged(items []models.InventoryItem) {
	s.entry = totals.Apply(s.entry, items)
	s.changed = true
}

// dispatchDelete runs under s.mu, called back from the table.
func (s *Session) dispatchDelete(itemID int64) {
	if itemID == 0 {
		return
	}
	s.deletes.Add(1)
	go func() {
		defer s.deletes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.deleteTimeout)
		defer cancel()

		if err := s.writer.DeleteItem(ctx, itemID); err != nil {
			s.logger.Warn("item delete failed", zap.Int64("item_id", itemID), zap.Error(err))
			return
		}
		s.logger.Debug("item deleted", zap.Int64("item_id", itemID))
	}()
}

func (s *Session) stateLocked() State {
	state := State{
		Entry:  s.entry.Clone(),
		Status: s.status,
		Error:  s.lastErr,
	}
	if idx, ok := s.table.Editing(); ok {
		i := idx
		state.EditingIndex = &i
		if draft, ok := s.table.Draft(); ok {
			state.Draft = &draft
		}
	}
	if s.pending {
		state.Status = StatusSaving
	}
	return state
}
