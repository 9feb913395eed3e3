package editing

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/salesboard/internal/domain/models"
)

// ErrInvalidItem is returned when an item without product or quantity is added.
var ErrInvalidItem = errors.New("item needs a product and a quantity of at least 1")

// ErrRowOutOfRange is returned when BeginEdit targets a missing row.
var ErrRowOutOfRange = errors.New("row index out of range")

// ErrItemNotFound is returned when a delete names an item the entry does not
// hold.
var ErrItemNotFound = errors.New("item not found in entry")

// Table is the editable items list of one entry. The items belong to the
// caller and are handed back through onChange; the table only owns the row
// being edited and its draft.
type Table struct {
	items    []models.InventoryItem
	editing  int
	draft    *models.InventoryItem
	onChange func([]models.InventoryItem)
	onDelete func(id int64)
}

// NewTable builds a table over items. Both callbacks may be nil.
func NewTable(items []models.InventoryItem, onChange func([]models.InventoryItem), onDelete func(int64)) *Table {
	if onChange == nil {
		onChange = func([]models.InventoryItem) {}
	}
	if onDelete == nil {
		onDelete = func(int64) {}
	}
	return &Table{
		items:    append([]models.InventoryItem(nil), items...),
		editing:  -1,
		onChange: onChange,
		onDelete: onDelete,
	}
}

// Items returns a copy of the current items.
func (t *Table) Items() []models.InventoryItem {
	return append([]models.InventoryItem(nil), t.items...)
}

// Reset replaces the items and drops any edit in progress.
func (t *Table) Reset(items []models.InventoryItem) {
	t.items = append([]models.InventoryItem(nil), items...)
	t.clear()
}

// Editing returns the row being edited.
func (t *Table) Editing() (int, bool) {
	return t.editing, t.draft != nil
}

// Draft returns a copy of the draft.
func (t *Table) Draft() (models.InventoryItem, bool) {
	if t.draft == nil {
		return models.InventoryItem{}, false
	}
	return *t.draft, true
}

// BeginEdit loads row index into the draft. A row already being edited is
// replaced without notice.
func (t *Table) BeginEdit(index int) error {
	if index < 0 || index >= len(t.items) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}
	item := t.items[index]
	t.editing = index
	t.draft = &item
	return nil
}

// SelectProduct points the draft at p.
func (t *Table) SelectProduct(p models.Product) bool {
	if t.draft == nil {
		return false
	}
	updated := t.draft.WithProduct(p)
	t.draft = &updated
	return true
}

// SetDraftQty sets the draft quantity; values below 1 become 1.
func (t *Table) SetDraftQty(qty int) bool {
	if t.draft == nil {
		return false
	}
	if qty < 1 {
		qty = 1
	}
	t.draft.Qty = qty
	return true
}

// Commit writes the draft back into a new items slice and notifies the
// owner. It does nothing when no row is being edited.
func (t *Table) Commit() bool {
	if t.draft == nil || t.editing < 0 || t.editing >= len(t.items) {
		t.clear()
		return false
	}
	next := t.Items()
	next[t.editing] = *t.draft
	t.items = next
	t.clear()
	t.onChange(t.Items())
	return true
}

// Discard drops the draft; items are left as they were.
func (t *Table) Discard() {
	t.clear()
}

// Add appends item and notifies the owner.
func (t *Table) Add(item models.InventoryItem) error {
	if !item.Persistable() {
		return ErrInvalidItem
	}
	t.items = append(t.Items(), item)
	t.onChange(t.Items())
	return nil
}

// Delete tells the delete collaborator about id, then drops the item with
// that id and notifies the owner of the remaining list. Unsaved rows have no
// id and are removed with DeleteAt.
func (t *Table) Delete(id int64) error {
	if id == 0 {
		return fmt.Errorf("%w: unsaved rows are deleted by index", ErrItemNotFound)
	}
	for i, it := range t.items {
		if it.ID == id {
			t.onDelete(id)
			t.remove(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrItemNotFound, id)
}

// DeleteAt drops row index. A saved row also reaches the delete
// collaborator.
func (t *Table) DeleteAt(index int) error {
	if index < 0 || index >= len(t.items) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}
	if id := t.items[index].ID; id != 0 {
		t.onDelete(id)
	}
	t.remove(index)
	return nil
}

func (t *Table) remove(index int) {
	next := make([]models.InventoryItem, 0, len(t.items)-1)
	next = append(next, t.items[:index]...)
	next = append(next, t.items[index+1:]...)
	t.items = next
	t.clear()
	t.onChange(t.Items())
}

// replaceItems swaps the items after a save. An edit in progress survives
// when its row still exists.
func (t *Table) replaceItems(items []models.InventoryItem) {
	t.items = append([]models.InventoryItem(nil), items...)
	if t.editing >= len(t.items) {
		t.clear()
	}
}

func (t *Table) clear() {
	t.editing = -1
	t.draft = nil
}
