package models

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesboard/internal/calendar"
)

// Product is a catalog article that items reference.
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	AttrNumber string          `json:"attr_num"`
}

// InventoryItem is one product line of an entry. Name, price and attr number
// are copied from the product when it is selected.
type InventoryItem struct {
	ID         int64           `json:"id,omitempty"`
	ProductID  int64           `json:"product_id"`
	AttrNumber string          `json:"attr_number"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Qty        int             `json:"qty"`
}

// Persistable reports whether the item may be sent to the backend.
func (i InventoryItem) Persistable() bool {
	return i.ProductID != 0 && i.Qty >= 1
}

// WithProduct returns a copy of the item pointing at p.
func (i InventoryItem) WithProduct(p Product) InventoryItem {
	i.ProductID = p.ID
	i.Name = p.Name
	i.Price = p.Price
	i.AttrNumber = p.AttrNumber
	return i
}

// Split is the cash/card breakdown of an entry total.
type Split struct {
	Cash decimal.Decimal `json:"cash"`
	Card decimal.Decimal `json:"card"`
}

// InventoryEntry is one day's sales record. Qty, Total and Split are derived
// from Items and are never edited directly.
type InventoryEntry struct {
	ID    int64           `json:"id"`
	Date  calendar.Date   `json:"date"`
	Items []InventoryItem `json:"items"`
	Qty   int             `json:"qty"`
	Total decimal.Decimal `json:"total"`
	Split *Split          `json:"split,omitempty"`
}

// Clone deep-copies the entry so callers can mutate it freely.
func (e InventoryEntry) Clone() InventoryEntry {
	out := e
	out.Items = append([]InventoryItem(nil), e.Items...)
	if e.Split != nil {
		split := *e.Split
		out.Split = &split
	}
	return out
}

// EntryDraft is the create/replace payload for an entry.
type EntryDraft struct {
	Date  calendar.Date `json:"date"`
	Items []ItemRef     `json:"items"`
}

// ItemRef references a product and a quantity.
type ItemRef struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

// DraftOf builds the replace payload of an entry.
func DraftOf(e InventoryEntry) EntryDraft {
	refs := make([]ItemRef, 0, len(e.Items))
	for _, it := range e.Items {
		refs = append(refs, ItemRef{ProductID: it.ProductID, Qty: it.Qty})
	}
	return EntryDraft{Date: e.Date, Items: refs}
}

// NewProduct is the create payload of a product. AttrNumber is optional.
type NewProduct struct {
	Name       string          `json:"name"`
	AttrNumber string          `json:"attr_num,omitempty"`
	Price      decimal.Decimal `json:"price"`
}

// ImportResult lists the days an import created or replaced.
type ImportResult struct {
	ImportedDates []string `json:"imported_dates"`
}
