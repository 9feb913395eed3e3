// Package inventorysync reads and writes inventory data through the backend
// client, caching reads and invalidating them after writes.
package inventorysync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mamadbah2/salesboard/internal/cache"
	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
)

const (
	entriesPrefix = "inventory:"
	productsKey   = "products"
)

// Backend is the inventory REST backend.
type Backend interface {
	ListEntries(ctx context.Context, start, end calendar.Date) ([]models.InventoryEntry, error)
	CreateEntry(ctx context.Context, draft models.EntryDraft) (models.InventoryEntry, error)
	UpdateEntry(ctx context.Context, id int64, draft models.EntryDraft) (models.InventoryEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
	DeleteItem(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p models.NewProduct) (models.Product, error)
	ExportCSV(ctx context.Context, start, end calendar.Date) ([]byte, error)
	ImportTemplate(ctx context.Context) ([]byte, error)
	ImportCSV(ctx context.Context, filename string, file io.Reader) (models.ImportResult, error)
	ImportJSON(ctx context.Context, blocks []models.EntryDraft) (models.ImportResult, error)
}

// Service is the sync adapter used by the handlers, the edit sessions and the
// report job.
type Service struct {
	backend Backend
	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger

	// genMu guards gens. Writers hold it shared while checking the
	// generation and storing a fetched value; invalidate holds it
	// exclusively while bumping.
	genMu sync.RWMutex
	gens  map[string]uint64
}

// NewService wires the adapter. A zero ttl means 60 seconds.
func NewService(backend Backend, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Service{
		backend: backend,
		cache:   c,
		ttl:     ttl,
		logger:  logger,
		gens:    make(map[string]uint64),
	}
}

// prefixOf maps a cache key to the invalidation prefix that covers it.
func prefixOf(key string) string {
	if strings.HasPrefix(key, entriesPrefix) {
		return entriesPrefix
	}
	return key
}

func (s *Service) generation(prefix string) uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gens[prefix]
}

func entriesKey(r calendar.Range) string {
	return entriesPrefix + r.Start.String() + ":" + r.End.String()
}

// Entries returns the entries dated within r.
func (s *Service) Entries(ctx context.Context, r calendar.Range) ([]models.InventoryEntry, error) {
	var out []models.InventoryEntry
	err := s.cached(ctx, entriesKey(r), &out, func() (any, error) {
		return s.backend.ListEntries(ctx, r.Start, r.End)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DayEntry returns the first entry dated on d.
func (s *Service) DayEntry(ctx context.Context, d calendar.Date) (models.InventoryEntry, bool, error) {
	entries, err := s.Entries(ctx, calendar.Range{Start: d, End: d})
	if err != nil {
		return models.InventoryEntry{}, false, err
	}
	for _, e := range entries {
		if e.Date == d {
			return e, true, nil
		}
	}
	return models.InventoryEntry{}, false, nil
}

// Products returns the catalog.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := s.cached(ctx, productsKey, &out, func() (any, error) {
		return s.backend.ListProducts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts filters the catalog by a case-insensitive substring of the
// name or attr number. An empty query returns everything.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products, nil
	}

	matches := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.AttrNumber), q) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Product finds a product by id.
func (s *Service) Product(ctx context.Context, id int64) (models.Product, bool, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return models.Product{}, false, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return models.Product{}, false, nil
}

// CreateEntry creates an entry on date with no items.
func (s *Service) CreateEntry(ctx context.Context, date calendar.Date) (models.InventoryEntry, error) {
	entry, err := s.backend.CreateEntry(ctx, models.EntryDraft{Date: date, Items: []models.ItemRef{}})
	if err != nil {
		return models.InventoryEntry{}, err
	}
	s.invalidate(ctx, entriesPrefix)
	return entry, nil
}

// UpdateEntry replaces the items of entry on the backend.
func (s *Service) UpdateEntry(ctx context.Context, entry models.InventoryEntry) (models.InventoryEntry, error) {
	saved, err := s.backend.UpdateEntry(ctx, entry.ID, models.DraftOf(entry))
	if err != nil {
		return models.InventoryEntry{}, err
	}
	s.invalidate(ctx, entriesPrefix)
	return saved, nil
}

// DeleteEntry deletes an entry.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.backend.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, entriesPrefix)
	return nil
}

// DeleteItem deletes one item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.backend.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, entriesPrefix)
	return nil
}

// CreateProduct adds a product.
func (s *Service) CreateProduct(ctx context.Context, p models.NewProduct) (models.Product, error) {
	created, err := s.backend.CreateProduct(ctx, p)
	if err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx, productsKey)
	return created, nil
}

// ExportCSV passes the backend export through.
func (s *Service) ExportCSV(ctx context.Context, r calendar.Range) ([]byte, error) {
	return s.backend.ExportCSV(ctx, r.Start, r.End)
}

// ImportTemplate passes the backend template through.
func (s *Service) ImportTemplate(ctx context.Context) ([]byte, error) {
	return s.backend.ImportTemplate(ctx)
}

// ImportCSV uploads a CSV file.
func (s *Service) ImportCSV(ctx context.Context, filename string, file io.Reader) (models.ImportResult, error) {
	res, err := s.backend.ImportCSV(ctx, filename, file)
	if err != nil {
		return models.ImportResult{}, err
	}
	s.invalidate(ctx, entriesPrefix)
	return res, nil
}

// ImportJSON uploads entry blocks.
func (s *Service) ImportJSON(ctx context.Context, blocks []models.EntryDraft) (models.ImportResult, error) {
	res, err := s.backend.ImportJSON(ctx, blocks)
	if err != nil {
		return models.ImportResult{}, err
	}
	s.invalidate(ctx, entriesPrefix)
	return res, nil
}

// cached serves key from the cache, collapsing concurrent misses into one
// fetch. Cache failures only cost a backend round trip.
func (s *Service) cached(ctx context.Context, key string, dst any, fetch func() (any, error)) error {
	if raw, err := s.cache.Get(ctx, key); err == nil {
		if err := json.Unmarshal(raw, dst); err == nil {
			return nil
		}
		s.logger.Warn("dropping unreadable cache value", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	prefix := prefixOf(key)
	gen := s.generation(prefix)

	// Reads issued after a write never join a flight started before it.
	flight := key + "#" + strconv.FormatUint(gen, 10)
	raw, err, shared := s.group.Do(flight, func() (any, error) {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		s.store(ctx, key, prefix, gen, encoded)
		return encoded, nil
	})
	if err != nil {
		return err
	}
	if shared {
		s.logger.Debug("collapsed concurrent read", zap.String("key", key))
	}
	return json.Unmarshal(raw.([]byte), dst)
}

// store caches a fetched value unless a write invalidated prefix after the
// fetch began.
func (s *Service) store(ctx context.Context, key, prefix string, gen uint64, encoded []byte) {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gens[prefix] != gen {
		s.logger.Debug("skipping stale cache write", zap.String("key", key))
		return
	}
	if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, prefix string) {
	s.genMu.Lock()
	s.gens[prefix]++
	s.genMu.Unlock()

	if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
