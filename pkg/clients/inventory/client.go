// Package inventory is the REST client of the inventory backend. It is the
// only place where the backend's wire format is known.
package inventory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/config"
	"github.com/mamadbah2/salesboard/internal/domain/models"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory api error: status=%d, message=%s", e.Status, e.Message)
}

// errorBody is the backend's error payload.
type errorBody struct {
	Error string `json:"error"`
}

// Client is a resty-backed client of the inventory backend.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a backend client. GET requests are retried
// cfg.ReadRetries times on transport errors and 5xx answers; writes are sent
// once.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.ReadRetries).
		AddRetryCondition(retryReads)

	return &Client{
		httpClient: restyClient,
		logger:     logger,
	}
}

func retryReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

type wireItem struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	AttrNumber string          `json:"attrNumber"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Qty        int             `json:"qty"`
}

type wireEntry struct {
	ID    int64           `json:"id"`
	Date  string          `json:"date"`
	Items []wireItem      `json:"items"`
	Qty   int             `json:"qty"`
	Total decimal.Decimal `json:"total"`
}

type wireProduct struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	AttrNum *string         `json:"attr_num"`
}

type wireItemRef struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type wireDraft struct {
	Date  string        `json:"date"`
	Items []wireItemRef `json:"items"`
}

type wireNewProduct struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	AttrNum *string `json:"attr_num"`
}

func (w wireEntry) domain() (models.InventoryEntry, error) {
	date, err := calendar.ParseDate(w.Date)
	if err != nil {
		return models.InventoryEntry{}, fmt.Errorf("entry %d: %w", w.ID, err)
	}
	items := make([]models.InventoryItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, models.InventoryItem{
			ID:         it.ID,
			ProductID:  it.ProductID,
			AttrNumber: it.AttrNumber,
			Name:       it.Name,
			Price:      it.Price,
			Qty:        it.Qty,
		})
	}
	return models.InventoryEntry{
		ID:    w.ID,
		Date:  date,
		Items: items,
		Qty:   w.Qty,
		Total: w.Total,
	}, nil
}

func (w wireProduct) domain() models.Product {
	p := models.Product{ID: w.ID, Name: w.Name, Price: w.Price}
	if w.AttrNum != nil {
		p.AttrNumber = *w.AttrNum
	}
	return p
}

// toWireNewProduct sends a missing attr number as null.
func toWireNewProduct(p models.NewProduct) wireNewProduct {
	w := wireNewProduct{Name: p.Name, Price: p.Price.InexactFloat64()}
	if p.AttrNumber != "" {
		attr := p.AttrNumber
		w.AttrNum = &attr
	}
	return w
}

func toWireDraft(d models.EntryDraft) wireDraft {
	refs := make([]wireItemRef, 0, len(d.Items))
	for _, it := range d.Items {
		refs = append(refs, wireItemRef{ProductID: it.ProductID, Qty: it.Qty})
	}
	return wireDraft{Date: d.Date.String(), Items: refs}
}

// ListEntries fetches the entries dated within [start, end].
func (c *Client) ListEntries(ctx context.Context, start, end calendar.Date) ([]models.InventoryEntry, error) {
	var result []wireEntry
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start": start.String(),
			"end":   end.String(),
		}).
		SetResult(&result).
		SetError(apiErr).
		Get("/inventory")
	if err := check(resp, err, apiErr, "list entries"); err != nil {
		return nil, err
	}

	entries := make([]models.InventoryEntry, 0, len(result))
	for _, w := range result {
		e, err := w.domain()
		if err != nil {
			c.logger.Warn("skipping entry with unreadable date", zap.Int64("entry_id", w.ID), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CreateEntry creates an entry.
func (c *Client) CreateEntry(ctx context.Context, draft models.EntryDraft) (models.InventoryEntry, error) {
	return c.sendEntry(ctx, http.MethodPost, "/inventory", draft, "create entry")
}

// UpdateEntry replaces the items of entry id.
func (c *Client) UpdateEntry(ctx context.Context, id int64, draft models.EntryDraft) (models.InventoryEntry, error) {
	return c.sendEntry(ctx, http.MethodPut, "/inventory/"+strconv.FormatInt(id, 10), draft, fmt.Sprintf("update entry %d", id))
}

func (c *Client) sendEntry(ctx context.Context, method, path string, draft models.EntryDraft, op string) (models.InventoryEntry, error) {
	result := new(wireEntry)
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(toWireDraft(draft)).
		SetResult(result).
		SetError(apiErr).
		Execute(method, path)
	if err := check(resp, err, apiErr, op); err != nil {
		return models.InventoryEntry{}, err
	}
	entry, err := result.domain()
	if err != nil {
		return models.InventoryEntry{}, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// DeleteEntry deletes entry id.
func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	return c.delete(ctx, "/inventory/"+strconv.FormatInt(id, 10), fmt.Sprintf("delete entry %d", id))
}

// DeleteItem deletes item id.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.delete(ctx, "/items/"+strconv.FormatInt(id, 10), fmt.Sprintf("delete item %d", id))
}

func (c *Client) delete(ctx context.Context, path, op string) error {
	apiErr := new(errorBody)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr).
		Delete(path)
	return check(resp, err, apiErr, op)
}

// ListProducts fetches the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var result []wireProduct
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(apiErr).
		Get("/products")
	if err := check(resp, err, apiErr, "list products"); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(result))
	for _, w := range result {
		products = append(products, w.domain())
	}
	return products, nil
}

// CreateProduct adds a product to the catalog.
func (c *Client) CreateProduct(ctx context.Context, p models.NewProduct) (models.Product, error) {
	result := new(wireProduct)
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(toWireNewProduct(p)).
		SetResult(result).
		SetError(apiErr).
		Post("/products")
	if err := check(resp, err, apiErr, "create product"); err != nil {
		return models.Product{}, err
	}
	return result.domain(), nil
}

// ExportCSV downloads the backend's CSV export of [start, end].
func (c *Client) ExportCSV(ctx context.Context, start, end calendar.Date) ([]byte, error) {
	apiErr := new(errorBody)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		SetQueryParams(map[string]string{
			"start": start.String(),
			"end":   end.String(),
		}).
		SetError(apiErr).
		Get("/inventory/export")
	if err := check(resp, err, apiErr, "export inventory"); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// ImportTemplate downloads the CSV import template.
func (c *Client) ImportTemplate(ctx context.Context) ([]byte, error) {
	apiErr := new(errorBody)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		SetError(apiErr).
		Get("/inventory/import-template")
	if err := check(resp, err, apiErr, "download import template"); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// ImportCSV uploads a CSV file as the multipart field "file".
func (c *Client) ImportCSV(ctx context.Context, filename string, file io.Reader) (models.ImportResult, error) {
	result := new(models.ImportResult)
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", filename, file).
		SetResult(result).
		SetError(apiErr).
		Post("/inventory/import")
	if err := check(resp, err, apiErr, "import csv"); err != nil {
		return models.ImportResult{}, err
	}
	return *result, nil
}

// ImportJSON uploads entry blocks as JSON.
func (c *Client) ImportJSON(ctx context.Context, blocks []models.EntryDraft) (models.ImportResult, error) {
	body := make([]wireDraft, 0, len(blocks))
	for _, b := range blocks {
		body = append(body, toWireDraft(b))
	}

	result := new(models.ImportResult)
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post("/inventory/import")
	if err := check(resp, err, apiErr, "import json"); err != nil {
		return models.ImportResult{}, err
	}
	return *result, nil
}

func check(resp *resty.Response, err error, apiErr *errorBody, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}

	message := apiErr.Error
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("%s: %w", op, &APIError{Status: resp.StatusCode(), Message: message})
}
