package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salesboard/internal/cache"
	"github.com/mamadbah2/salesboard/internal/config"
	"github.com/mamadbah2/salesboard/internal/server/handlers"
	"github.com/mamadbah2/salesboard/internal/service/calendarview"
	"github.com/mamadbah2/salesboard/internal/service/editing"
	"github.com/mamadbah2/salesboard/internal/service/inventorysync"
	"github.com/mamadbah2/salesboard/internal/service/preferences"
	"github.com/mamadbah2/salesboard/internal/service/reporting"
	"github.com/mamadbah2/salesboard/pkg/clients/inventory"
)

type backendItem struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	AttrNumber string  `json:"attrNumber"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Qty        int     `json:"qty"`
}

type backendEntry struct {
	ID    int64         `json:"id"`
	Date  string        `json:"date"`
	Items []backendItem `json:"items"`
	Qty   int           `json:"qty"`
	Total float64       `json:"total"`
}

type backendProduct struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	AttrNum string  `json:"attr_num"`
}

// fakeBackend is an in-memory inventory REST backend.
type fakeBackend struct {
	mu         sync.Mutex
	entries    map[int64]*backendEntry
	products   []backendProduct
	nextID     int64
	writes     int
	deletes    []string
	failWrites bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		entries: map[int64]*backendEntry{
			4: {ID: 4, Date: "2025-03-10", Qty: 1, Total: 10, Items: []backendItem{
				{ID: 1, ProductID: 10, AttrNumber: "A-1", Name: "Hat", Price: 10, Qty: 1},
			}},
		},
		products: []backendProduct{
			{ID: 10, Name: "Hat", Price: 10, AttrNum: "A-1"},
			{ID: 11, Name: "Scarf", Price: 7.5, AttrNum: "B-2"},
		},
		nextID: 100,
	}
}

func (b *fakeBackend) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *fakeBackend) itemDeletes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deletes...)
}

func (b *fakeBackend) setFailWrites(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = v
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inventory", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
		out := []backendEntry{}
		for _, e := range b.entries {
			if e.Date >= start && e.Date <= end {
				out = append(out, *e)
			}
		}
		reply(w, http.StatusOK, out)
	})
	mux.HandleFunc("PUT /inventory/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.writes++
		if b.failWrites {
			reply(w, http.StatusInternalServerError, map[string]string{"error": "db down"})
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var body struct {
			Date  string `json:"date"`
			Items []struct {
				ProductID int64 `json:"product_id"`
				Qty       int   `json:"qty"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			reply(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		entry := &backendEntry{ID: id, Date: body.Date, Items: []backendItem{}}
		for _, ref := range body.Items {
			for _, p := range b.products {
				if p.ID == ref.ProductID {
					b.nextID++
					entry.Items = append(entry.Items, backendItem{
						ID: b.nextID, ProductID: p.ID, AttrNumber: p.AttrNum, Name: p.Name, Price: p.Price, Qty: ref.Qty,
					})
					entry.Qty += ref.Qty
					entry.Total += p.Price * float64(ref.Qty)
				}
			}
		}
		b.entries[id] = entry
		reply(w, http.StatusOK, entry)
	})
	mux.HandleFunc("DELETE /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.deletes = append(b.deletes, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var body struct {
			Name    string  `json:"name"`
			Price   float64 `json:"price"`
			AttrNum *string `json:"attr_num"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			reply(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		b.nextID++
		p := backendProduct{ID: b.nextID, Name: body.Name, Price: body.Price}
		if body.AttrNum != nil {
			p.AttrNum = *body.AttrNum
		}
		b.products = append(b.products, p)
		reply(w, http.StatusCreated, p)
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.products)
	})
	return mux
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestEngine(t *testing.T) (http.Handler, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client := inventory.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memCache.Close() })

	syncSvc := inventorysync.NewService(client, memCache, time.Minute, nil)
	sessions := editing.NewManager(syncSvc, nil)
	t.Cleanup(sessions.Wait)
	prefs := preferences.NewService(preferences.NewMemoryStore(), time.UTC, nil)
	reports := reporting.NewService(decimal.RequireFromString("0.6"), nil)

	engine := New(Handlers{
		Calendar: handlers.NewCalendarHandler(syncSvc, prefs, sessions, calendarview.Renderer{WeekStart: time.Sunday}, nil),
		Day:      handlers.NewDayHandler(syncSvc, sessions, nil),
		Product:  handlers.NewProductHandler(syncSvc, nil),
		Export:   handlers.NewExportHandler(syncSvc, prefs, reports, nil),
	}, nil)
	return engine, backend
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthzSetsRequestID(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestCalendarPersistsExplicitParams(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/calendar?view=week&date=2025-03-10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "week", body["view"])
	assert.NotNil(t, body["week"])

	rec = do(t, engine, http.MethodGet, "/api/calendar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "week", body["view"])
	assert.Equal(t, "2025-03-10", body["anchor"])

	rec = do(t, engine, http.MethodPost, "/api/calendar/navigate", `{"direction":"next"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-03-17", decode(t, rec)["anchor"])

	rec = do(t, engine, http.MethodPut, "/api/calendar/view", `{"view":"decade"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemValidationNeverReachesBackend(t *testing.T) {
	engine, backend := newTestEngine(t)

	for _, body := range []string{`{"product_id":0,"qty":1}`, `{"product_id":11,"qty":0}`} {
		rec := do(t, engine, http.MethodPost, "/api/days/2025-03-10/items", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Zero(t, backend.writeCount())
}

func TestAddItemPushesFullEntry(t *testing.T) {
	engine, backend := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/days/2025-03-10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, engine, http.MethodPost, "/api/days/2025-03-10/items", `{"product_id":11,"qty":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, backend.writeCount())

	session := decode(t, rec)["session"].(map[string]any)
	assert.Equal(t, "saved", session["status"])
	entry := session["entry"].(map[string]any)
	assert.Len(t, entry["items"], 2)
	assert.EqualValues(t, 3, entry["qty"])
}

func TestFailedSaveReturnsBadGatewayWithLocalState(t *testing.T) {
	engine, backend := newTestEngine(t)
	backend.setFailWrites(true)

	rec := do(t, engine, http.MethodPost, "/api/days/2025-03-10/items", `{"product_id":11,"qty":1}`)
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "db down", body["error"])
	assert.EqualValues(t, 500, body["status"])
	session := body["session"].(map[string]any)
	assert.Equal(t, "failed", session["status"])
	assert.Len(t, session["entry"].(map[string]any)["items"], 2)
}

func TestDayWithoutEntry(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/days/2025-03-11", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["session"])

	rec = do(t, engine, http.MethodPost, "/api/days/2025-03-11/draft/commit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, engine, http.MethodGet, "/api/days/not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthlyReport(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/reports/monthly?month=2025-04", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, reporting.NoDataMessage, decode(t, rec)["error"])

	rec = do(t, engine, http.MethodGet, "/api/reports/monthly?month=2025-03&format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inventory-March 2025.csv")
	assert.Contains(t, rec.Body.String(), "Hat")

	rec = do(t, engine, http.MethodGet, "/api/reports/monthly?month=2025-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(t, engine, http.MethodGet, "/api/reports/monthly?format=xls", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductSearch(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/products?q=sca", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Scarf", products[0]["name"])
}

func TestDeleteItemOfAnotherDayIsRejected(t *testing.T) {
	engine, backend := newTestEngine(t)

	rec := do(t, engine, http.MethodDelete, "/api/days/2025-03-10/items/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	assert.Zero(t, backend.writeCount())
	assert.Empty(t, backend.itemDeletes())
}

func TestDeleteItemOfTheDay(t *testing.T) {
	engine, backend := newTestEngine(t)

	rec := do(t, engine, http.MethodDelete, "/api/days/2025-03-10/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	session := decode(t, rec)["session"].(map[string]any)
	assert.Equal(t, "deleted", session["status"])
	assert.Equal(t, 1, backend.writeCount())
}

func TestDeleteRowByIndex(t *testing.T) {
	engine, backend := newTestEngine(t)

	rec := do(t, engine, http.MethodDelete, "/api/days/2025-03-10/rows/5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, engine, http.MethodDelete, "/api/days/2025-03-10/rows/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, backend.writeCount())

	rec = do(t, engine, http.MethodDelete, "/api/days/2025-03-10/rows/0", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode(t, rec)["session"].(map[string]any)
	assert.Equal(t, "deleted", session["status"])
	assert.Empty(t, session["entry"].(map[string]any)["items"])
	assert.Equal(t, 1, backend.writeCount())
}

func TestCreateProductWithoutAttrNumber(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodPost, "/api/products", `{"name":"Gloves","price":7.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Gloves", body["name"])
	assert.Equal(t, "", body["attr_num"])

	rec = do(t, engine, http.MethodGet, "/api/products?q=glo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Gloves", "product list is invalidated")
}

func TestCreateProductRequiresPrice(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, body := range []string{`{"name":"Gloves"}`, `{"name":"Gloves","price":-1}`, `{"price":3}`} {
		rec := do(t, engine, http.MethodPost, "/api/products", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}
