package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/service/editing"
	"github.com/mamadbah2/salesboard/internal/service/inventorysync"
)

// DayHandler serves a day's entry and its inline item editing.
type DayHandler struct {
	sync     *inventorysync.Service
	sessions *editing.Manager
	logger   *zap.Logger
}

// NewDayHandler constructs the day handler.
func NewDayHandler(sync *inventorysync.Service, sessions *editing.Manager, logger *zap.Logger) *DayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayHandler{sync: sync, sessions: sessions, logger: logger}
}

type dayResponse struct {
	Date    calendar.Date  `json:"date"`
	Label   string         `json:"label"`
	Session *editing.State `json:"session"`
}

func newDayResponse(date calendar.Date, state *editing.State) dayResponse {
	return dayResponse{Date: date, Label: date.Format("Monday, January 2, 2006"), Session: state}
}

// Get returns the day's entry with its edit state, or a null session when
// the day has no entry.
func (h *DayHandler) Get(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}
	entry, found, err := h.sync.DayEntry(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, "failed to load day", err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, newDayResponse(date, nil))
		return
	}
	state := h.sessions.Open(entry).State()
	c.JSON(http.StatusOK, newDayResponse(date, &state))
}

// CreateEntry creates an empty entry on the day. An existing entry is
// returned as is.
func (h *DayHandler) CreateEntry(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	entry, found, err := h.sync.DayEntry(ctx, date)
	if err != nil {
		respondError(c, h.logger, "failed to load day", err)
		return
	}
	status := http.StatusOK
	if !found {
		entry, err = h.sync.CreateEntry(ctx, date)
		if err != nil {
			respondError(c, h.logger, "failed to create entry", err)
			return
		}
		status = http.StatusCreated
	}
	state := h.sessions.Open(entry).State()
	c.JSON(status, newDayResponse(date, &state))
}

// BeginEdit starts editing a row.
func (h *DayHandler) BeginEdit(c *gin.Context) {
	session, date, ok := h.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, h.logger, "invalid row index", err)
		return
	}
	state, err := session.BeginEdit(index)
	h.reply(c, date, state, err)
}

type draftRequest struct {
	ProductID *int64 `json:"product_id" binding:"omitempty,min=1"`
	Qty       *int   `json:"qty"`
}

// UpdateDraft changes the product and/or quantity of the row being edited.
func (h *DayHandler) UpdateDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid draft payload", err)
		return
	}
	session, date, ok := h.session(c)
	if !ok {
		return
	}

	state := session.State()
	var err error
	if req.ProductID != nil {
		product, perr := h.product(c, *req.ProductID)
		if perr != nil {
			respondError(c, h.logger, "failed to resolve product", perr)
			return
		}
		state, err = session.SelectProduct(product)
	}
	if err == nil && req.Qty != nil {
		state, err = session.SetDraftQty(*req.Qty)
	}
	h.reply(c, date, state, err)
}

// CommitDraft saves the row being edited.
func (h *DayHandler) CommitDraft(c *gin.Context) {
	session, date, ok := h.session(c)
	if !ok {
		return
	}
	state, err := session.Commit(c.Request.Context())
	h.reply(c, date, state, err)
}

// DiscardDraft drops the row being edited.
func (h *DayHandler) DiscardDraft(c *gin.Context) {
	session, date, ok := h.session(c)
	if !ok {
		return
	}
	h.reply(c, date, session.Discard(), nil)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
	Qty       int   `json:"qty" binding:"required,min=1"`
}

// AddItem appends a product line. Requests without a product or with a
// quantity below one are rejected before anything is sent.
func (h *DayHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid item payload", err)
		return
	}
	session, date, ok := h.session(c)
	if !ok {
		return
	}
	product, err := h.product(c, req.ProductID)
	if err != nil {
		respondError(c, h.logger, "failed to resolve product", err)
		return
	}

	item := models.InventoryItem{Qty: req.Qty}.WithProduct(product)
	state, err := session.Add(c.Request.Context(), item)
	h.reply(c, date, state, err)
}

// DeleteItem removes a product line of the day's entry by item id.
func (h *DayHandler) DeleteItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("itemID"), 10, 64)
	if err != nil {
		badRequest(c, h.logger, "invalid item id", err)
		return
	}
	session, date, ok := h.session(c)
	if !ok {
		return
	}
	state, err := session.Delete(c.Request.Context(), itemID)
	h.reply(c, date, state, err)
}

// DeleteRow removes a row by position. Rows not saved yet have no id and
// can only be removed this way.
func (h *DayHandler) DeleteRow(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, h.logger, "invalid row index", err)
		return
	}
	session, date, ok := h.session(c)
	if !ok {
		return
	}
	state, err := session.DeleteRow(c.Request.Context(), index)
	h.reply(c, date, state, err)
}

// DeleteEntry deletes a whole entry.
func (h *DayHandler) DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, h.logger, "invalid entry id", err)
		return
	}
	if err := h.sync.DeleteEntry(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "failed to delete entry", err)
		return
	}
	h.sessions.Close(id)
	c.Status(http.StatusNoContent)
}

func (h *DayHandler) date(c *gin.Context) (calendar.Date, bool) {
	date, err := calendar.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, h.logger, "invalid date", err)
		return calendar.Date{}, false
	}
	return date, true
}

// session resolves the edit session of the day in the path. It writes the
// error response itself.
func (h *DayHandler) session(c *gin.Context) (*editing.Session, calendar.Date, bool) {
	date, ok := h.date(c)
	if !ok {
		return nil, date, false
	}
	entry, found, err := h.sync.DayEntry(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, "failed to load day", err)
		return nil, date, false
	}
	if !found {
		respondError(c, h.logger, "no entry for day", fmt.Errorf("entry for %s: %w", date, errNotFound))
		return nil, date, false
	}
	return h.sessions.Open(entry), date, true
}

func (h *DayHandler) product(c *gin.Context, id int64) (models.Product, error) {
	product, found, err := h.sync.Product(c.Request.Context(), id)
	if err != nil {
		return models.Product{}, err
	}
	if !found {
		return models.Product{}, fmt.Errorf("product %d: %w", id, errNotFound)
	}
	return product, nil
}

type sessionErrorResponse struct {
	Error   string        `json:"error"`
	Status  int           `json:"status,omitempty"`
	Session editing.State `json:"session"`
}

// reply writes the session state. A failed save still carries the local
// state so the failed badge can be shown next to it.
func (h *DayHandler) reply(c *gin.Context, date calendar.Date, state editing.State, err error) {
	if err == nil {
		c.JSON(http.StatusOK, newDayResponse(date, &state))
		return
	}

	status := statusFor(err)
	body := errorBody(err)
	resp := sessionErrorResponse{Session: state}
	resp.Error, _ = body["error"].(string)
	resp.Status, _ = body["status"].(int)

	if errors.Is(err, editing.ErrPending) || status < http.StatusInternalServerError {
		h.logger.Warn("edit rejected", zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Error("edit failed", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}
