package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/service/calendarview"
	"github.com/mamadbah2/salesboard/internal/service/editing"
	"github.com/mamadbah2/salesboard/internal/service/inventorysync"
	"github.com/mamadbah2/salesboard/internal/service/preferences"
)

// CalendarHandler serves the calendar views and their navigation.
type CalendarHandler struct {
	sync     *inventorysync.Service
	prefs    *preferences.Service
	sessions *editing.Manager
	renderer calendarview.Renderer
	logger   *zap.Logger
}

// NewCalendarHandler constructs the calendar handler.
func NewCalendarHandler(sync *inventorysync.Service, prefs *preferences.Service, sessions *editing.Manager, renderer calendarview.Renderer, logger *zap.Logger) *CalendarHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarHandler{sync: sync, prefs: prefs, sessions: sessions, renderer: renderer, logger: logger}
}

type calendarResponse struct {
	calendarview.Rendered
	Today calendar.Date `json:"today"`
}

// Render draws the requested view. Missing query values come from the
// stored preferences; explicit ones are stored.
func (h *CalendarHandler) Render(c *gin.Context) {
	ctx := c.Request.Context()
	pref := h.prefs.Load(ctx)
	explicit := false

	if raw := c.Query("view"); raw != "" {
		view, err := calendar.ParseView(raw)
		if err != nil {
			badRequest(c, h.logger, "invalid view", err)
			return
		}
		pref.View = view
		explicit = true
	}
	if raw := c.Query("date"); raw != "" {
		date, err := calendar.ParseDate(raw)
		if err != nil {
			badRequest(c, h.logger, "invalid date", err)
			return
		}
		pref.Anchor = date
		explicit = true
	}

	if explicit {
		h.save(ctx, pref)
	}
	h.respond(c, pref)
}

type navigateRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// Navigate moves the anchor one unit of the active view, or back to today.
func (h *CalendarHandler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid navigate payload", err)
		return
	}
	dir, err := calendar.ParseDirection(req.Direction)
	if err != nil {
		badRequest(c, h.logger, "invalid direction", err)
		return
	}

	ctx := c.Request.Context()
	pref := h.prefs.Load(ctx)
	pref.Anchor = calendar.Navigate(pref.View, pref.Anchor, dir, h.prefs.Today())
	h.save(ctx, pref)
	h.respond(c, pref)
}

type viewRequest struct {
	View string `json:"view" binding:"required"`
}

// SetView switches the active view and keeps the anchor.
func (h *CalendarHandler) SetView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid view payload", err)
		return
	}
	view, err := calendar.ParseView(req.View)
	if err != nil {
		badRequest(c, h.logger, "invalid view", err)
		return
	}

	ctx := c.Request.Context()
	pref := h.prefs.Load(ctx)
	pref.View = view
	h.save(ctx, pref)
	h.respond(c, pref)
}

type clickRequest struct {
	Date   calendar.Date       `json:"date"`
	Target calendarview.Target `json:"target" binding:"required,oneof=day entry"`
}

// clickResult records what a cell click did.
type clickResult struct {
	Action  string                      `json:"action"`
	Date    *calendar.Date              `json:"date,omitempty"`
	Session *editing.State              `json:"session,omitempty"`
	View    *preferences.ViewPreference `json:"preference,omitempty"`

	ctx     context.Context
	handler *CalendarHandler
}

func (r *clickResult) SelectDate(d calendar.Date) {
	pref := r.handler.prefs.Load(r.ctx)
	pref.Anchor = d
	r.handler.save(r.ctx, pref)
	r.Action = "select"
	r.Date = &d
	r.View = &pref
}

func (r *clickResult) EntryClick(e models.InventoryEntry) {
	state := r.handler.sessions.Open(e).State()
	r.Action = "open_entry"
	r.Date = &e.Date
	r.Session = &state
}

// Click dispatches a click on a day cell. Clicking the entry surface opens
// the entry without selecting the day.
func (h *CalendarHandler) Click(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid click payload", err)
		return
	}
	if req.Date.IsZero() {
		badRequest(c, h.logger, "invalid click payload", errMissingDate)
		return
	}

	ctx := c.Request.Context()
	entry, ok, err := h.sync.DayEntry(ctx, req.Date)
	if err != nil {
		respondError(c, h.logger, "failed to load day", err)
		return
	}
	var entries []models.InventoryEntry
	if ok {
		entries = append(entries, entry)
	}

	result := &clickResult{Action: "none", ctx: ctx, handler: h}
	calendarview.CellFor(req.Date, entries).Click(req.Target, result)
	c.JSON(http.StatusOK, result)
}

func (h *CalendarHandler) respond(c *gin.Context, pref preferences.ViewPreference) {
	entries, err := h.sync.Entries(c.Request.Context(), h.renderer.Span(pref.View, pref.Anchor))
	if err != nil {
		respondError(c, h.logger, "failed to load entries", err)
		return
	}
	today := h.prefs.Today()
	c.JSON(http.StatusOK, calendarResponse{
		Rendered: h.renderer.Render(pref.View, pref.Anchor, today, entries),
		Today:    today,
	})
}

func (h *CalendarHandler) save(ctx context.Context, pref preferences.ViewPreference) {
	if err := h.prefs.Save(ctx, pref); err != nil {
		h.logger.Warn("failed to save view preference", zap.Error(err))
	}
}
