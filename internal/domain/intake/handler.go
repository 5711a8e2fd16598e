package intake

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	reconciler *Reconciler
	engine     *Engine
	snoozer    *Snoozer
	cache      *Cache
	session    *Session
	logger     zerolog.Logger
}

func NewHandler(reconciler *Reconciler, engine *Engine, snoozer *Snoozer, cache *Cache, logger zerolog.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		engine:     engine,
		snoozer:    snoozer,
		cache:      cache,
		session:    NewSession(),
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Both notification delivery paths land in the same batch handler;
	// the core never learns how the reminder arrived.
	api.POST("/notifications/received", h.HandleNotification)
	api.POST("/notifications/tapped", h.HandleNotification)

	api.GET("/due", h.ListDue)
	api.PATCH("/intake/:id", h.TransitionOne)
	api.POST("/intake/transition-all", h.TransitionAll)
	api.POST("/snooze", h.Snooze)
}

type notificationPayload struct {
	Medications []string `json:"medications"`
	Time        string   `json:"time"`
}

func (h *Handler) HandleNotification(c echo.Context) error {
	var payload notificationPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(payload.Medications) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "medications is required")
	}
	firedAt, err := time.Parse(time.RFC3339, payload.Time)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "time must be an ISO-8601 timestamp")
	}

	batch := Batch{MedicationIDs: payload.Medications, FiredAt: firedAt}
	gen := h.session.Begin(batch)

	entries, err := h.reconciler.Resolve(c.Request().Context(), batch)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error":     "resolution_failed",
			"message":   err.Error(),
			"retryable": true,
		})
	}

	if !h.session.Apply(gen, entries) {
		// A newer notification superseded this one while the fetch was in
		// flight; its result must not clobber the active session.
		return c.JSON(http.StatusConflict, map[string]string{"error": "superseded"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries":  entries,
		"complete": Complete(entries),
	})
}

// ListDue returns the active session's entries with the cache's latest
// optimistic statuses folded in.
func (h *Handler) ListDue(c echo.Context) error {
	entries := h.currentEntries()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries":  entries,
		"complete": Complete(entries),
	})
}

type transitionPayload struct {
	Status    Status `json:"status"`
	Confirmed bool   `json:"confirmed"`
}

func (h *Handler) TransitionOne(c echo.Context) error {
	id := c.Param("id")
	var payload transitionPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !payload.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be Pending, Taken or Missed")
	}

	var err error
	if payload.Confirmed {
		err = h.engine.ConfirmTransitionOne(c.Request().Context(), id, payload.Status)
	} else {
		err = h.engine.TransitionOne(c.Request().Context(), id, payload.Status)
	}
	if err != nil {
		return h.transitionError(c, err)
	}

	entries := h.currentEntries()
	entry, _ := h.cache.Get(id)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entry":    entry,
		"complete": Complete(entries),
	})
}

type transitionAllPayload struct {
	IDs    []string `json:"ids"`
	Status Status   `json:"status"`
}

func (h *Handler) TransitionAll(c echo.Context) error {
	var payload transitionAllPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !payload.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be Pending, Taken or Missed")
	}
	ids := payload.IDs
	if len(ids) == 0 {
		ids = h.session.EntryIDs()
	}
	if len(ids) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no entries to transition")
	}

	result := h.engine.TransitionAll(c.Request().Context(), ids, payload.Status)

	failed := make(map[string]string, len(result.Failed))
	for id, err := range result.Failed {
		failed[id] = err.Error()
	}
	status := http.StatusOK
	if !result.Complete() {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, map[string]interface{}{
		"succeeded": result.Succeeded,
		"failed":    failed,
		"complete":  result.Complete(),
	})
}

func (h *Handler) Snooze(c echo.Context) error {
	result, err := h.snoozer.Snooze(c.Request().Context(), h.currentEntries())
	if err != nil {
		if errors.Is(err, ErrNoPendingMedications) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error":   "no_pending_medications",
				"message": err.Error(),
			})
		}
		var bizErr *BusinessError
		if errors.As(err, &bizErr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, bizErr.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"nextFireTime": result.NextFireTime.Format(time.RFC3339),
		"message":      result.Message,
	})
}

// currentEntries re-reads the session's entries through the cache so
// optimistic transitions show up immediately.
func (h *Handler) currentEntries() []LogEntry {
	_, entries := h.session.Current()
	for i, e := range entries {
		if latest, ok := h.cache.Get(e.ID); ok {
			entries[i] = latest
		}
	}
	return entries
}

func (h *Handler) transitionError(c echo.Context, err error) error {
	if errors.Is(err, ErrConfirmationRequired) {
		return c.JSON(http.StatusConflict, map[string]string{
			"error":   "confirmation_required",
			"message": err.Error(),
		})
	}
	var invalidErr *InvalidTransitionError
	if errors.As(err, &invalidErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, invalidErr.Error())
	}
	var bizErr *BusinessError
	if errors.As(err, &bizErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, bizErr.Error())
	}
	// Transport failure: the optimistic local state stands, but the caller
	// must see the failure rather than a silent no-op.
	return echo.NewHTTPError(http.StatusBadGateway, err.Error())
}
