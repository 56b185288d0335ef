package scheduler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
	"github.com/aura-hr/portal/internal/models"
	"github.com/aura-hr/portal/internal/views"
	"github.com/aura-hr/portal/pkg/response"
)

// Handler serves the events page.
type Handler struct {
	controller func(c *gin.Context) *Controller
	logger     *zap.Logger
}

// NewHandler creates a scheduler handler. controller returns the session's controller.
func NewHandler(controller func(c *gin.Context) *Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, logger: logger}
}

// Index handles GET /events.
func (h *Handler) Index(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.Refresh(c.Request.Context()))
}

// Slot handles POST /events/slot with form fields start and end.
func (h *Handler) Slot(c *gin.Context) {
	ctl := h.controller(c)
	start, err1 := parseTime(c.PostForm("start"))
	end, err2 := parseTime(c.PostForm("end"))
	if err := errors.Join(err1, err2); err != nil {
		h.logger.Debug("bad slot", zap.Error(err))
		h.render(c, ctl, ctl.Invalid(ErrInvalidTime))
		return
	}
	ctl.SelectSlot(start, end)
	h.render(c, ctl, nil)
}

// Select handles POST /events/select with form field id.
func (h *Handler) Select(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.SelectEvent(c.PostForm("id")))
}

// Draft handles POST /events/draft. Only the fields present in the form change.
func (h *Handler) Draft(c *gin.Context) {
	ctl := h.controller(c)
	f, err := draftFields(c)
	if err != nil {
		h.logger.Debug("bad draft form", zap.Error(err))
		h.render(c, ctl, ctl.Invalid(ErrInvalidTime))
		return
	}
	h.render(c, ctl, ctl.UpdateDraft(f))
}

// Suggestions handles GET /events/suggestions?receivers=, fired on every keystroke.
// A pending notice goes out of band to the page's toast slot.
func (h *Handler) Suggestions(c *gin.Context) {
	ctl := h.controller(c)
	err := ctl.Lookup(c.Request.Context(), c.Query("receivers"))
	if apiclient.IsUnauthorized(err) {
		_ = c.Error(err)
		return
	}
	c.HTML(http.StatusOK, "suggestions", gin.H{"State": ctl.TakeState(), "OOB": true})
}

// AddReceiver handles POST /events/receivers with form field id.
func (h *Handler) AddReceiver(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.SelectSuggestion(c.PostForm("id")))
}

// AcceptReceiver handles POST /events/receivers/accept, the accept key in the lookup field.
func (h *Handler) AcceptReceiver(c *gin.Context) {
	ctl := h.controller(c)
	ctl.AcceptKey()
	h.render(c, ctl, nil)
}

// RemoveReceiver handles POST /events/receivers/remove with form field id.
func (h *Handler) RemoveReceiver(c *gin.Context) {
	ctl := h.controller(c)
	ctl.RemoveReceiver(c.PostForm("id"))
	h.render(c, ctl, nil)
}

// Submit handles POST /events/submit. The form carries the whole draft.
func (h *Handler) Submit(c *gin.Context) {
	ctl := h.controller(c)
	f, err := draftFields(c)
	if err != nil {
		h.logger.Debug("bad draft form", zap.Error(err))
		h.render(c, ctl, ctl.Invalid(ErrInvalidTime))
		return
	}
	if err := ctl.UpdateDraft(f); err != nil {
		h.render(c, ctl, err)
		return
	}
	h.render(c, ctl, ctl.Submit(c.Request.Context()))
}

// Delete handles POST /events/delete and opens the confirmation.
func (h *Handler) Delete(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.RequestDelete())
}

// ConfirmDelete handles POST /events/delete/confirm.
func (h *Handler) ConfirmDelete(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.ConfirmDelete(c.Request.Context()))
}

// CancelDelete handles POST /events/delete/cancel.
func (h *Handler) CancelDelete(c *gin.Context) {
	ctl := h.controller(c)
	ctl.CancelDelete()
	h.render(c, ctl, nil)
}

func (h *Handler) render(c *gin.Context, ctl *Controller, err error) {
	if apiclient.IsUnauthorized(err) {
		// middleware.AuthFailure turns this into the login redirect
		_ = c.Error(err)
		return
	}
	h.renderStatus(c, ctl, statusFor(err))
}

func (h *Handler) renderStatus(c *gin.Context, ctl *Controller, status int) {
	data := gin.H{
		"Title": "Events",
		"State": ctl.TakeState(),
	}
	if sess, ok := auth.CurrentSession(c); ok {
		data["Actor"] = sess.Actor
	}
	response.Page(c, status, "events.tmpl", "scheduler", data)
}

// statusFor maps controller errors to a response status. Every rejection also
// carries a notice; backend failures are shown as a toast on a 200 page.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, ErrStartInPast), errors.Is(err, ErrEndNotAfterStart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTypeNotAllowed), errors.Is(err, ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrUnknownSuggestion):
		return http.StatusNotFound
	case errors.Is(err, ErrInFlight), errors.Is(err, ErrNoSelection), errors.Is(err, ErrNotConfirmed):
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}

func draftFields(c *gin.Context) (DraftFields, error) {
	var f DraftFields
	if v, ok := c.GetPostForm("title"); ok {
		f.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		f.Description = &v
	}
	if v, ok := c.GetPostForm("type"); ok {
		t := models.EventType(v)
		f.Type = &t
	}
	if v, ok := c.GetPostForm("start"); ok {
		t, err := parseTime(v)
		if err != nil {
			return f, err
		}
		f.Start = &t
	}
	if v, ok := c.GetPostForm("end"); ok {
		t, err := parseTime(v)
		if err != nil {
			return f, err
		}
		f.End = &t
	}
	return f, nil
}

// parseTime accepts RFC 3339 (calendar widget) and datetime-local (form inputs,
// interpreted in the server's zone).
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(views.DateTimeLocal, s, time.Local)
}
