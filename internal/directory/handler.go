package directory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
	"github.com/aura-hr/portal/pkg/response"
)

const invalidPage = "Page must be a positive number"

// Handler serves the directory page.
type Handler struct {
	controller func(c *gin.Context) *Controller
	logger     *zap.Logger
}

// NewHandler creates a directory handler. controller returns the session's controller.
func NewHandler(controller func(c *gin.Context) *Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, logger: logger}
}

// Index handles GET /employees.
func (h *Handler) Index(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.Init(c.Request.Context()))
}

// Next handles POST /employees/next.
func (h *Handler) Next(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.Next(c.Request.Context()))
}

// Prev handles POST /employees/prev.
func (h *Handler) Prev(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.Prev(c.Request.Context()))
}

// Jump handles POST /employees/jump with form field page.
func (h *Handler) Jump(c *gin.Context) {
	ctl := h.controller(c)
	n, err := strconv.Atoi(c.PostForm("page"))
	if err != nil || n < 1 {
		h.logger.Debug("bad page", zap.String("page", c.PostForm("page")))
		h.renderStatus(c, ctl, http.StatusBadRequest, invalidPage)
		return
	}
	h.render(c, ctl, ctl.Jump(c.Request.Context(), n))
}

// Panel handles POST /employees/panel with form field open.
func (h *Handler) Panel(c *gin.Context) {
	ctl := h.controller(c)
	open, _ := strconv.ParseBool(c.PostForm("open"))
	ctl.ToggleCreatePanel(open)
	h.render(c, ctl, nil)
}

// Created handles POST /employees/created, the creation form's callback.
func (h *Handler) Created(c *gin.Context) {
	ctl := h.controller(c)
	h.render(c, ctl, ctl.EmployeeCreated(c.Request.Context()))
}

func (h *Handler) render(c *gin.Context, ctl *Controller, err error) {
	if apiclient.IsUnauthorized(err) {
		// middleware.AuthFailure turns this into the login redirect
		_ = c.Error(err)
		return
	}
	h.renderStatus(c, ctl, http.StatusOK, "")
}

// renderStatus renders the page. invalid, when set, is shown above the list.
func (h *Handler) renderStatus(c *gin.Context, ctl *Controller, status int, invalid string) {
	data := gin.H{
		"Title": "Employees",
		"State": ctl.State(),
	}
	if invalid != "" {
		data["Invalid"] = invalid
	}
	if sess, ok := auth.CurrentSession(c); ok {
		data["Actor"] = sess.Actor
	}
	response.Page(c, status, "employees.tmpl", "directory", data)
}
