// Package directory implements the paginated employee directory page.
package directory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/models"
)

// DefaultPageSize is the number of employees requested per page.
const DefaultPageSize = 10

const loadFailed = "Failed to load employees"

// EmployeeAPI is the part of the backend the directory needs.
type EmployeeAPI interface {
	ListEmployees(ctx context.Context, page, limit int) (*models.EmployeePage, error)
}

// ImageResolver turns a stored image reference into a URL a browser can load.
type ImageResolver interface {
	ImageURL(ctx context.Context, ref string) string
}

// Passthrough uses image references as URLs unchanged.
type Passthrough struct{}

func (Passthrough) ImageURL(_ context.Context, ref string) string { return ref }

// Entry is one directory row.
type Entry struct {
	models.Employee
	ImageURL string
}

// State is a snapshot of the directory page.
type State struct {
	Employees       []Entry
	Window          models.PageWindow
	Error           string
	PanelOpen       bool
	Loading         bool
	RedirectToLogin bool
}

// Controller holds the directory page state for one session.
type Controller struct {
	api    EmployeeAPI
	images ImageResolver
	limit  int
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	inflight int
}

// New creates a directory controller. images may be nil.
func New(api EmployeeAPI, images ImageResolver, limit int, logger *zap.Logger) *Controller {
	if images == nil {
		images = Passthrough{}
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:    api,
		images: images,
		limit:  limit,
		logger: logger,
		state:  State{Window: models.PageWindow{Limit: limit}},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Employees = append([]Entry(nil), c.state.Employees...)
	return st
}

// Init performs the first load. It always requests page 1, whatever page was shown before.
func (c *Controller) Init(ctx context.Context) error {
	return c.LoadPage(ctx, 1)
}

// LoadPage fetches page n. On success the list, total and page are replaced by the
// response; on failure the list is left alone and the error is recorded.
func (c *Controller) LoadPage(ctx context.Context, n int) error {
	c.begin()
	defer c.end()

	page, err := c.api.ListEmployees(ctx, n, c.limit)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if apiclient.IsUnauthorized(err) {
			c.state.RedirectToLogin = true
			return err
		}
		c.state.Error = apiclient.Message(err, loadFailed)
		c.logger.Warn("load employees", zap.Int("page", n), zap.Error(err))
		return err
	}

	entries := make([]Entry, 0, len(page.Employees))
	for _, e := range page.Employees {
		entries = append(entries, Entry{Employee: e, ImageURL: c.images.ImageURL(ctx, e.Image)})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Employees = entries
	c.state.Window = models.PageWindow{Page: page.Page, Limit: c.limit, Total: page.Total}
	c.state.Error = ""
	c.state.RedirectToLogin = false
	return nil
}

// Next loads the following page, unless the current one is the last.
func (c *Controller) Next(ctx context.Context) error {
	w := c.window()
	if !w.HasNext() {
		return nil
	}
	return c.LoadPage(ctx, w.Page+1)
}

// Prev loads the preceding page, unless the current one is the first.
func (c *Controller) Prev(ctx context.Context) error {
	w := c.window()
	if !w.HasPrev() {
		return nil
	}
	return c.LoadPage(ctx, w.Page-1)
}

// Jump loads page n unless it is already shown.
func (c *Controller) Jump(ctx context.Context, n int) error {
	if n == c.window().Page {
		return nil
	}
	return c.LoadPage(ctx, n)
}

// ToggleCreatePanel opens or closes the slide-in creation panel.
func (c *Controller) ToggleCreatePanel(open bool) {
	c.mu.Lock()
	c.state.PanelOpen = open
	c.mu.Unlock()
}

// EmployeeCreated is called by the creation form once an employee was added.
// It re-fetches the current page so the new record shows up.
func (c *Controller) EmployeeCreated(ctx context.Context) error {
	page := c.window().Page
	if page < 1 {
		page = 1
	}
	return c.LoadPage(ctx, page)
}

func (c *Controller) window() models.PageWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Window
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inflight--
	c.state.Loading = c.inflight > 0
	c.mu.Unlock()
}
