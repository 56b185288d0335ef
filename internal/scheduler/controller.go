// Package scheduler implements the event calendar page: creating, editing and
// deleting events and picking their receivers.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
	"github.com/aura-hr/portal/internal/models"
)

var (
	ErrStartInPast       = errors.New("start cannot be in the past")
	ErrEndNotAfterStart  = errors.New("end must be after start")
	ErrTypeNotAllowed    = errors.New("event type not allowed for this role")
	ErrReadOnly          = errors.New("event has already started")
	ErrNoSelection       = errors.New("no event selected")
	ErrEventNotFound     = errors.New("event not found")
	ErrNotConfirmed      = errors.New("deletion not confirmed")
	ErrInFlight          = errors.New("another request is in progress")
	ErrUnknownSuggestion = errors.New("unknown suggestion")
	ErrInvalidTime       = errors.New("invalid date or time")
)

const (
	fetchEventsFailed      = "Failed to fetch events"
	fetchSuggestionsFailed = "Failed to fetch email suggestions"
	addFailed              = "Failed to add event"
	updateFailed           = "Failed to update event"
	deleteFailed           = "Failed to delete event"
	added                  = "Event added successfully"
	updated                = "Event updated successfully"
	deleted                = "Event deleted successfully"
	listStale              = "the event list could not be refreshed"
)

// Mode says whether the form creates a new event or edits the selected one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Draft is the content of the event form. Receivers is the raw text of the
// receivers lookup field; picked receivers live in State.SelectedReceivers.
type Draft struct {
	Title       string
	Description string
	Type        models.EventType
	Start       time.Time
	End         time.Time
	Receivers   string
}

// DraftFields carries a partial form update. Nil fields are left alone.
type DraftFields struct {
	Title       *string
	Description *string
	Type        *models.EventType
	Start       *time.Time
	End         *time.Time
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient toast.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

// State is a snapshot of the scheduler page.
type State struct {
	Events            []models.Event
	Mode              Mode
	SelectedID        string
	Draft             Draft
	SelectedReceivers []models.User
	Suggestions       []models.User
	TypeOptions       []models.EventType
	ReadOnly          bool
	ConfirmingDelete  bool
	Loading           bool
	Notice            *Notice
	RedirectToLogin   bool
}

// EventAPI is the part of the backend the scheduler needs.
type EventAPI interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, p models.EventPayload) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, p models.EventPayload) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	SearchUsers(ctx context.Context, name string) ([]models.User, error)
}

// Controller holds the scheduler page state for one session. Backend calls are
// made without holding the lock; results are applied when they arrive.
type Controller struct {
	api    EventAPI
	actor  auth.Actor
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	inflight int
	// lookupSeq tags suggestion lookups; a response whose tag is no longer
	// current is dropped.
	lookupSeq uint64
}

// New creates a scheduler controller acting as actor.
func New(api EventAPI, actor auth.Actor, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		api:    api,
		actor:  actor,
		logger: logger,
		now:    time.Now,
	}
	c.state = State{
		Mode:        ModeCreate,
		Draft:       c.emptyDraft(),
		TypeOptions: models.TypeOptions(actor.Role),
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// TakeState returns a copy of the current state and clears the notice, so each
// toast is rendered once.
func (c *Controller) TakeState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.snapshot()
	c.state.Notice = nil
	return st
}

func (c *Controller) snapshot() State {
	st := c.state
	st.Events = append([]models.Event(nil), c.state.Events...)
	st.SelectedReceivers = append([]models.User(nil), c.state.SelectedReceivers...)
	st.Suggestions = append([]models.User(nil), c.state.Suggestions...)
	st.TypeOptions = append([]models.EventType(nil), c.state.TypeOptions...)
	if c.state.Notice != nil {
		n := *c.state.Notice
		st.Notice = &n
	}
	return st
}

// Refresh re-fetches the event list. On failure the list is left unchanged.
func (c *Controller) Refresh(ctx context.Context) error {
	c.begin()
	defer c.end()

	events, err := c.api.ListEvents(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked("list events", err, fetchEventsFailed)
		return err
	}
	c.state.Events = events
	c.state.RedirectToLogin = false
	return nil
}

// SelectSlot switches to Create mode with a fresh draft spanning the slot.
func (c *Controller) SelectSlot(start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.emptyDraft()
	d.Start = start
	d.End = end
	c.state.Mode = ModeCreate
	c.state.SelectedID = ""
	c.state.Draft = d
	c.state.SelectedReceivers = nil
	c.state.Suggestions = nil
	c.state.ConfirmingDelete = false
	c.state.ReadOnly = c.now().After(start)
	c.lookupSeq++
}

// SelectEvent switches to Edit mode with the draft taken from event id. The form
// is read-only when the event has already started.
func (c *Controller) SelectEvent(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev, ok := c.findLocked(id)
	if !ok {
		return c.rejectLocked("Error", ErrEventNotFound)
	}
	c.state.Mode = ModeEdit
	c.state.SelectedID = ev.ID
	c.state.Draft = Draft{
		Title:       ev.Title,
		Description: ev.Description,
		Type:        ev.Type,
		Start:       ev.Start,
		End:         ev.End,
	}
	c.state.SelectedReceivers = append([]models.User(nil), ev.Receivers...)
	c.state.Suggestions = nil
	c.state.ConfirmingDelete = false
	c.state.ReadOnly = ev.Start.Before(c.now())
	c.lookupSeq++
	return nil
}

// UpdateDraft applies the non-nil fields of f to the draft.
func (c *Controller) UpdateDraft(f DraftFields) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.Type != nil && !models.AllowsType(c.actor.Role, *f.Type) {
		return c.rejectLocked("Invalid event", ErrTypeNotAllowed)
	}
	d := &c.state.Draft
	if f.Title != nil {
		d.Title = *f.Title
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	if f.Type != nil {
		d.Type = *f.Type
	}
	if f.Start != nil {
		d.Start = *f.Start
	}
	if f.End != nil {
		d.End = *f.End
	}
	return nil
}

// Lookup searches receivers by name. An empty query clears the suggestions
// without calling the backend. Only the most recent lookup may update the list.
func (c *Controller) Lookup(ctx context.Context, q string) error {
	c.mu.Lock()
	c.state.Draft.Receivers = q
	c.lookupSeq++
	seq := c.lookupSeq
	if q == "" {
		c.state.Suggestions = nil
		c.mu.Unlock()
		return nil
	}
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()
	defer c.end()

	users, err := c.api.SearchUsers(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.lookupSeq {
		c.logger.Debug("drop stale lookup", zap.String("query", q))
		return nil
	}
	if err != nil {
		c.failLocked("search users", err, fetchSuggestionsFailed)
		return err
	}
	c.state.Suggestions = users
	return nil
}

// SelectSuggestion adds suggestion id to the selected receivers, once, and
// clears the lookup field.
func (c *Controller) SelectSuggestion(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range c.state.Suggestions {
		if u.ID == id {
			c.selectLocked(u)
			return nil
		}
	}
	return c.rejectLocked("Error", ErrUnknownSuggestion)
}

// AcceptKey handles the accept key in the lookup field. A suggestion is selected
// only when its identity equals the typed text. It reports whether one was.
func (c *Controller) AcceptKey() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := c.state.Draft.Receivers
	for _, u := range c.state.Suggestions {
		if u.ID == text {
			c.selectLocked(u)
			return true
		}
	}
	return false
}

// RemoveReceiver drops id from the selected receivers.
func (c *Controller) RemoveReceiver(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.state.SelectedReceivers[:0]
	for _, u := range c.state.SelectedReceivers {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	c.state.SelectedReceivers = kept
}

// Validate checks the draft times against now, stopping at the first failure.
func Validate(d Draft, now time.Time) error {
	if d.Start.Before(now) {
		return ErrStartInPast
	}
	if !d.End.After(d.Start) {
		return ErrEndNotAfterStart
	}
	return nil
}

// Submit validates the draft and creates or updates the event. Nothing is sent
// when validation fails. On success the form is reset to an empty Create draft
// and the list is re-fetched; on failure local state is kept.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight > 0 {
		defer c.mu.Unlock()
		return c.rejectLocked("Error", ErrInFlight)
	}
	if c.state.ReadOnly {
		defer c.mu.Unlock()
		return c.rejectLocked("Invalid event", ErrReadOnly)
	}
	d := c.state.Draft
	if err := Validate(d, c.now()); err != nil {
		defer c.mu.Unlock()
		return c.rejectLocked("Invalid event", err)
	}
	if !models.AllowsType(c.actor.Role, d.Type) {
		defer c.mu.Unlock()
		return c.rejectLocked("Invalid event", ErrTypeNotAllowed)
	}
	mode, id := c.state.Mode, c.state.SelectedID
	payload := models.EventPayload{
		Title:       d.Title,
		Description: d.Description,
		Type:        d.Type,
		EventType:   d.Type,
		Start:       d.Start,
		End:         d.End,
		Receivers:   make([]string, 0, len(c.state.SelectedReceivers)),
	}
	for _, u := range c.state.SelectedReceivers {
		payload.Receivers = append(payload.Receivers, u.ID)
	}
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()
	defer c.end()

	var err error
	if mode == ModeEdit {
		_, err = c.api.UpdateEvent(ctx, id, payload)
	} else {
		_, err = c.api.CreateEvent(ctx, payload)
	}
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if mode == ModeEdit {
			c.failLocked("update event", err, updateFailed)
		} else {
			c.failLocked("create event", err, addFailed)
		}
		return err
	}

	msg := added
	if mode == ModeEdit {
		msg = updated
	}
	c.resetWith(&Notice{Kind: NoticeSuccess, Title: "Success", Message: msg})
	return c.refreshAfterWrite(ctx)
}

// RequestDelete asks for confirmation before deleting the selected event.
func (c *Controller) RequestDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != ModeEdit || c.state.SelectedID == "" {
		return c.rejectLocked("Error", ErrNoSelection)
	}
	c.state.ConfirmingDelete = true
	return nil
}

// CancelDelete dismisses the confirmation.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.state.ConfirmingDelete = false
	c.mu.Unlock()
}

// ConfirmDelete deletes the selected event after RequestDelete. On failure the
// server message is shown and the list is kept.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.ConfirmingDelete {
		defer c.mu.Unlock()
		return c.rejectLocked("Error", ErrNotConfirmed)
	}
	if c.inflight > 0 {
		defer c.mu.Unlock()
		return c.rejectLocked("Error", ErrInFlight)
	}
	id := c.state.SelectedID
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()
	defer c.end()

	if err := c.api.DeleteEvent(ctx, id); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.ConfirmingDelete = false
		c.failLocked("delete event", err, apiclient.Message(err, deleteFailed))
		return err
	}

	c.resetWith(&Notice{Kind: NoticeSuccess, Title: "Success", Message: deleted})
	return c.refreshAfterWrite(ctx)
}

// refreshAfterWrite re-fetches the list once a write went through. The write
// stands even when the fetch fails, so only a 401 is returned; other failures
// are appended to the success notice.
func (c *Controller) refreshAfterWrite(ctx context.Context) error {
	events, err := c.api.ListEvents(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			c.state.RedirectToLogin = true
			return err
		}
		c.logger.Warn("list events after write", zap.String("user_id", c.actor.UserID), zap.Error(err))
		if c.state.Notice != nil {
			c.state.Notice.Message += ", but " + listStale
		}
		return nil
	}
	c.state.Events = events
	c.state.RedirectToLogin = false
	return nil
}

// Events fetches the event list for exports without touching page state.
func (c *Controller) Events(ctx context.Context) ([]models.Event, error) {
	return c.api.ListEvents(ctx)
}

// Invalid records a rejected form input as an error notice and returns err.
func (c *Controller) Invalid(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejectLocked("Invalid event", err)
}

func (c *Controller) resetWith(n *Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Mode = ModeCreate
	c.state.SelectedID = ""
	c.state.Draft = c.emptyDraft()
	c.state.SelectedReceivers = nil
	c.state.Suggestions = nil
	c.state.ConfirmingDelete = false
	c.state.ReadOnly = false
	c.state.Notice = n
	c.lookupSeq++
}

func (c *Controller) emptyDraft() Draft {
	return Draft{Type: models.DefaultEventType(c.actor.Role)}
}

func (c *Controller) selectLocked(u models.User) {
	dup := false
	for _, r := range c.state.SelectedReceivers {
		if r.ID == u.ID {
			dup = true
			break
		}
	}
	if !dup {
		c.state.SelectedReceivers = append(c.state.SelectedReceivers, u)
	}
	c.state.Draft.Receivers = ""
	c.state.Suggestions = nil
	c.lookupSeq++
}

func (c *Controller) findLocked(id string) (models.Event, bool) {
	for _, ev := range c.state.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return models.Event{}, false
}

// failLocked records a backend failure. A 401 flags the redirect to login;
// anything else becomes an error toast.
func (c *Controller) failLocked(op string, err error, msg string) {
	if apiclient.IsUnauthorized(err) {
		c.state.RedirectToLogin = true
		return
	}
	c.state.Notice = &Notice{Kind: NoticeError, Title: "Error", Message: msg}
	c.logger.Warn(op, zap.String("user_id", c.actor.UserID), zap.Error(err))
}

// rejectLocked shows err as an error notice. Nothing was sent to the backend.
func (c *Controller) rejectLocked(title string, err error) error {
	c.state.Notice = &Notice{Kind: NoticeError, Title: title, Message: err.Error()}
	return err
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
