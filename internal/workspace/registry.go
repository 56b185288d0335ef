// Package workspace keeps the page controllers of each signed-in session.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
	"github.com/aura-hr/portal/internal/directory"
	"github.com/aura-hr/portal/internal/scheduler"
)

// Workspace is the page state of one session.
type Workspace struct {
	Directory *directory.Controller
	Scheduler *scheduler.Controller
}

// Factory builds the workspace of a new session.
type Factory func(sess *auth.Session) *Workspace

// NewFactory returns a Factory whose controllers call the backend as the
// session's actor.
func NewFactory(client *apiclient.Client, images directory.ImageResolver, pageSize int, logger *zap.Logger) Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(sess *auth.Session) *Workspace {
		api := client.As(sess.Actor.Token)
		return &Workspace{
			Directory: directory.New(api, images, pageSize, logger.With(zap.String("page", "directory"))),
			Scheduler: scheduler.New(api, sess.Actor, logger.With(zap.String("page", "scheduler"))),
		}
	}
}

type entry struct {
	ws       *Workspace
	token    string
	lastSeen time.Time
}

// Registry maps session ids to workspaces and evicts idle ones.
type Registry struct {
	factory Factory
	idle    time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*entry
}

// NewRegistry creates a registry. Workspaces unused for idle are dropped by Sweep.
func NewRegistry(factory Factory, idle time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		idle:    idle,
		logger:  logger,
		now:     time.Now,
		items:   make(map[string]*entry),
	}
}

// Get returns the session's workspace, creating it on first use.
func (r *Registry) Get(sess *auth.Session) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[sess.ID]
	if !ok {
		e = &entry{ws: r.factory(sess), token: sess.Actor.Token}
		r.items[sess.ID] = e
		r.logger.Debug("workspace created", zap.String("session_id", sess.ID))
	}
	e.lastSeen = r.now()
	return e.ws
}

// Drop forgets the workspace of session id.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

// DropToken forgets every workspace acting with token.
func (r *Registry) DropToken(token string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.items {
		if e.token == token {
			delete(r.items, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep drops workspaces idle for longer than the registry's idle duration.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idle)
	n := 0
	for id, e := range r.items {
		if e.lastSeen.Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n
}

// Run calls Sweep every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle workspaces", zap.Int("count", n), zap.Int("live", r.Len()))
			}
		}
	}
}

// Directory returns the directory controller of the request's session.
func (r *Registry) Directory(c *gin.Context) *directory.Controller {
	return r.current(c).Directory
}

// Scheduler returns the scheduler controller of the request's session.
func (r *Registry) Scheduler(c *gin.Context) *scheduler.Controller {
	return r.current(c).Scheduler
}

// current must only be used behind middleware.RequireSession.
func (r *Registry) current(c *gin.Context) *Workspace {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		panic("workspace: request has no session")
	}
	return r.Get(sess)
}
