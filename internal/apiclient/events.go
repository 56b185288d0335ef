package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aura-hr/portal/internal/models"
)

// ListEvents handles GET /events.
func (s *Session) ListEvents(ctx context.Context) ([]models.Event, error) {
	var out models.EventList
	if err := s.client.do(ctx, "list events", http.MethodGet, "/events", nil, s.token, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// CreateEvent handles POST /events.
func (s *Session) CreateEvent(ctx context.Context, p models.EventPayload) (*models.Event, error) {
	var out models.Event
	if err := s.client.do(ctx, "create event", http.MethodPost, "/events", nil, s.token, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEvent handles PATCH /events/:id.
func (s *Session) UpdateEvent(ctx context.Context, id string, p models.EventPayload) (*models.Event, error) {
	var out models.Event
	if err := s.client.do(ctx, "update event", http.MethodPatch, "/events/"+url.PathEscape(id), nil, s.token, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent handles DELETE /events/:id.
func (s *Session) DeleteEvent(ctx context.Context, id string) error {
	return s.client.do(ctx, "delete event", http.MethodDelete, "/events/"+url.PathEscape(id), nil, s.token, nil, nil)
}
