package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aura-hr/portal/internal/models"
)

// ListEmployees handles GET /employees?page&limit.
func (s *Session) ListEmployees(ctx context.Context, page, limit int) (*models.EmployeePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var out models.EmployeePage
	if err := s.client.do(ctx, "list employees", http.MethodGet, "/employees", q, s.token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
