package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/models"
	"github.com/aura-hr/portal/internal/views"
	"github.com/aura-hr/portal/pkg/response"
)

func newRouter(ctl *Controller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.Must())
	h := NewHandler(func(*gin.Context) *Controller { return ctl }, nil)
	r.GET("/events", h.Index)
	r.POST("/events/slot", h.Slot)
	r.POST("/events/submit", h.Submit)
	r.GET("/events/suggestions", h.Suggestions)
	r.GET("/events/feed", h.Feed)
	r.GET("/events/calendar.ics", h.Calendar)
	return r
}

func postForm(r http.Handler, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIndexRendersFullPage(t *testing.T) {
	ev := models.Event{ID: "e1", Title: "Quarterly review", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
	r := newRouter(newController(newFake(ev), models.RoleAdmin))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "<!DOCTYPE html>")
	require.Contains(t, body, "Quarterly review")
	require.Contains(t, body, `value="Holiday"`)
}

func TestSlotReturnsFragmentForHTMX(t *testing.T) {
	ctl := newController(newFake(), models.RoleEmployee)
	r := newRouter(ctl)

	w := postForm(r, "/events/slot", url.Values{
		"start": {"2030-03-05T09:00:00Z"},
		"end":   {"2030-03-05T10:00:00Z"},
	}, true)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "<!DOCTYPE html>")
	require.NotContains(t, w.Body.String(), `value="Public"`)
	require.Equal(t, time.Date(2030, 3, 5, 9, 0, 0, 0, time.UTC), ctl.State().Draft.Start)
}

func TestSlotRejectsBadTime(t *testing.T) {
	r := newRouter(newController(newFake(), models.RoleAdmin))
	w := postForm(r, "/events/slot", url.Values{"start": {"tomorrow"}, "end": {"later"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "400", w.Header().Get(response.HeaderStatus))
	require.Contains(t, w.Body.String(), "invalid date or time")

	w = postForm(r, "/events/slot", url.Values{"start": {"tomorrow"}, "end": {"later"}}, false)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitValidationFailureSendsNothing(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"start in past", now.Add(-time.Hour), now.Add(time.Hour), "start cannot be in the past"},
		{"end before start", now.Add(2 * time.Hour), now.Add(time.Hour), "end must be after start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFake()
			r := newRouter(newController(api, models.RoleAdmin))
			form := url.Values{
				"title": {"Offsite"},
				"type":  {"Public"},
				"start": {tt.start.Format(time.RFC3339)},
				"end":   {tt.end.Format(time.RFC3339)},
			}

			// htmx swaps only 2xx, so the fragment carrying the notice is sent with 200
			w := postForm(r, "/events/submit", form, true)
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "422", w.Header().Get(response.HeaderStatus))
			require.Contains(t, w.Body.String(), `id="toast"`)
			require.Contains(t, w.Body.String(), tt.want)

			w = postForm(r, "/events/submit", form, false)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			require.Contains(t, w.Body.String(), tt.want)
			require.Zero(t, api.writes())
		})
	}
}

func TestSubmitRejectsForbiddenType(t *testing.T) {
	api := newFake()
	r := newRouter(newController(api, models.RoleEmployee))

	w := postForm(r, "/events/submit", url.Values{
		"type":  {"Holiday"},
		"start": {now.Add(time.Hour).Format(time.RFC3339)},
		"end":   {now.Add(2 * time.Hour).Format(time.RFC3339)},
	}, true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "403", w.Header().Get(response.HeaderStatus))
	require.Contains(t, w.Body.String(), ErrTypeNotAllowed.Error())
	require.Zero(t, api.writes())
}

func TestUnauthorizedIsLeftToMiddleware(t *testing.T) {
	api := newFake()
	api.listErr = &apiclient.Error{Op: "list events", Status: http.StatusUnauthorized}
	ctl := newController(api, models.RoleAdmin)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.Must())
	var errs []*gin.Error
	r.Use(func(c *gin.Context) {
		c.Next()
		errs = c.Errors
	})
	h := NewHandler(func(*gin.Context) *Controller { return ctl }, nil)
	r.GET("/events", h.Index)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.Empty(t, w.Body.String())
	require.Len(t, errs, 1)
	require.True(t, apiclient.IsUnauthorized(errs[0].Err))
}

func TestSuggestionsFragment(t *testing.T) {
	api := newFake()
	api.users["ann"] = []models.User{{ID: "u1", Name: "Ann", Email: "ann@x.io"}}
	r := newRouter(newController(api, models.RoleAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/suggestions?receivers=ann", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ann@x.io")
	require.Contains(t, w.Body.String(), `value="u1"`)
}

func TestSuggestionsFailureShowsToast(t *testing.T) {
	api := newFake()
	api.searchErr = &apiclient.Error{Op: "search users", Status: http.StatusInternalServerError}
	ctl := newController(api, models.RoleAdmin)
	r := newRouter(ctl)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/suggestions?receivers=jo", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `hx-swap-oob="true"`)
	require.Contains(t, body, "Failed to fetch email suggestions")
	require.Nil(t, ctl.State().Notice)
}

func TestSuggestionsWithoutNoticeHasNoToast(t *testing.T) {
	api := newFake()
	api.users["ann"] = []models.User{{ID: "u1", Email: "ann@x.io"}}
	r := newRouter(newController(api, models.RoleAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/suggestions?receivers=ann", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(w, req)

	require.NotContains(t, w.Body.String(), "hx-swap-oob")
}

func TestFeedUsesEnvelope(t *testing.T) {
	ev := models.Event{ID: "e1", Title: "Review", Type: models.EventPublic, Start: now, End: now.Add(time.Hour),
		Receivers: []models.User{{ID: "u1"}}}
	r := newRouter(newController(newFake(ev), models.RoleAdmin))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/feed", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool        `json:"success"`
		Data    []FeedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, "Review", body.Data[0].Title)
	require.Equal(t, 1, body.Data[0].Receivers)
}

func TestFeedBackendFailure(t *testing.T) {
	api := newFake()
	api.listErr = &apiclient.Error{Op: "list events", Status: http.StatusInternalServerError, Message: "db down"}
	ctl := newController(api, models.RoleAdmin)
	r := newRouter(ctl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/feed", nil))
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "db down")

	st := ctl.State()
	require.Nil(t, st.Notice)
	require.False(t, st.Loading)
}

func TestFeedDoesNotHoldTheForm(t *testing.T) {
	api := newFake()
	api.listHold = make(chan struct{})
	api.listEntered = make(chan struct{}, 1)
	ctl := newController(api, models.RoleAdmin)
	r := newRouter(ctl)
	hold := api.listHold

	done := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/feed", nil))
		done <- w.Code
	}()
	<-api.listEntered

	ctl.SelectSlot(now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, ctl.Submit(context.Background()))
	require.Len(t, api.created, 1)

	close(hold)
	require.Equal(t, http.StatusOK, <-done)
}

func TestCalendarExport(t *testing.T) {
	ev := models.Event{ID: "e1", Title: "Review", Description: "Q1 numbers", Type: models.EventPrivate,
		Start: now, End: now.Add(time.Hour), Receivers: []models.User{{ID: "u1", Email: "ann@x.io"}}}
	r := newRouter(newController(newFake(ev), models.RoleAdmin))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/calendar.ics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	body := w.Body.String()
	require.Contains(t, body, "BEGIN:VCALENDAR")
	require.Contains(t, body, "UID:e1@portal")
	require.Contains(t, body, "SUMMARY:Review")
	require.Contains(t, body, "DTSTART:20300304T100000Z")
	require.Contains(t, body, "CATEGORIES:Private")
	require.Contains(t, body, "mailto:ann@x.io")
}
