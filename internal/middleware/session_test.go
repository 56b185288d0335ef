package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
)

var testCookie = auth.CookieConfig{Name: "portal_session"}

type fixture struct {
	router  *gin.Engine
	store   *auth.MemoryStore
	jwt     *auth.JWTService
	revoked []string
}

func newFixture(handler gin.HandlerFunc) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{store: auth.NewMemoryStore(time.Hour), jwt: auth.NewJWTService("s3cret", 1)}
	revoke := func(c *gin.Context, id string) {
		f.revoked = append(f.revoked, id)
		_ = f.store.Delete(c.Request.Context(), id)
	}
	f.router = gin.New()
	g := f.router.Group("")
	g.Use(RequireSession(f.jwt, f.store, testCookie, zap.NewNop()), AuthFailure(revoke, testCookie))
	g.GET("/employees", handler)
	return f
}

func (f *fixture) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	sess := &auth.Session{ID: "sid-1", Actor: auth.Actor{UserID: "u1", Token: "tok"}}
	require.NoError(t, f.store.Save(context.Background(), sess))
	value, err := f.jwt.Generate(sess)
	require.NoError(t, err)
	return &http.Cookie{Name: testCookie.Name, Value: value}
}

func (f *fixture) get(htmx bool, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/employees?page=2", nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireSessionRedirectsAnonymous(t *testing.T) {
	called := false
	f := newFixture(func(c *gin.Context) { called = true })

	w := f.get(false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/auth?next=%2Femployees%3Fpage%3D2", w.Header().Get("Location"))

	w = f.get(true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "/auth", w.Header().Get("HX-Redirect"))
	require.False(t, called)
}

func TestRequireSessionRejectsBadCookie(t *testing.T) {
	f := newFixture(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := f.get(false, &http.Cookie{Name: testCookie.Name, Value: "forged"})
	require.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRequireSessionRejectsRevokedSession(t *testing.T) {
	f := newFixture(func(c *gin.Context) { c.Status(http.StatusNoContent) })
	cookie := f.signIn(t)
	require.NoError(t, f.store.Delete(context.Background(), "sid-1"))

	w := f.get(false, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRequireSessionSetsSession(t *testing.T) {
	var got *auth.Session
	f := newFixture(func(c *gin.Context) {
		got, _ = auth.CurrentSession(c)
		c.Status(http.StatusNoContent)
	})

	w := f.get(false, f.signIn(t))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, got)
	require.Equal(t, "tok", got.Actor.Token)
}

func TestAuthFailureRevokesAndRedirects(t *testing.T) {
	f := newFixture(func(c *gin.Context) {
		_ = c.Error(&apiclient.Error{Op: "list employees", Status: http.StatusUnauthorized})
	})
	cookie := f.signIn(t)

	w := f.get(true, cookie)

	require.Equal(t, "/auth", w.Header().Get("HX-Redirect"))
	require.Equal(t, []string{"sid-1"}, f.revoked)
	_, err := f.store.Get(context.Background(), "sid-1")
	require.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestAuthFailureIgnoresOtherErrors(t *testing.T) {
	f := newFixture(func(c *gin.Context) {
		_ = c.Error(&apiclient.Error{Op: "list employees", Status: http.StatusInternalServerError})
		c.String(http.StatusOK, "rendered")
	})

	w := f.get(false, f.signIn(t))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "rendered", w.Body.String())
	require.Empty(t, f.revoked)
}
