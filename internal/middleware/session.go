package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
	"github.com/aura-hr/portal/pkg/response"
)

// RequireSession resolves the session cookie into an *auth.Session on the gin
// context. Requests without a valid session are sent to the login view.
func RequireSession(jwt *auth.JWTService, store auth.SessionStore, cookie auth.CookieConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(cookie.Name)
		if err != nil || value == "" {
			toLogin(c)
			return
		}
		claims, err := jwt.Validate(value)
		if err != nil {
			auth.ClearCookie(c, cookie)
			toLogin(c)
			return
		}
		sess, err := store.Get(c.Request.Context(), claims.SessionID)
		if err != nil {
			if !errors.Is(err, auth.ErrSessionNotFound) {
				logger.Error("load session", zap.String("session_id", claims.SessionID), zap.Error(err))
			}
			auth.ClearCookie(c, cookie)
			toLogin(c)
			return
		}
		c.Set(auth.ContextSession, sess)
		c.Next()
	}
}

// AuthFailure runs after the handlers. When one of them reported a backend 401
// without writing a response, the session is revoked and the browser is sent to
// the login view. This is the one place such failures are handled.
func AuthFailure(revoke func(c *gin.Context, sessionID string), cookie auth.CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() || !hasUnauthorized(c.Errors) {
			return
		}
		if sess, ok := auth.CurrentSession(c); ok {
			revoke(c, sess.ID)
		}
		auth.ClearCookie(c, cookie)
		toLogin(c)
	}
}

func hasUnauthorized(errs []*gin.Error) bool {
	for _, e := range errs {
		if apiclient.IsUnauthorized(e.Err) {
			return true
		}
	}
	return false
}

func toLogin(c *gin.Context) {
	target := auth.LoginPath
	if c.Request.Method == http.MethodGet && !response.IsHTMX(c) {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	response.RedirectTo(c, target)
	c.Abort()
}
