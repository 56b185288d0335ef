package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextSession is the gin context key holding the current *Session.
const ContextSession = "session"

// CurrentSession returns the session the request is authenticated as.
func CurrentSession(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok && s != nil
}

// CookieConfig names the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetCookie writes the session cookie.
func SetCookie(c *gin.Context, cfg CookieConfig, value string, maxAgeSec int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, value, maxAgeSec, "/", "", cfg.Secure, true)
}

// ClearCookie expires the session cookie.
func ClearCookie(c *gin.Context, cfg CookieConfig) {
	SetCookie(c, cfg, "", -1)
}
