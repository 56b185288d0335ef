package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/auth"

const defaultLanding = "/employees"

// LoginRequest is the form body for POST /auth.
type LoginRequest struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

// Handler serves the login view and signs sessions in and out.
type Handler struct {
	api      *apiclient.Client
	store    SessionStore
	jwt      *JWTService
	cookie   CookieConfig
	onLogout func(sessionID string)
	logger   *zap.Logger
}

// NewHandler creates an auth handler. onLogout may be nil.
func NewHandler(api *apiclient.Client, store SessionStore, jwt *JWTService, cookie CookieConfig, onLogout func(string), logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{api: api, store: store, jwt: jwt, cookie: cookie, onLogout: onLogout, logger: logger}
}

// LoginPage handles GET /auth.
func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", gin.H{"Title": "Sign in", "Next": safeNext(c.Query("next"))})
}

// Login handles POST /auth.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderLogin(c, http.StatusBadRequest, req, "Please enter a valid email and password.")
		return
	}

	res, err := h.api.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			h.renderLogin(c, http.StatusUnauthorized, req, "Invalid email or password.")
			return
		}
		h.logger.Warn("login failed", zap.Error(err))
		h.renderLogin(c, http.StatusBadGateway, req, apiclient.Message(err, "Login failed, please try again."))
		return
	}

	sess := &Session{
		ID: uuid.New().String(),
		Actor: Actor{
			UserID: res.User.ID,
			Email:  res.User.Email,
			Name:   res.User.Name,
			Role:   res.User.Role,
			Token:  res.Token,
		},
		CreatedAt: time.Now(),
	}
	if err := h.store.Save(c.Request.Context(), sess); err != nil {
		h.logger.Error("save session", zap.Error(err))
		h.renderLogin(c, http.StatusInternalServerError, req, "Login failed, please try again.")
		return
	}
	value, err := h.jwt.Generate(sess)
	if err != nil {
		h.logger.Error("sign session cookie", zap.Error(err))
		h.renderLogin(c, http.StatusInternalServerError, req, "Login failed, please try again.")
		return
	}

	SetCookie(c, h.cookie, value, int(h.jwt.Expiry().Seconds()))
	h.logger.Info("signed in", zap.String("user_id", sess.Actor.UserID), zap.String("role", string(sess.Actor.Role)))
	c.Redirect(http.StatusSeeOther, safeNext(req.Next))
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	if sess, ok := CurrentSession(c); ok {
		h.Revoke(c, sess.ID)
	}
	ClearCookie(c, h.cookie)
	c.Redirect(http.StatusSeeOther, LoginPath)
}

// Revoke deletes the session and drops whatever the portal holds for it.
func (h *Handler) Revoke(c *gin.Context, sessionID string) {
	if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
		h.logger.Warn("delete session", zap.String("session_id", sessionID), zap.Error(err))
	}
	if h.onLogout != nil {
		h.onLogout(sessionID)
	}
}

func (h *Handler) renderLogin(c *gin.Context, status int, req LoginRequest, msg string) {
	c.HTML(status, "login.tmpl", gin.H{
		"Title": "Sign in",
		"Email": req.Email,
		"Next":  safeNext(req.Next),
		"Error": msg,
	})
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, LoginPath) {
		return defaultLanding
	}
	return next
}
