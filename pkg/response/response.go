package response

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderStatus carries the real status of a fragment that was sent with 200.
const HeaderStatus = "X-Fragment-Status"

// Body is the standard JSON response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// BadGateway sends 502, used when the backend call behind a request failed.
func BadGateway(c *gin.Context, err string) {
	c.JSON(http.StatusBadGateway, Body{Success: false, Error: err})
}

// IsHTMX reports whether the request was issued by htmx and expects a fragment.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// WantsJSON reports whether the client asked for JSON rather than a page.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// Page renders the full template for normal requests and the fragment for htmx ones.
// htmx only swaps 2xx and 3xx responses, so a client error in a fragment is sent
// with 200 and the original code in X-Fragment-Status.
func Page(c *gin.Context, status int, page, fragment string, data gin.H) {
	if IsHTMX(c) {
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			c.Header(HeaderStatus, strconv.Itoa(status))
			status = http.StatusOK
		}
		c.HTML(status, fragment, data)
		return
	}
	c.HTML(status, page, data)
}

// RedirectTo sends the browser to path: HX-Redirect for htmx, 401 JSON for API clients,
// 303 otherwise.
func RedirectTo(c *gin.Context, path string) {
	switch {
	case IsHTMX(c):
		c.Header("HX-Redirect", path)
		c.Status(http.StatusOK)
	case WantsJSON(c):
		Unauthorized(c, "authentication required")
	default:
		c.Redirect(http.StatusSeeOther, path)
	}
}
