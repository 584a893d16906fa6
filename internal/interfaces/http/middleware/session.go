package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// MaxSessionIDLength bounds client supplied session identifiers
const MaxSessionIDLength = 64

// Session resolves the cart session for every request. The X-Session-ID
// header wins over the cookie; when neither carries a usable value a new
// uuid is minted and handed back as a cookie and response header.
func Session(cfg config.CookieConfig) gin.HandlerFunc {
	name := cfg.Name
	if name == "" {
		name = "session_id"
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	sameSite := parseSameSite(cfg.SameSite)
	maxAge := int(cfg.MaxAge.Seconds())

	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(HeaderSessionID))
		if !validSessionID(sessionID) {
			sessionID = ""
			if cookie, err := c.Cookie(name); err == nil && validSessionID(cookie) {
				sessionID = cookie
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			c.SetSameSite(sameSite)
			c.SetCookie(name, sessionID, maxAge, path, cfg.Domain, cfg.Secure, true)
		}

		c.Set(logger.GinSessionIDKey, sessionID)
		c.Writer.Header().Set(HeaderSessionID, sessionID)

		ctx, _ := logger.WithSessionID(c.Request.Context(), logger.FromContext(c.Request.Context()), sessionID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSessionID returns the session resolved by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(logger.GinSessionIDKey)
}

// validSessionID accepts printable, bounded identifiers without separators
func validSessionID(id string) bool {
	if id == "" || len(id) > MaxSessionIDLength {
		return false
	}
	for _, r := range id {
		if r <= ' ' || r > '~' || r == ';' || r == ',' || r == ':' {
			return false
		}
	}
	return true
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
