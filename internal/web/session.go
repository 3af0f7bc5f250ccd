package web

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "imagechat_session"

	// SessionIDLength is the length of the session ID in bytes.
	// 16 bytes = 128 bits of entropy.
	SessionIDLength = 16

	// SessionMaxAge is how long a session cookie lasts, in seconds.
	SessionMaxAge = 24 * 60 * 60

	// sessionContextKey is the gin context key holding the session ID.
	sessionContextKey = "sessionID"
)

// GenerateSessionID creates a new cryptographically secure session ID.
// Returns a hex-encoded string of random bytes.
func GenerateSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// ValidateSessionID reports whether a session ID is properly formatted:
// a hex-encoded string of SessionIDLength*2 characters.
func ValidateSessionID(sessionID string) bool {
	if len(sessionID) != SessionIDLength*2 {
		return false
	}
	_, err := hex.DecodeString(sessionID)
	return err == nil
}

// SessionID retrieves the session ID set by SessionMiddleware.
// Returns an empty string if the middleware did not run.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

// SessionMiddleware ensures every request has a session ID. A valid
// session cookie is reused; otherwise a new ID is generated and a
// cookie is set. The ID is stored on the gin context for handlers.
//
// The session ID never appears in URLs, so it cannot leak through
// logs or browser history.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID string

		if cookie, err := c.Cookie(SessionCookieName); err == nil && ValidateSessionID(cookie) {
			sessionID = cookie
		}

		if sessionID == "" {
			id, err := GenerateSessionID()
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			sessionID = id

			c.SetSameSite(http.SameSiteStrictMode)
			c.SetCookie(SessionCookieName, sessionID, SessionMaxAge, "/", "", false, true)
		}

		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}
