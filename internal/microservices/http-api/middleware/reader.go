package middleware

import (
	"net/http"

	"mangareader/internal/library"

	"github.com/gin-gonic/gin"
)

const KeyReaderID = "readerID"

const readerCookieMaxAge = 365 * 24 * 60 * 60

// ReaderIdentity resolves whose library a request touches: the authenticated
// user when there is one, otherwise an anonymous reader id kept in a cookie.
// Run it after OptionalAuth.
func ReaderIdentity(cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetString(KeyUserID); userID != "" {
			c.Set(KeyReaderID, userID)
			c.Next()
			return
		}

		readerID, err := c.Cookie(cookieName)
		if err != nil || !library.ValidReaderID(readerID) {
			readerID = library.NewReaderID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, readerID, readerCookieMaxAge, "/", "", secure, true)
		}
		c.Set(KeyReaderID, readerID)
		c.Next()
	}
}
