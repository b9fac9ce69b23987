// Package requestid tags every request with an identifier that the access
// logger and error envelope can reference. A client-supplied X-Request-ID is
// trusted as-is so upstream proxies can correlate their own traces.
package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Header is the wire name for the request identifier.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware ensures the request carries an identifier, minting one when the
// client did not send any, and echoes it back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = newID()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value reads the request identifier back out of the Gin context. It returns
// an empty string when the middleware did not run.
func Value(c *gin.Context) string {
	v, ok := c.Get(contextKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// newID mints a 32-hex-char identifier. The timestamp fallback only fires
// when the OS entropy source is unavailable.
func newID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "req-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf[:])
}
