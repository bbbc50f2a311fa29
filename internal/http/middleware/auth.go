package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"transpo/internal/domain"
)

const callerKey = "caller"

// TokenParser turns a bearer token into the caller it names.
type TokenParser func(token string) (domain.Caller, error)

// Auth rejects requests without a valid bearer token and stores the caller
// on the context.
func Auth(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		caller, err := parse(strings.TrimSpace(token))
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles. A wrong
// role is reported like any other rejected input.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing caller")
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusBadRequest, "validation_error", "role "+caller.Role.String()+" may not perform this operation")
	}
}

// CallerFrom returns the caller stored by Auth.
func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"code":       code,
		"message":    message,
		"request_id": GetRequestID(c),
	})
}
