// Package middleware holds the gin middleware shared by the HTTP server.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIKeyHeader carries the service-to-service key.
const APIKeyHeader = "X-Internal-API-Key"

const bearerPrefix = "Bearer "

// ParseAPIKeys splits a comma-separated key list, dropping blanks. Several keys
// are accepted at once so a key can be rotated without downtime.
func ParseAPIKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// InternalAuthMiddleware admits requests presenting one of keys, either in
// X-Internal-API-Key or as an Authorization bearer token. With no keys
// configured every request is refused with 500.
func InternalAuthMiddleware(keys ...string) gin.HandlerFunc {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			accepted = append(accepted, []byte(k))
		}
	}
	if len(accepted) == 0 {
		return func(c *gin.Context) {
			zerolog.Ctx(c.Request.Context()).Error().Msg("internal API key not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: internal API key not set",
			})
		}
	}

	return func(c *gin.Context) {
		presented, source := presentedKey(c)
		if presented == "" || !matchesAny([]byte(presented), accepted) {
			zerolog.Ctx(c.Request.Context()).Warn().
				Str("path", c.Request.URL.Path).
				Str("source", source).
				Str("ip", c.ClientIP()).
				Msg("rejected internal request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}

func presentedKey(c *gin.Context) (key, source string) {
	if key = c.GetHeader(APIKeyHeader); key != "" {
		return key, "header"
	}
	auth := c.GetHeader("Authorization")
	if len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(auth[len(bearerPrefix):]), "bearer"
	}
	return "", "none"
}

// matchesAny compares against every key so timing does not reveal which one matched.
func matchesAny(presented []byte, accepted [][]byte) bool {
	match := 0
	for _, k := range accepted {
		match |= subtle.ConstantTimeCompare(presented, k)
	}
	return match == 1
}
