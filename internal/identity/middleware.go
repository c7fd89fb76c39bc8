package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClaimsContextKey is the gin context key carrying validated session claims.
const ClaimsContextKey = "auth_claims"

// RequireSession validates the session cookie and injects claims.
func RequireSession(configuration ServerConfig) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		sessionCookie, cookieErr := contextGin.Request.Cookie(configuration.SessionCookieName)
		if cookieErr != nil || sessionCookie == nil || sessionCookie.Value == "" {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, valid := parseSessionClaims(sessionCookie.Value, configuration)
		if !valid {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		contextGin.Set(ClaimsContextKey, claims)
		contextGin.Next()
	}
}

// SessionClaimsFrom extracts validated claims injected by RequireSession.
func SessionClaimsFrom(contextGin *gin.Context) (*SessionClaims, bool) {
	claimsValue, found := contextGin.Get(ClaimsContextKey)
	if !found {
		return nil, false
	}
	claims, ok := claimsValue.(*SessionClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}
