package bookstoreserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	userdomain "github.com/hamrobooks/bookstore-api/internal/domains/users/domain"
	usersports "github.com/hamrobooks/bookstore-api/internal/domains/users/ports"
)

// contextUserKey is the gin context key holding the authenticated account.
const contextUserKey = "authenticatedUser"

var (
	errMissingToken = errors.New("authorization token is required")
	errForbidden    = errors.New("insufficient permissions")
)

// RequireAuth resolves the bearer token to an account and aborts with 401
// when the session is missing, expired, or references a deleted user.
func RequireAuth(users usersports.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		user, err := users.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated account holds one of
// the given roles. Must run after RequireAuth.
func RequireRole(roles ...userdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		respondError(c, http.StatusForbidden, errForbidden)
		c.Abort()
	}
}

// currentUser returns the account placed in the context by RequireAuth.
func currentUser(c *gin.Context) (*userdomain.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*userdomain.User)
	return user, ok
}

// bearerToken extracts the opaque session token from the Authorization
// header. A bare token without the Bearer prefix is also accepted.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return header
}
