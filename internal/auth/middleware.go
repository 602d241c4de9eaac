package auth

import (
	"strings"

	"studybuddy/backend/internal/apperror"

	"github.com/gin-gonic/gin"
)

// Context keys set by Required.
const (
	ContextUserID   = "userID"
	ContextUserName = "userName"
)

// Required rejects requests without a valid token. The token is read from
// the Authorization header, or from the token query parameter for clients
// that cannot set headers on a WebSocket upgrade.
func Required(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abort(c, apperror.Unauthorized("Authentication required"))
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			abort(c, err)
			return
		}

		userID, _ := claims.UserID()
		c.Set(ContextUserID, userID)
		c.Set(ContextUserName, claims.Name)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Required.
func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

// UserName returns the authenticated display name set by Required.
func UserName(c *gin.Context) string {
	return c.GetString(ContextUserName)
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperror.StatusCode(err), gin.H{"message": apperror.PublicMessage(err)})
}
