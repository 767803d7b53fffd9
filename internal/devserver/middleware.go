package devserver

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
	"github.com/tasjeel-app/tasjeel/pkg/response"
)

const claimsKey = "authClaims"

// requireAuth extracts the bearer token, validates it, and stores the
// claims for handlers downstream. Requests without a live token stop
// here with 401.
func requireAuth(auth *AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}
		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func currentClaims(c *gin.Context) *Claims {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*Claims)
	return claims
}
