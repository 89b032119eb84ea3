package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	jwtpkg "loyaltydesk/backoffice/pkg/jwt"
	"loyaltydesk/backoffice/pkg/response"
)

const ContextKeyUserClaims = "user_claims"

// JWTAuth rejects requests without a valid access token with a 401 envelope.
func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := accessClaims(c, jwtManager)
		if claims == nil {
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}
		c.Set(ContextKeyUserClaims, claims)
		c.Next()
	}
}

// SessionPage is JWTAuth for page-style endpoints: callers without a session get the
// "not logged in" placeholder with status 200 instead of an error.
func SessionPage(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := accessClaims(c, jwtManager)
		if claims == nil {
			response.NotLoggedIn(c)
			c.Abort()
			return
		}
		c.Set(ContextKeyUserClaims, claims)
		c.Next()
	}
}

func accessClaims(c *gin.Context, jwtManager *jwtpkg.Manager) (*jwtpkg.Claims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "missing authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "invalid authorization format"
	}

	claims, err := jwtManager.Validate(parts[1])
	if err != nil {
		return nil, "invalid or expired token"
	}
	if claims.TokenType != jwtpkg.TokenTypeAccess {
		return nil, "invalid token type"
	}
	return claims, ""
}
