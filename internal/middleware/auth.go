package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"shortly-live/internal/apperr"
	"shortly-live/internal/jwt"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// TokenValidator checks an access token.
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware requires a valid access token in the Authorization header.
// With allowQuery, a "token" query parameter is accepted too, for clients
// such as browsers' WebSocket API that cannot set headers.
func AuthMiddleware(tokens TokenValidator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			_ = c.Error(apperr.Auth("Missing or invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			message := "Invalid or expired token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				message = "Token has expired"
			}
			_ = c.Error(&apperr.Error{Kind: apperr.KindAuth, Message: message, Err: err})
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID())
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

// UserID returns the authenticated user set by AuthMiddleware.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(userIDKey)
	return id, id != ""
}
