package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"foodgram/internal/models"
	"foodgram/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey    = "user"
	TokenIDKey      = "token_id"
	SessionKey      = "user_id"
	SessionTokenKey = "auth_token_id"
)

// AuthRequired rejects anonymous callers with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		c.Next()
	}
}

// LoadUser resolves the caller from an Authorization token, falling back to
// the cookie session. A bad token is treated as anonymous. The session holds
// the id of the token issued at login and is only honoured while that token
// is still stored.
func LoadUser(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c.GetHeader("Authorization")); raw != "" {
			if user, jti, err := tokens.Resolve(c.Request.Context(), raw); err == nil {
				c.Set(CheckUserKey, user)
				c.Set(TokenIDKey, jti)
			}
			c.Next()
			return
		}

		session := sessions.Default(c)
		id, _ := session.Get(SessionKey).(uint)
		jti, _ := session.Get(SessionTokenKey).(string)
		if id != 0 || jti != "" {
			user, err := tokens.ResolveSession(c.Request.Context(), id, jti)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
				c.Set(TokenIDKey, jti)
			case errors.Is(err, services.ErrInvalidToken):
				session.Clear()
				_ = session.Save()
			default:
				log.Printf("Failed to load session user %d: %v", id, err)
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// ViewerID is the caller's id, 0 for anonymous.
func ViewerID(c *gin.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
