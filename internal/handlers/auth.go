package handlers

import (
	"net/http"

	"foodgram/internal/middleware"
	"foodgram/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *services.TokenService
}

func NewAuthHandler(users *services.UserService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues an access token. The user id and token id also go into the
// cookie session so browser pages (the printable shopping list) work without
// the header.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionKey, user.ID)
	session.Set(middleware.SessionTokenKey, token.ID)
	_ = session.Save()

	c.JSON(http.StatusOK, gin.H{"auth_token": token.Token})
}

// Logout revokes the token used for this request and clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if jti := c.GetString(middleware.TokenIDKey); jti != "" {
		if err := h.tokens.Revoke(c.Request.Context(), jti); err != nil {
			respondError(c, err)
			return
		}
	}
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Status(http.StatusNoContent)
}
