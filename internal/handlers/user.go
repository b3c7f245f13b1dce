package handlers

import (
	"net/http"

	"foodgram/internal/middleware"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *services.UserService
	subs     *services.SubscriptionService
	tokens   *services.TokenService
	pageSize int
}

func NewUserHandler(users *services.UserService, subs *services.SubscriptionService, tokens *services.TokenService, pageSize int) *UserHandler {
	return &UserHandler{users: users, subs: subs, tokens: tokens, pageSize: pageSize}
}

func (h *UserHandler) List(c *gin.Context) {
	page := pageFromQuery(c, h.pageSize)
	views, total, err := h.users.ListUsers(c.Request.Context(), middleware.ViewerID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(c, page, total, views))
}

// Register 注册新用户
func (h *UserHandler) Register(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	view, err := h.users.UserView(c.Request.Context(), middleware.CurrentUser(c), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.users.UserView(c.Request.Context(), user, middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// SetPassword changes the password and revokes every issued token.
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID := middleware.ViewerID(c)
	if err := h.users.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	if err := h.tokens.RevokeAll(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := pageFromQuery(c, h.pageSize)
	cards, total, err := h.subs.ListSubscriptions(c.Request.Context(), middleware.ViewerID(c), page, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(c, page, total, cards))
}

// SubscribeStatus reports whether the caller follows :id.
func (h *UserHandler) SubscribeStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	subscribed, err := h.subs.IsSubscribed(c.Request.Context(), middleware.ViewerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_subscribed": subscribed})
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	card, err := h.subs.Subscribe(c.Request.Context(), middleware.ViewerID(c), id, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.subs.Unsubscribe(c.Request.Context(), middleware.ViewerID(c), id); err != nil {
		respondRemoveError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func recipesLimit(c *gin.Context) int {
	n := utils.StringToInt(c.Query("recipes_limit"))
	if n < 0 {
		return 0
	}
	return n
}
