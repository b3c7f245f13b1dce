package handlers

import (
	"context"
	"net/http"

	"foodgram/internal/middleware"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
)

// BookmarkHandler handles both per-user recipe lists: favorites and the
// shopping cart.
type BookmarkHandler struct {
	relations *services.RelationService
}

func NewBookmarkHandler(relations *services.RelationService) *BookmarkHandler {
	return &BookmarkHandler{relations: relations}
}

type addFunc func(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
type removeFunc func(ctx context.Context, userID, recipeID uint) error

func (h *BookmarkHandler) AddFavorite(c *gin.Context)    { add(c, h.relations.AddFavorite) }
func (h *BookmarkHandler) RemoveFavorite(c *gin.Context) { remove(c, h.relations.RemoveFavorite) }
func (h *BookmarkHandler) AddToCart(c *gin.Context)      { add(c, h.relations.AddToCart) }
func (h *BookmarkHandler) RemoveFromCart(c *gin.Context) { remove(c, h.relations.RemoveFromCart) }

func add(c *gin.Context, fn addFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := fn(c.Request.Context(), middleware.ViewerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func remove(c *gin.Context, fn removeFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), middleware.ViewerID(c), id); err != nil {
		respondRemoveError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
