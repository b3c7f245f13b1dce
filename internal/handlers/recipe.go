package handlers

import (
	"net/http"

	"foodgram/internal/middleware"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-gonic/gin"
)

type RecipeHandler struct {
	recipes  *services.RecipeService
	pageSize int
}

func NewRecipeHandler(recipes *services.RecipeService, pageSize int) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, pageSize: pageSize}
}

// List 食谱列表，支持 tags / author / is_favorited / is_in_shopping_cart 过滤
func (h *RecipeHandler) List(c *gin.Context) {
	filter := services.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      utils.IsTruthy(c.Query("is_favorited")),
		IsInShoppingCart: utils.IsTruthy(c.Query("is_in_shopping_cart")),
	}
	if author := c.Query("author"); author != "" {
		id, ok := utils.ParseID(author)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"author": []string{"Enter a valid user id."}})
			return
		}
		filter.AuthorID = id
	}

	page := pageFromQuery(c, h.pageSize)
	views, total, err := h.recipes.ListRecipes(c.Request.Context(), filter, middleware.ViewerID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(c, page, total, views))
}

func (h *RecipeHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.recipes.GetRecipe(c.Request.Context(), id, middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.ViewerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.recipes.UpdateRecipe(c.Request.Context(), middleware.ViewerID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), middleware.ViewerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
