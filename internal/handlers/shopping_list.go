package handlers

import (
	"net/http"
	"time"

	"foodgram/internal/middleware"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
)

type ShoppingListHandler struct {
	shopping *services.ShoppingListService
}

func NewShoppingListHandler(shopping *services.ShoppingListService) *ShoppingListHandler {
	return &ShoppingListHandler{shopping: shopping}
}

// Download returns the summed cart as a text attachment, or as a printable
// page with ?format=html.
func (h *ShoppingListHandler) Download(c *gin.Context) {
	items, err := h.shopping.BuildShoppingList(c.Request.Context(), middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "html" {
		Render(c, http.StatusOK, "shopping_list.html", gin.H{
			"Title": "Shopping list",
			"Items": items,
			"Date":  time.Now().Format("02.01.2006"),
		})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=shopping_list.txt")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", services.RenderShoppingList(items))
}
