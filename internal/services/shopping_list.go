package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"foodgram/internal/models"

	"gorm.io/gorm"
)

// ShoppingListItem is one summed ingredient of the cart.
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int64  `json:"total"`
}

type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// BuildShoppingList sums the ingredient amounts of every recipe in the cart,
// grouped by (name, unit) and ordered by name then unit.
func (s *ShoppingListService) BuildShoppingList(ctx context.Context, userID uint) ([]ShoppingListItem, error) {
	conn := s.db.WithContext(ctx)

	var inCart int64
	if err := conn.Model(&models.ShoppingCartItem{}).Where("user_id = ?", userID).Count(&inCart).Error; err != nil {
		return nil, fmt.Errorf("count cart: %w", err)
	}
	if inCart == 0 {
		return nil, &Error{Kind: ErrEmptyCart, Msg: "Your shopping cart is empty."}
	}

	var items []ShoppingListItem
	err := conn.Table("shopping_cart_items AS sc").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, CAST(SUM(ia.amount) AS BIGINT) AS total").
		Joins("JOIN ingredient_amounts AS ia ON ia.recipe_id = sc.recipe_id").
		Joins("JOIN ingredients AS i ON i.id = ia.ingredient_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return items, nil
}

// RenderShoppingList writes one "name — total unit" line per item.
func RenderShoppingList(items []ShoppingListItem) []byte {
	var buf bytes.Buffer
	for _, it := range items {
		buf.WriteString(it.Name)
		buf.WriteString(" — ")
		buf.WriteString(strconv.FormatInt(it.Total, 10))
		buf.WriteByte(' ')
		buf.WriteString(it.MeasurementUnit)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
