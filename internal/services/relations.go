package services

import (
	"context"
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
)

// relationKind describes one per-user recipe list (favorites or cart).
type relationKind struct {
	model       func(userID, recipeID uint) any
	existsMsg   string
	notFoundMsg string
}

var (
	favoriteRelation = relationKind{
		model: func(userID, recipeID uint) any {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		existsMsg:   "Recipe is already in favorites.",
		notFoundMsg: "Recipe is not in favorites.",
	}
	cartRelation = relationKind{
		model: func(userID, recipeID uint) any {
			return &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
		},
		existsMsg:   "Recipe is already in the shopping cart.",
		notFoundMsg: "Recipe is not in the shopping cart.",
	}
)

type RelationService struct {
	db *gorm.DB
}

func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{db: db}
}

func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	return s.add(ctx, favoriteRelation, userID, recipeID)
}

func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favoriteRelation, userID, recipeID)
}

func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	return s.add(ctx, cartRelation, userID, recipeID)
}

func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, cartRelation, userID, recipeID)
}

func (s *RelationService) add(ctx context.Context, kind relationKind, userID, recipeID uint) (*RecipeSummary, error) {
	conn := s.db.WithContext(ctx)
	recipe, err := findRecipe(conn, recipeID)
	if err != nil {
		return nil, err
	}

	row := kind.model(userID, recipeID)
	found, err := exists(conn.Model(row).Where("user_id = ? AND recipe_id = ?", userID, recipeID))
	if err != nil {
		return nil, err
	}
	if found {
		return nil, conflict("%s", kind.existsMsg)
	}
	// two concurrent adds both pass the check above, the unique index
	// rejects the second one
	if err := conn.Omit("User", "Recipe").Create(row).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("%s", kind.existsMsg)
		}
		return nil, fmt.Errorf("add relation: %w", err)
	}
	summary := toSummary(*recipe)
	return &summary, nil
}

func (s *RelationService) remove(ctx context.Context, kind relationKind, userID, recipeID uint) error {
	conn := s.db.WithContext(ctx)
	if _, err := findRecipe(conn, recipeID); err != nil {
		return err
	}
	res := conn.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(kind.model(0, 0))
	if res.Error != nil {
		return fmt.Errorf("remove relation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return relationMissing("%s", kind.notFoundMsg)
	}
	return nil
}

func findRecipe(conn *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := conn.First(&recipe, id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("recipe %d not found", id)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}
