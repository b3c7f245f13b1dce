package models

import (
	"time"
)

type Recipe struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	AuthorID    uint               `gorm:"not null;index" json:"author_id"`
	Author      User               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Name        string             `gorm:"size:200;not null" json:"name"`
	Image       string             `gorm:"not null" json:"image"` // stored image reference
	Text        string             `gorm:"type:text;not null" json:"text"`
	CookingTime int                `gorm:"not null" json:"cooking_time"` // minutes
	PubDate     time.Time          `gorm:"autoCreateTime;index" json:"pub_date"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;" json:"tags"`
	Ingredients []IngredientAmount `gorm:"foreignKey:RecipeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredients"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RecipeTag is the join table behind Recipe.Tags.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey;index"`
}

// IngredientAmount 食谱中的一行配料
type IngredientAmount struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipeID     uint       `gorm:"not null;index;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredient"`
	Amount       int        `gorm:"not null" json:"amount"`
}
