package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRecipeNameLen = 200

type IngredientInput struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is the write payload. Image is a base64 data URL; on update an
// empty Image keeps the stored one.
type RecipeInput struct {
	Name        string            `json:"name"`
	Text        string            `json:"text"`
	CookingTime int               `json:"cooking_time"`
	Image       string            `json:"image"`
	Tags        []uint            `json:"tags"`
	Ingredients []IngredientInput `json:"ingredients"`
}

type IngredientLineView struct {
	ID              uint   `json:"id"` // ingredient id
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               uint                 `json:"id"`
	Tags             []models.Tag         `json:"tags"`
	Author           UserView             `json:"author"`
	Ingredients      []IngredientLineView `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	TextHTML         string               `json:"text_html"`
	CookingTime      int                  `json:"cooking_time"`
	PubDate          time.Time            `json:"pub_date"`
}

// RecipeSummary is the short card used in subscriptions and relation replies.
type RecipeSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// RecipeFilter narrows ListRecipes. The two flags only apply to a logged-in
// viewer.
type RecipeFilter struct {
	TagSlugs         []string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService struct {
	db      *gorm.DB
	images  ImageStore
	maxEdge int
}

func NewRecipeService(db *gorm.DB, images ImageStore, maxEdge int) *RecipeService {
	return &RecipeService{db: db, images: images, maxEdge: maxEdge}
}

func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, in RecipeInput) (*RecipeView, error) {
	conn := s.db.WithContext(ctx)
	if err := validateRecipe(in, true); err != nil {
		return nil, err
	}
	if err := checkReferences(conn, in); err != nil {
		return nil, err
	}
	imageURL, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Image:       imageURL,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return replaceComposition(tx, recipe.ID, in)
	})
	if err != nil {
		s.dropImage(ctx, imageURL)
		return nil, err
	}
	return s.GetRecipe(ctx, recipe.ID, authorID)
}

// UpdateRecipe replaces the scalar fields, the tag set and the ingredient
// lines of a recipe in one transaction. Only the author may call it.
func (s *RecipeService) UpdateRecipe(ctx context.Context, callerID, recipeID uint, in RecipeInput) (*RecipeView, error) {
	conn := s.db.WithContext(ctx)
	recipe, err := s.ownedRecipe(conn, callerID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validateRecipe(in, false); err != nil {
		return nil, err
	}
	if err := checkReferences(conn, in); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"name":         strings.TrimSpace(in.Name),
		"text":         in.Text,
		"cooking_time": in.CookingTime,
	}
	var newImage string
	if strings.TrimSpace(in.Image) != "" {
		if newImage, err = s.storeImage(ctx, in.Image); err != nil {
			return nil, err
		}
		fields["image"] = newImage
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(fields).Error; err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		return replaceComposition(tx, recipe.ID, in)
	})
	if err != nil {
		s.dropImage(ctx, newImage)
		return nil, err
	}
	if newImage != "" {
		s.dropImage(ctx, recipe.Image)
	}
	return s.GetRecipe(ctx, recipe.ID, callerID)
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, callerID, recipeID uint) error {
	conn := s.db.WithContext(ctx)
	recipe, err := s.ownedRecipe(conn, callerID, recipeID)
	if err != nil {
		return err
	}
	err = conn.Transaction(func(tx *gorm.DB) error {
		for _, dep := range []any{&models.IngredientAmount{}, &models.RecipeTag{}, &models.Favorite{}, &models.ShoppingCartItem{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dep).Error; err != nil {
				return fmt.Errorf("delete recipe dependents: %w", err)
			}
		}
		return tx.Delete(&models.Recipe{}, recipe.ID).Error
	})
	if err != nil {
		return err
	}
	s.dropImage(ctx, recipe.Image)
	return nil
}

// GetRecipe reads a recipe as seen by viewerID (0 = anonymous).
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID, viewerID uint) (*RecipeView, error) {
	conn := s.db.WithContext(ctx)
	var recipe models.Recipe
	if err := withComposition(conn).First(&recipe, recipeID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("recipe %d not found", recipeID)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	views, err := recipeViews(conn, []models.Recipe{recipe}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns one page of recipes, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, f RecipeFilter, viewerID uint, page Page) ([]RecipeView, int64, error) {
	conn := s.db.WithContext(ctx)
	filtered := func() *gorm.DB {
		q := conn.Model(&models.Recipe{})
		if len(f.TagSlugs) > 0 {
			q = q.Where("recipes.id IN (?)", conn.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.TagSlugs))
		}
		if f.AuthorID != 0 {
			q = q.Where("recipes.author_id = ?", f.AuthorID)
		}
		if viewerID != 0 && f.IsFavorited {
			q = q.Where("recipes.id IN (?)", conn.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
		}
		if viewerID != 0 && f.IsInShoppingCart {
			q = q.Where("recipes.id IN (?)", conn.Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", viewerID))
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}
	var recipes []models.Recipe
	err := withComposition(filtered()).
		Order("recipes.pub_date DESC").Order("recipes.id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	views, err := recipeViews(conn, recipes, viewerID)
	return views, total, err
}

func (s *RecipeService) ownedRecipe(conn *gorm.DB, callerID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := conn.First(&recipe, recipeID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("recipe %d not found", recipeID)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	if recipe.AuthorID != callerID {
		return nil, forbidden("Only the author can change this recipe.")
	}
	return &recipe, nil
}

func (s *RecipeService) storeImage(ctx context.Context, payload string) (string, error) {
	img, err := DecodeImagePayload(payload, s.maxEdge)
	if err != nil {
		v := &ValidationError{}
		v.Add("image", err.Error())
		return "", v
	}
	url, err := s.images.Save(ctx, img.Data, img.Ext, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

func (s *RecipeService) dropImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		log.Printf("Failed to delete image %s: %v", url, err)
	}
}

func validateRecipe(in RecipeInput, requireImage bool) error {
	var v ValidationError
	requiredText(&v, "name", strings.TrimSpace(in.Name), maxRecipeNameLen)
	if strings.TrimSpace(in.Text) == "" {
		v.Add("text", "This field is required.")
	}
	if in.CookingTime < 1 {
		v.Add("cooking_time", "Cooking time must be at least 1 minute.")
	}
	if requireImage && strings.TrimSpace(in.Image) == "" {
		v.Add("image", "This field is required.")
	}

	if len(in.Tags) == 0 {
		v.Add("tags", "At least one tag is required.")
	}
	seenTags := make(map[uint]bool, len(in.Tags))
	for _, id := range in.Tags {
		if seenTags[id] {
			v.Add("tags", "Tags must not repeat.")
			break
		}
		seenTags[id] = true
	}

	if len(in.Ingredients) == 0 {
		v.Add("ingredients", "At least one ingredient is required.")
	}
	seenIngredients := make(map[uint]bool, len(in.Ingredients))
	dup, badAmount, missingID := false, false, false
	for _, line := range in.Ingredients {
		if line.ID == 0 {
			missingID = true
			continue
		}
		if seenIngredients[line.ID] {
			dup = true
		}
		seenIngredients[line.ID] = true
		if line.Amount < 1 {
			badAmount = true
		}
	}
	if missingID {
		v.Add("ingredients", "Each ingredient needs an id.")
	}
	if dup {
		v.Add("ingredients", "Ingredients must not repeat.")
	}
	if badAmount {
		v.Add("ingredients", "Amount must be at least 1.")
	}
	return v.Err()
}

// checkReferences makes sure every tag and ingredient id exists.
func checkReferences(conn *gorm.DB, in RecipeInput) error {
	var tagIDs []uint
	if err := conn.Model(&models.Tag{}).Where("id IN ?", in.Tags).Pluck("id", &tagIDs).Error; err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if missing := firstMissing(in.Tags, tagIDs); missing != 0 {
		return notFound("tag %d not found", missing)
	}

	ids := make([]uint, len(in.Ingredients))
	for i, line := range in.Ingredients {
		ids[i] = line.ID
	}
	var found []uint
	if err := conn.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("check ingredients: %w", err)
	}
	if missing := firstMissing(ids, found); missing != 0 {
		return notFound("ingredient %d not found", missing)
	}
	return nil
}

func firstMissing(want, have []uint) uint {
	set := make(map[uint]bool, len(have))
	for _, id := range have {
		set[id] = true
	}
	for _, id := range want {
		if !set[id] {
			return id
		}
	}
	return 0
}

// replaceComposition swaps the tag set and ingredient lines of a recipe.
// Must run inside a transaction.
func replaceComposition(tx *gorm.DB, recipeID uint, in RecipeInput) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	links := make([]models.RecipeTag, len(in.Tags))
	for i, id := range in.Tags {
		links[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("set tags: %w", err)
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientAmount{}).Error; err != nil {
		return fmt.Errorf("clear ingredients: %w", err)
	}
	lines := make([]models.IngredientAmount, len(in.Ingredients))
	for i, line := range in.Ingredients {
		lines[i] = models.IngredientAmount{RecipeID: recipeID, IngredientID: line.ID, Amount: line.Amount}
	}
	if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
		return fmt.Errorf("set ingredients: %w", err)
	}
	return nil
}

func withComposition(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_amounts.id") }).
		Preload("Ingredients.Ingredient")
}

// recipeViews converts persisted recipes to the read shape. Viewer flags are
// looked up in bulk for the whole page.
func recipeViews(conn *gorm.DB, recipes []models.Recipe, viewerID uint) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}
	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := viewerRecipeSet(conn, &models.Favorite{}, viewerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := viewerRecipeSet(conn, &models.ShoppingCartItem{}, viewerID, ids)
	if err != nil {
		return nil, err
	}
	followed, err := subscribedAuthors(conn, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for i, r := range recipes {
		lines := make([]IngredientLineView, len(r.Ingredients))
		for j, line := range r.Ingredients {
			lines[j] = IngredientLineView{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			}
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		views[i] = RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           toUserView(r.Author, followed[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			TextHTML:         utils.RenderMarkdown(r.Text),
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		}
	}
	return views, nil
}

func viewerRecipeSet(conn *gorm.DB, model any, viewerID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if viewerID == 0 {
		return out, nil
	}
	var ids []uint
	if err := conn.Model(model).Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load viewer flags: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func toSummary(r models.Recipe) RecipeSummary {
	return RecipeSummary{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}
