package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
)

const (
	tagsCacheKey = "catalog:tags"
	tagsCacheTTL = 10 * time.Minute
	maxTagLen    = 200
)

// CatalogService serves tags and ingredients. The tag list is small and hot,
// so it sits in the local LRU until a tag changes.
type CatalogService struct {
	db    *gorm.DB
	cache *utils.LocalCache
}

func NewCatalogService(db *gorm.DB, cache *utils.LocalCache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	if cached, ok := s.cache.Get(tagsCacheKey).([]models.Tag); ok {
		return cached, nil
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	s.cache.Set(tagsCacheKey, tags, tagsCacheTTL)
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("tag %d not found", id)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &tag, nil
}

func (s *CatalogService) CreateTag(ctx context.Context, name, color, slug string) (*models.Tag, error) {
	tag := models.Tag{
		Name:  strings.TrimSpace(name),
		Color: strings.ToUpper(strings.TrimSpace(color)),
		Slug:  strings.TrimSpace(slug),
	}
	var v ValidationError
	requiredText(&v, "name", tag.Name, maxTagLen)
	if !utils.ValidColor(tag.Color) {
		v.Add("color", "Enter a color in #RRGGBB format.")
	}
	if len(tag.Slug) > maxTagLen || !utils.ValidSlug(tag.Slug) {
		v.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("tag with this name, color or slug already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	s.cache.Delete(tagsCacheKey)
	return &tag, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case. An empty prefix lists everything.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePrefix(strings.ToLower(prefix)))
	}
	var items []models.Ingredient
	if err := q.Order("name").Order("measurement_unit").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return items, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var item models.Ingredient
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("ingredient %d not found", id)
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return &item, nil
}

func (s *CatalogService) CreateIngredient(ctx context.Context, name, unit string) (*models.Ingredient, error) {
	item := models.Ingredient{Name: strings.TrimSpace(name), MeasurementUnit: strings.TrimSpace(unit)}
	var v ValidationError
	requiredText(&v, "name", item.Name, maxTagLen)
	requiredText(&v, "measurement_unit", item.MeasurementUnit, maxTagLen)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("ingredient %q (%s) already exists", item.Name, item.MeasurementUnit)
		}
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	return &item, nil
}

func requiredText(v *ValidationError, field, value string, max int) {
	switch {
	case value == "":
		v.Add(field, "This field is required.")
	case len([]rune(value)) > max:
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s) + "%"
}
