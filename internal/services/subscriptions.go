package services

import (
	"context"
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
)

// AuthorCard is a followed author with a preview of their recipes.
type AuthorCard struct {
	UserView
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Subscribe makes subscriberID follow authorID. recipesLimit caps the recipe
// preview in the returned card, 0 means all.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, authorID uint, recipesLimit int) (*AuthorCard, error) {
	if subscriberID == authorID {
		return nil, invalidOperation("You cannot subscribe to yourself.")
	}
	conn := s.db.WithContext(ctx)

	var author models.User
	if err := conn.First(&author, authorID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("user %d not found", authorID)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	found, err := exists(conn.Model(&models.Subscription{}).Where("user_id = ? AND author_id = ?", subscriberID, authorID))
	if err != nil {
		return nil, err
	}
	if found {
		return nil, conflict("You are already subscribed to this author.")
	}
	sub := models.Subscription{UserID: subscriberID, AuthorID: authorID}
	if err := conn.Create(&sub).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("You are already subscribed to this author.")
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	cards, err := authorCards(conn, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, authorID uint) error {
	conn := s.db.WithContext(ctx)
	if err := userExists(conn, authorID); err != nil {
		return err
	}
	res := conn.Where("user_id = ? AND author_id = ?", subscriberID, authorID).Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return relationMissing("You are not subscribed to this author.")
	}
	return nil
}

// IsSubscribed reports whether subscriberID follows authorID.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, subscriberID, authorID uint) (bool, error) {
	conn := s.db.WithContext(ctx)
	if err := userExists(conn, authorID); err != nil {
		return false, err
	}
	if subscriberID == 0 {
		return false, nil
	}
	return exists(conn.Model(&models.Subscription{}).Where("user_id = ? AND author_id = ?", subscriberID, authorID))
}

func userExists(conn *gorm.DB, id uint) error {
	found, err := exists(conn.Model(&models.User{}).Where("id = ?", id))
	if err != nil {
		return err
	}
	if !found {
		return notFound("user %d not found", id)
	}
	return nil
}

// ListSubscriptions returns the authors subscriberID follows, oldest
// subscription first.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, subscriberID uint, page Page, recipesLimit int) ([]AuthorCard, int64, error) {
	conn := s.db.WithContext(ctx)

	var total int64
	if err := conn.Model(&models.Subscription{}).Where("user_id = ?", subscriberID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	var subs []models.Subscription
	err := conn.Preload("Author").
		Where("user_id = ?", subscriberID).
		Order("id").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&subs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	authors := make([]models.User, len(subs))
	for i, sub := range subs {
		authors[i] = sub.Author
	}
	cards, err := authorCards(conn, authors, recipesLimit)
	return cards, total, err
}

// authorCards is only called for authors the viewer follows, so
// is_subscribed is always true.
func authorCards(conn *gorm.DB, authors []models.User, recipesLimit int) ([]AuthorCard, error) {
	cards := make([]AuthorCard, len(authors))
	if len(authors) == 0 {
		return cards, nil
	}
	ids := userIDs(authors)

	var recipes []models.Recipe
	if err := conn.Where("author_id IN ?", ids).Order("pub_date DESC, id DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("load author recipes: %w", err)
	}
	byAuthor := make(map[uint][]RecipeSummary)
	counts := make(map[uint]int64)
	for _, r := range recipes {
		counts[r.AuthorID]++
		if recipesLimit > 0 && len(byAuthor[r.AuthorID]) >= recipesLimit {
			continue
		}
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], toSummary(r))
	}

	for i, a := range authors {
		list := byAuthor[a.ID]
		if list == nil {
			list = []RecipeSummary{}
		}
		cards[i] = AuthorCard{
			UserView:     toUserView(a, true),
			Recipes:      list,
			RecipesCount: counts[a.ID],
		}
	}
	return cards, nil
}
