package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"foodgram/internal/models"
)

func TestSubscribeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anna := f.user(t, "anna")
	boris := f.user(t, "boris")

	if _, err := f.subs.Subscribe(ctx, anna.ID, anna.ID, 0); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for self subscribe, got %v", err)
	}
	if _, err := f.subs.Subscribe(ctx, anna.ID, 999, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing author, got %v", err)
	}

	card, err := f.subs.Subscribe(ctx, anna.ID, boris.ID, 0)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if card.ID != boris.ID || !card.IsSubscribed || card.RecipesCount != 0 || card.Recipes == nil {
		t.Errorf("Unexpected card %+v", card)
	}
	if _, err := f.subs.Subscribe(ctx, anna.ID, boris.ID, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict on repeat, got %v", err)
	}

	ok, err := f.subs.IsSubscribed(ctx, anna.ID, boris.ID)
	if err != nil || !ok {
		t.Errorf("Expected subscribed, got %v %v", ok, err)
	}

	if err := f.subs.Unsubscribe(ctx, anna.ID, boris.ID); err != nil {
		t.Errorf("unsubscribe: %v", err)
	}
	if err := f.subs.Unsubscribe(ctx, anna.ID, boris.ID); !errors.Is(err, ErrRelationMissing) {
		t.Errorf("Expected ErrRelationMissing, got %v", err)
	}
	if err := f.subs.Unsubscribe(ctx, anna.ID, 999); errors.Is(err, ErrRelationMissing) || !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected plain ErrNotFound for missing author, got %v", err)
	}
}

func TestListSubscriptionsRecipesLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	chef := f.user(t, "chef")
	baker := f.user(t, "baker")
	tag := f.tag(t, "lunch", "#49B64E")
	salt := f.ingredient(t, "salt", "g")

	for i := 0; i < 3; i++ {
		f.recipe(t, chef.ID, RecipeInput{
			Name: fmt.Sprintf("Dish %d", i), Text: "x", CookingTime: 1 + i,
			Tags:        []uint{tag.ID},
			Ingredients: []IngredientInput{{ID: salt.ID, Amount: 1}},
		})
	}
	for _, author := range []uint{chef.ID, baker.ID} {
		if _, err := f.subs.Subscribe(ctx, reader.ID, author, 0); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	cards, total, err := f.subs.ListSubscriptions(ctx, reader.ID, NewPage(1, 10, 6), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(cards) != 2 {
		t.Fatalf("Expected 2 followed authors, got total=%d len=%d", total, len(cards))
	}
	if cards[0].ID != chef.ID {
		t.Errorf("Expected oldest subscription first, got %d", cards[0].ID)
	}
	if len(cards[0].Recipes) != 2 || cards[0].RecipesCount != 3 {
		t.Errorf("Expected 2 of 3 recipes, got %d of %d", len(cards[0].Recipes), cards[0].RecipesCount)
	}
	if len(cards[1].Recipes) != 0 || cards[1].RecipesCount != 0 {
		t.Errorf("Expected baker to have no recipes, got %+v", cards[1])
	}

	cards, _, _ = f.subs.ListSubscriptions(ctx, reader.ID, NewPage(1, 10, 6), 0)
	if len(cards[0].Recipes) != 3 {
		t.Errorf("Expected no limit with 0, got %d recipes", len(cards[0].Recipes))
	}
	cards, total, _ = f.subs.ListSubscriptions(ctx, chef.ID, NewPage(1, 10, 6), 0)
	if total != 0 || len(cards) != 0 {
		t.Errorf("Expected chef to follow nobody, got %d", total)
	}
}

func TestSubscriptionLookupFailureIsNotReportedAsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anna := f.user(t, "anna")
	boris := f.user(t, "boris")

	if err := f.db.Migrator().DropTable(&models.Subscription{}); err != nil {
		t.Fatalf("drop subscriptions: %v", err)
	}
	ok, err := f.subs.IsSubscribed(ctx, anna.ID, boris.ID)
	if err == nil || ok {
		t.Errorf("Expected an error from a failed lookup, got %v %v", ok, err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("Failed lookup must not look like a missing row: %v", err)
	}

	if err := f.db.Migrator().DropTable(&models.User{}); err != nil {
		t.Fatalf("drop users: %v", err)
	}
	err = f.subs.Unsubscribe(ctx, anna.ID, boris.ID)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected a plain error when users cannot be read, got %v", err)
	}
}
