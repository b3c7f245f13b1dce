package services

import (
	"context"
	"errors"
	"testing"
)

func TestBuildShoppingListSumsByNameAndUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cook := f.user(t, "anna")
	tag := f.tag(t, "lunch", "#49B64E")
	salt := f.ingredient(t, "salt", "g")
	saltSpoon := f.ingredient(t, "salt", "tsp")
	apple := f.ingredient(t, "apple", "pcs")

	a := f.recipe(t, cook.ID, RecipeInput{
		Name: "A", Text: "a", CookingTime: 1, Tags: []uint{tag.ID},
		Ingredients: []IngredientInput{{ID: salt.ID, Amount: 5}, {ID: apple.ID, Amount: 2}},
	})
	b := f.recipe(t, cook.ID, RecipeInput{
		Name: "B", Text: "b", CookingTime: 1, Tags: []uint{tag.ID},
		Ingredients: []IngredientInput{{ID: salt.ID, Amount: 3}, {ID: saltSpoon.ID, Amount: 1}},
	})
	for _, id := range []uint{a.ID, b.ID} {
		if _, err := f.relations.AddToCart(ctx, cook.ID, id); err != nil {
			t.Fatalf("cart: %v", err)
		}
	}

	items, err := f.shopping.BuildShoppingList(ctx, cook.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []ShoppingListItem{
		{Name: "apple", MeasurementUnit: "pcs", Total: 2},
		{Name: "salt", MeasurementUnit: "g", Total: 8},
		{Name: "salt", MeasurementUnit: "tsp", Total: 1},
	}
	if len(items) != len(want) {
		t.Fatalf("Expected %d items, got %+v", len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: expected %+v, got %+v", i, want[i], items[i])
		}
	}

	text := string(RenderShoppingList(items))
	expected := "apple — 2 pcs\nsalt — 8 g\nsalt — 1 tsp\n"
	if text != expected {
		t.Errorf("Expected %q, got %q", expected, text)
	}
}

func TestBuildShoppingListOnlySalt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cook := f.user(t, "anna")
	tag := f.tag(t, "lunch", "#49B64E")
	salt := f.ingredient(t, "salt", "g")
	for _, amount := range []int{5, 3} {
		r := f.recipe(t, cook.ID, RecipeInput{
			Name: "R", Text: "r", CookingTime: 1, Tags: []uint{tag.ID},
			Ingredients: []IngredientInput{{ID: salt.ID, Amount: amount}},
		})
		if _, err := f.relations.AddToCart(ctx, cook.ID, r.ID); err != nil {
			t.Fatalf("cart: %v", err)
		}
	}

	items, err := f.shopping.BuildShoppingList(ctx, cook.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(items) != 1 || items[0] != (ShoppingListItem{Name: "salt", MeasurementUnit: "g", Total: 8}) {
		t.Errorf("Expected [salt 8 g], got %+v", items)
	}
}

func TestBuildShoppingListEmptyCart(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "anna")
	if _, err := f.shopping.BuildShoppingList(context.Background(), u.ID); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("Expected ErrEmptyCart, got %v", err)
	}
}
