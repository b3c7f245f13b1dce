package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"foodgram/internal/db"
	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// memStore keeps images in memory.
type memStore struct {
	mu    sync.Mutex
	n     int
	files map[string][]byte
}

func newMemStore() *memStore { return &memStore{files: map[string][]byte{}} }

func (m *memStore) Save(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	url := fmt.Sprintf("/media/test/%d%s", m.n, ext)
	m.files[url] = data
	return url, nil
}

func (m *memStore) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, url)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fixture struct {
	db        *gorm.DB
	images    *memStore
	users     *UserService
	subs      *SubscriptionService
	catalog   *CatalogService
	recipes   *RecipeService
	relations *RelationService
	shopping  *ShoppingListService
}

func newFixture(t *testing.T) *fixture {
	conn := newTestDB(t)
	images := newMemStore()
	return &fixture{
		db:        conn,
		images:    images,
		users:     NewUserService(conn, 4),
		subs:      NewSubscriptionService(conn),
		catalog:   NewCatalogService(conn, utils.NewLocalCache(16)),
		recipes:   NewRecipeService(conn, images, 0),
		relations: NewRelationService(conn),
		shopping:  NewShoppingListService(conn),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), UserInput{
		Email:     name + "@example.com",
		Username:  name,
		FirstName: strings.ToUpper(name[:1]) + name[1:],
		LastName:  "Cook",
		Password:  "password-123",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f *fixture) tag(t *testing.T, slug, color string) *models.Tag {
	t.Helper()
	tag, err := f.catalog.CreateTag(context.Background(), strings.ToUpper(slug), color, slug)
	if err != nil {
		t.Fatalf("create tag %s: %v", slug, err)
	}
	return tag
}

func (f *fixture) ingredient(t *testing.T, name, unit string) *models.Ingredient {
	t.Helper()
	item, err := f.catalog.CreateIngredient(context.Background(), name, unit)
	if err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return item
}

func (f *fixture) recipe(t *testing.T, authorID uint, in RecipeInput) *RecipeView {
	t.Helper()
	if in.Image == "" {
		in.Image = pngDataURL(t)
	}
	view, err := f.recipes.CreateRecipe(context.Background(), authorID, in)
	if err != nil {
		t.Fatalf("create recipe %s: %v", in.Name, err)
	}
	return view
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
