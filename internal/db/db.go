package db

import (
	"fmt"
	"log"

	"foodgram/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init connects to postgres, migrates the schema and seeds the tag catalog.
func Init(dsn string, seed bool) *gorm.DB {
	var err error
	DB, err = Open(postgres.Open(dsn))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	if seed {
		seedTags(DB)
	}
	return DB
}

// Open wraps gorm.Open with the settings every caller needs. Tests pass a
// sqlite dialector here.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Recipe{}, "Tags", &models.RecipeTag{}); err != nil {
		return fmt.Errorf("setup recipe_tags: %w", err)
	}
	return db.AutoMigrate(
		&models.User{},
		&models.AuthToken{},
		&models.Subscription{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeTag{},
		&models.IngredientAmount{},
		&models.Favorite{},
		&models.ShoppingCartItem{},
	)
}

func seedTags(db *gorm.DB) {
	// 表里已有标签就不再写入
	var count int64
	db.Model(&models.Tag{}).Count(&count)
	if count > 0 {
		log.Println("Tags already seeded, skipping")
		return
	}

	tags := []models.Tag{
		{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
		{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
	}
	for _, tag := range tags {
		if err := db.Create(&tag).Error; err != nil {
			log.Printf("Failed to create tag %s: %v", tag.Slug, err)
		}
	}
	log.Println("Initial tags created successfully")
}
