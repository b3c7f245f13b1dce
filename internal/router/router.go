package router

import (
	"net/http"

	"foodgram/internal/config"
	"foodgram/internal/handlers"
	"foodgram/internal/middleware"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services bundles everything the handlers need.
type Services struct {
	Users     *services.UserService
	Subs      *services.SubscriptionService
	Tokens    *services.TokenService
	Catalog   *services.CatalogService
	Recipes   *services.RecipeService
	Relations *services.RelationService
	Shopping  *services.ShoppingListService
}

func NewServices(conn *gorm.DB, cfg config.Config, images services.ImageStore, cache *utils.LocalCache) *Services {
	return &Services{
		Users:     services.NewUserService(conn, cfg.BcryptCost),
		Subs:      services.NewSubscriptionService(conn),
		Tokens:    services.NewTokenService(conn, cfg.JWTSecret, cfg.TokenTTL),
		Catalog:   services.NewCatalogService(conn, cache),
		Recipes:   services.NewRecipeService(conn, images, cfg.Images.MaxEdge),
		Relations: services.NewRelationService(conn),
		Shopping:  services.NewShoppingListService(conn),
	}
}

// NewEngine builds the gin engine: sessions, templates, media and the API.
func NewEngine(cfg config.Config, svc *Services, rdb *redis.Client) *gin.Engine {
	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("foodgram_session", store))

	r.HTMLRender = LoadTemplates(cfg.TemplatesDir)

	if cfg.Images.Storage != "s3" {
		r.Static(cfg.Images.MediaURL, cfg.Images.MediaRoot)
	}

	RegisterRoutes(r, cfg, svc, rdb)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg config.Config, svc *Services, rdb *redis.Client) {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Tokens)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Subs, svc.Tokens, cfg.PageSize)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	recipeHandler := handlers.NewRecipeHandler(svc.Recipes, cfg.PageSize)
	bookmarkHandler := handlers.NewBookmarkHandler(svc.Relations)
	shoppingHandler := handlers.NewShoppingListHandler(svc.Shopping)

	r.GET("/healthz", handlers.Health)

	api := r.Group("/api")
	api.Use(middleware.LoadUser(svc.Tokens))
	api.Use(middleware.RateLimit(cfg.RateLimit, rdb))

	// 公共路由 (Public Routes)
	api.POST("/auth/token/login", authHandler.Login)
	api.GET("/users", userHandler.List)
	api.POST("/users", userHandler.Register)
	api.GET("/users/:id", userHandler.Profile)
	api.GET("/tags", catalogHandler.ListTags)
	api.GET("/tags/:id", catalogHandler.GetTag)
	api.GET("/ingredients", catalogHandler.ListIngredients)
	api.GET("/ingredients/:id", catalogHandler.GetIngredient)
	api.GET("/recipes", recipeHandler.List)
	api.GET("/recipes/:id", recipeHandler.Detail)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/auth/token/logout", authHandler.Logout)

		authorized.GET("/users/me", userHandler.Me)
		authorized.POST("/users/set_password", userHandler.SetPassword)
		authorized.GET("/users/subscriptions", userHandler.Subscriptions)
		authorized.GET("/users/:id/subscribe", userHandler.SubscribeStatus)
		authorized.POST("/users/:id/subscribe", userHandler.Subscribe)
		authorized.DELETE("/users/:id/subscribe", userHandler.Unsubscribe)

		authorized.POST("/recipes", recipeHandler.Create)
		authorized.PATCH("/recipes/:id", recipeHandler.Update)
		authorized.DELETE("/recipes/:id", recipeHandler.Delete)
		authorized.GET("/recipes/download_shopping_cart", shoppingHandler.Download)
		authorized.POST("/recipes/:id/favorite", bookmarkHandler.AddFavorite)
		authorized.DELETE("/recipes/:id/favorite", bookmarkHandler.RemoveFavorite)
		authorized.POST("/recipes/:id/shopping_cart", bookmarkHandler.AddToCart)
		authorized.DELETE("/recipes/:id/shopping_cart", bookmarkHandler.RemoveFromCart)
	}
}
