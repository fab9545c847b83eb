package main

import (
	"context"
	"log"

	"github.com/foodgram-project/backend/config"
	"github.com/foodgram-project/backend/internal/api"
	"github.com/foodgram-project/backend/internal/database"
	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/router"
	"github.com/foodgram-project/backend/internal/server"
	"github.com/foodgram-project/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	s3Config, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to configure S3: %v", err)
	}

	imageService := service.NewImageService(s3Config, cfg.MediaDir, cfg.MediaURL)
	authService := service.NewAuthService(db, redisClient, cfg.JWTSecret)
	userService := service.NewUserService(db)
	tagService := service.NewTagService(db)
	ingredientService := service.NewIngredientService(db)
	recipeService := service.NewRecipeService(db, imageService)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRecipeCreationRateLimiter(redisClient)
	}

	authHandler := api.NewAuthHandler(authService)
	userHandler := api.NewUserHandler(userService, recipeService, authService, cfg.PageSize)
	tagHandler := api.NewTagHandler(tagService, authService)
	ingredientHandler := api.NewIngredientHandler(ingredientService, authService)
	recipeHandler := api.NewRecipeHandler(recipeService, userService, authService, rateLimiter, cfg.PageSize)

	mediaDir := cfg.MediaDir
	if s3Config != nil {
		mediaDir = ""
	}
	engine := router.SetupRouter(authHandler, userHandler, tagHandler, ingredientHandler, recipeHandler, mediaDir, cfg.MediaURL)

	srv := server.NewServer(engine)
	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := srv.Start(cfg.ServerPort); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
