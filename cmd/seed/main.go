package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/foodgram-project/backend/config"
	"github.com/foodgram-project/backend/internal/database"
	"github.com/foodgram-project/backend/internal/service"
)

type ingredientRow struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type tagRow struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// Seeds the ingredient catalog (and optionally tags) from JSON fixture
// files. Re-running is safe: existing rows are left untouched.
func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "path to the ingredients fixture")
	tagsPath := flag.String("tags", "", "optional path to a tags fixture")
	flag.Parse()

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

	ingredients := service.NewIngredientService(db)
	created, skipped, err := loadIngredients(ingredients, *ingredientsPath)
	if err != nil {
		log.Fatalf("Failed to load ingredients: %v", err)
	}
	log.Printf("Ingredients: %d created, %d already present", created, skipped)

	if *tagsPath != "" {
		tags := service.NewTagService(db)
		n, err := loadTags(tags, *tagsPath)
		if err != nil {
			log.Fatalf("Failed to load tags: %v", err)
		}
		log.Printf("Tags: %d created", n)
	}
}

func loadIngredients(svc *service.IngredientService, path string) (created, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	var rows []ingredientRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		if row.Name == "" || row.MeasurementUnit == "" {
			continue
		}
		_, wasCreated, err := svc.GetOrCreate(row.Name, row.MeasurementUnit)
		if err != nil {
			return created, skipped, err
		}
		if wasCreated {
			created++
		} else {
			skipped++
		}
	}
	return created, skipped, nil
}

func loadTags(svc *service.TagService, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var rows []tagRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		if _, err := svc.Create(row.Name, row.Color, row.Slug); err != nil {
			// Duplicate slugs from a previous run are not an error.
			if _, ok := err.(*service.ValidationError); ok {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
