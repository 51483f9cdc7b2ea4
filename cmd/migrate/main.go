package main

import (
	"log"

	"github.com/Natthaphatpiw/agn-chat/internal/config"
	"github.com/Natthaphatpiw/agn-chat/internal/model"
	"github.com/Natthaphatpiw/agn-chat/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Extension, table and vector index
	log.Printf("Migrating qa_documents (dimension %d, index %s)...", cfg.Database.EmbeddingDimension, cfg.Database.VectorIndexName)
	if err := model.Migrate(db, cfg.Database.EmbeddingDimension, cfg.Database.VectorIndexName); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	log.Println("Migration completed")
}
