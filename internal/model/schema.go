package model

import (
	"fmt"
	"log"
	"regexp"

	"gorm.io/gorm"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Migrate provisions the vector extension, the qa_documents table sized to
// dimension, and an HNSW cosine index named indexName. Safe to rerun.
func Migrate(db *gorm.DB, dimension int, indexName string) error {
	if !identifierPattern.MatchString(indexName) {
		return fmt.Errorf("invalid index name %q", indexName)
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	if err := db.AutoMigrate(&QADocument{}); err != nil {
		return fmt.Errorf("failed to migrate qa_documents: %w", err)
	}

	want := fmt.Sprintf("vector(%d)", dimension)
	var current string
	err := db.Raw(`SELECT format_type(atttypid, atttypmod) FROM pg_attribute
		WHERE attrelid = 'qa_documents'::regclass AND attname = 'content_vector'`).Scan(&current).Error
	if err != nil {
		return fmt.Errorf("failed to inspect content_vector: %w", err)
	}
	if current != want {
		log.Printf("Resizing content_vector from %s to %s", current, want)
		if err := db.Exec(fmt.Sprintf(`DROP INDEX IF EXISTS %s`, indexName)).Error; err != nil {
			return fmt.Errorf("failed to drop index %s: %w", indexName, err)
		}
		alter := fmt.Sprintf(`ALTER TABLE qa_documents ALTER COLUMN content_vector TYPE %s`, want)
		if err := db.Exec(alter).Error; err != nil {
			return fmt.Errorf("failed to resize content_vector (clear stored vectors first): %w", err)
		}
	}

	createIndex := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON qa_documents USING hnsw (content_vector vector_cosine_ops)`,
		indexName,
	)
	if err := db.Exec(createIndex).Error; err != nil {
		return fmt.Errorf("failed to create index %s: %w", indexName, err)
	}
	return nil
}
