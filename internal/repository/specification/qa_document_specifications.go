package specification

import "gorm.io/gorm"

// HasQuestion keeps rows whose question is present and non-empty.
type HasQuestion struct{}

func (s HasQuestion) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("question IS NOT NULL AND question <> ''")
}

// HasEmbedding keeps rows that carry a content vector.
type HasEmbedding struct{}

func (s HasEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_vector IS NOT NULL")
}

// MissingEmbedding keeps rows still waiting for a content vector.
type MissingEmbedding struct{}

func (s MissingEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_vector IS NULL")
}

// Columns restricts the selected columns.
type Columns struct {
	Names []string
}

func (s Columns) Apply(db *gorm.DB) *gorm.DB {
	return db.Select(s.Names)
}

// ContextColumns is every column except the vector.
var ContextColumns = Columns{Names: []string{"thread_id", "topic", "question", "answer", "date"}}
