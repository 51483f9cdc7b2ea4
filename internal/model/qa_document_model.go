package model

import (
	"github.com/pgvector/pgvector-go"
)

// QADocument is one question/answer thread. ContentVector is NULL for rows
// that were never embedded.
type QADocument struct {
	ThreadId      int64            `gorm:"primaryKey;autoIncrement:false"`
	Topic         string           `gorm:"type:text"`
	Question      string           `gorm:"type:text"`
	Answer        string           `gorm:"type:text"`
	Date          string           `gorm:"type:text"`
	ContentVector *pgvector.Vector `gorm:"type:vector(1024)"` // bge-m3 dimension
}

func (QADocument) TableName() string {
	return "qa_documents"
}
