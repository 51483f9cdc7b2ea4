package contract

import (
	"context"
	"errors"

	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/specification"
)

// ErrIndexNotFound means the similarity index is not provisioned.
var ErrIndexNotFound = errors.New("vector index not found")

// ScoredQADocument wraps QADocument with its similarity score
type ScoredQADocument struct {
	Document   *entity.QADocument
	Similarity float64 // cosine similarity, 1.0 = identical
}

type QADocumentRepository interface {
	Create(ctx context.Context, doc *entity.QADocument) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QADocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QADocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateEmbedding(ctx context.Context, threadId int64, embedding []float32) error
	// SearchSimilar ranks embedded documents by cosine similarity, best first.
	// numCandidates sizes the approximate search beam.
	SearchSimilar(ctx context.Context, embedding []float32, numCandidates, limit int) ([]*ScoredQADocument, error)
	Ping(ctx context.Context) error
}
