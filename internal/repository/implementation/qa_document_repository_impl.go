package implementation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/mapper"
	"github.com/Natthaphatpiw/agn-chat/internal/model"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/specification"
	"github.com/Natthaphatpiw/agn-chat/pkg/database"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type QADocumentRepositoryImpl struct {
	db        *gorm.DB
	indexName string
	mapper    *mapper.QADocumentMapper
}

func NewQADocumentRepository(db *gorm.DB, indexName string) contract.QADocumentRepository {
	return &QADocumentRepositoryImpl{
		db:        db,
		indexName: indexName,
		mapper:    mapper.NewQADocumentMapper(),
	}
}

func (r *QADocumentRepositoryImpl) Create(ctx context.Context, doc *entity.QADocument) error {
	m := r.mapper.ToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.ToEntity(m)
	return nil
}

func (r *QADocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QADocument, error) {
	var m model.QADocument
	query := specification.ApplyAll(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QADocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QADocument, error) {
	var models []*model.QADocument
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.QADocument{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QADocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.QADocument{}).Count(&count).Error
	return count, err
}

func (r *QADocumentRepositoryImpl) UpdateEmbedding(ctx context.Context, threadId int64, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.QADocument{}).
		Where("thread_id = ?", threadId).
		Update("content_vector", pgvector.NewVector(embedding)).Error
}

func (r *QADocumentRepositoryImpl) indexExists(ctx context.Context) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("pg_indexes").
		Where("tablename = ? AND indexname = ?", model.QADocument{}.TableName(), r.indexName).
		Count(&n).Error
	return n > 0, err
}

func (r *QADocumentRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, numCandidates, limit int) ([]*contract.ScoredQADocument, error) {
	if limit <= 0 {
		limit = 5
	}
	if numCandidates < limit {
		numCandidates = limit
	}

	ok, err := r.indexExists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrIndexNotFound, r.indexName)
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		model.QADocument
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", numCandidates)).Error; err != nil {
			return err
		}
		return tx.
			Table(model.QADocument{}.TableName()).
			Select("thread_id, topic, question, answer, date, 1 - (content_vector <=> ?) AS similarity", queryVector).
			Where("content_vector IS NOT NULL").
			Order(gorm.Expr("content_vector <=> ?", queryVector)).
			Limit(limit).
			Scan(&results).Error
	})
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredQADocument, len(results))
	for i := range results {
		scored[i] = &contract.ScoredQADocument{
			Document:   r.mapper.ToEntity(&results[i].QADocument),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}

func (r *QADocumentRepositoryImpl) Ping(ctx context.Context) error {
	return database.Ping(ctx, r.db)
}
