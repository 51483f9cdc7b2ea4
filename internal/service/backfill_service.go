package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Natthaphatpiw/agn-chat/internal/dto"
	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/specification"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/unitofwork"
	"github.com/Natthaphatpiw/agn-chat/pkg/embedding"
)

const DefaultBackfillBatchSize = 32

type IBackfillService interface {
	Run(ctx context.Context, batchSize int) (*dto.BackfillResult, error)
}

type backfillService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	dimension         int
	logger            logger.ILogger
}

func NewBackfillService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	dimension int,
	log logger.ILogger,
) IBackfillService {
	return &backfillService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		dimension:         dimension,
		logger:            log,
	}
}

// CombinedText is the text a document is embedded from.
func CombinedText(doc *entity.QADocument) string {
	var parts []string
	if topic := strings.TrimSpace(doc.Topic); topic != "" {
		parts = append(parts, "หัวข้อ: "+topic)
	}
	if question := strings.TrimSpace(doc.Question); question != "" {
		parts = append(parts, "คำถาม: "+question)
	}
	return strings.Join(parts, "\n")
}

// Run embeds every document without a content vector. A failed batch is
// counted and skipped; only a failure to list pending documents is returned.
func (s *backfillService) Run(ctx context.Context, batchSize int) (*dto.BackfillResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBackfillBatchSize
	}

	pending, err := s.uowFactory.QADocumentRepository().FindAll(ctx,
		specification.MissingEmbedding{},
		specification.OrderBy{Field: "thread_id"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents without embeddings: %w", err)
	}

	result := &dto.BackfillResult{Pending: len(pending)}
	s.logger.Info("BACKFILL", "Documents without embeddings", map[string]interface{}{"count": len(pending)})

	var batch []*entity.QADocument
	for _, doc := range pending {
		if CombinedText(doc) == "" {
			result.Skipped++
			continue
		}
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			s.flush(ctx, batch, result)
			batch = nil
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}
	if len(batch) > 0 {
		s.flush(ctx, batch, result)
	}

	s.logger.Info("BACKFILL", "Embedding completed", map[string]interface{}{
		"pending": result.Pending,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
	return result, nil
}

func (s *backfillService) flush(ctx context.Context, batch []*entity.QADocument, result *dto.BackfillResult) {
	if err := s.processBatch(ctx, batch); err != nil {
		s.logger.Error("BACKFILL", "Failed to process batch", map[string]interface{}{
			"first_thread_id": batch[0].ThreadId,
			"size":            len(batch),
			"error":           err.Error(),
		})
		result.Failed += len(batch)
		return
	}
	result.Updated += len(batch)
	s.logger.Info("BACKFILL", "Progress", map[string]interface{}{
		"processed": result.Updated + result.Failed + result.Skipped,
		"pending":   result.Pending,
	})
}

func (s *backfillService) processBatch(ctx context.Context, batch []*entity.QADocument) error {
	vectors := make([][]float32, len(batch))
	for i, doc := range batch {
		res, err := s.embeddingProvider.Generate(ctx, CombinedText(doc), embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("thread %d: %w", doc.ThreadId, err)
		}
		if err := embedding.CheckDimension(res, s.dimension); err != nil {
			return fmt.Errorf("thread %d: %w", doc.ThreadId, err)
		}
		vectors[i] = res.Embedding.Values
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for i, doc := range batch {
		if err := uow.QADocumentRepository().UpdateEmbedding(ctx, doc.ThreadId, vectors[i]); err != nil {
			return fmt.Errorf("thread %d: %w", doc.ThreadId, err)
		}
	}
	return uow.Commit()
}
