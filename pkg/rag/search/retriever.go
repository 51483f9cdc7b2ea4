package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Natthaphatpiw/agn-chat/internal/mapper"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/specification"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/unitofwork"
	"github.com/Natthaphatpiw/agn-chat/pkg/embedding"
	"github.com/Natthaphatpiw/agn-chat/pkg/metrics"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	MinTopK     = 1
	MaxTopK     = 20
	DefaultTopK = 5

	// candidate pool per requested result
	candidateFactor = 10
)

type Path string

const (
	PathVector   Path = "vector"
	PathFallback Path = "fallback"
)

// Retrieval is a retriever result together with the path that produced it.
type Retrieval struct {
	Contexts []store.RetrievedContext
	Path     Path
}

// ClampTopK forces topK into [MinTopK, MaxTopK].
func ClampTopK(topK int) int {
	if topK < MinTopK {
		return MinTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// Retriever fetches Q&A contexts by similarity, dropping to an unranked
// lookup when the vector path fails.
type Retriever struct {
	embedder  embedding.EmbeddingProvider
	repos     unitofwork.RepositoryFactory
	dimension int
	mapper    *mapper.QADocumentMapper
	logger    logger.ILogger
	metrics   *metrics.Metrics
}

func NewRetriever(embedder embedding.EmbeddingProvider, repos unitofwork.RepositoryFactory, dimension int, log logger.ILogger, m *metrics.Metrics) *Retriever {
	return &Retriever{
		embedder:  embedder,
		repos:     repos,
		dimension: dimension,
		mapper:    mapper.NewQADocumentMapper(),
		logger:    log,
		metrics:   m,
	}
}

// Retrieve returns at most topK contexts. The only error it returns is a
// STORE_UNAVAILABLE apperror, raised when the fallback lookup fails and the
// store does not answer a ping.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*Retrieval, error) {
	topK = ClampTopK(topK)

	ctx, span := otel.Tracer("retriever").Start(ctx, "retriever.retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", topK))

	repo := r.repos.QADocumentRepository()

	contexts, err := r.vectorSearch(ctx, repo, query, topK)
	if err == nil {
		r.logger.Info("RETRIEVER", "Retrieved documents", map[string]interface{}{
			"count": len(contexts),
			"path":  PathVector,
		})
		r.metrics.Retrieval(string(PathVector))
		span.SetAttributes(attribute.String("path", string(PathVector)), attribute.Int("count", len(contexts)))
		return &Retrieval{Contexts: contexts, Path: PathVector}, nil
	}

	r.logger.Warn("RETRIEVER", "Vector search failed, using fallback lookup", map[string]interface{}{
		"error":      err.Error(),
		"index_miss": errors.Is(err, contract.ErrIndexNotFound),
	})

	contexts, err = r.fallback(ctx, repo, topK)
	if err != nil {
		r.logger.Error("RETRIEVER", "Fallback lookup failed", map[string]interface{}{"error": err.Error()})
		if pingErr := repo.Ping(ctx); pingErr != nil {
			span.RecordError(pingErr)
			span.SetStatus(codes.Error, "store unavailable")
			return nil, apperror.StoreUnavailable(pingErr)
		}
		contexts = []store.RetrievedContext{}
	}

	r.logger.Info("RETRIEVER", "Retrieved documents", map[string]interface{}{
		"count": len(contexts),
		"path":  PathFallback,
	})
	r.metrics.Retrieval(string(PathFallback))
	span.SetAttributes(attribute.String("path", string(PathFallback)), attribute.Int("count", len(contexts)))
	return &Retrieval{Contexts: contexts, Path: PathFallback}, nil
}

func (r *Retriever) vectorSearch(ctx context.Context, repo contract.QADocumentRepository, query string, topK int) ([]store.RetrievedContext, error) {
	emb, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if err := embedding.CheckDimension(emb, r.dimension); err != nil {
		return nil, err
	}

	scored, err := repo.SearchSimilar(ctx, emb.Embedding.Values, topK*candidateFactor, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	contexts := make([]store.RetrievedContext, 0, len(scored))
	for _, s := range scored {
		score := s.Similarity
		contexts = append(contexts, r.mapper.ToContext(s.Document, &score))
	}
	return contexts, nil
}

// fallback reads documents with a non-empty question in storage order, unscored.
func (r *Retriever) fallback(ctx context.Context, repo contract.QADocumentRepository, topK int) ([]store.RetrievedContext, error) {
	docs, err := repo.FindAll(ctx,
		specification.ContextColumns,
		specification.HasQuestion{},
		specification.Pagination{Limit: topK},
	)
	if err != nil {
		return nil, err
	}

	contexts := make([]store.RetrievedContext, 0, len(docs))
	for _, d := range docs {
		contexts = append(contexts, r.mapper.ToContext(d, nil))
	}
	return contexts, nil
}
