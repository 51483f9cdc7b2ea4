package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/events"
	"github.com/Natthaphatpiw/agn-chat/pkg/metrics"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/search"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/session"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SessionProcessor runs turns against the session arena.
type SessionProcessor interface {
	NewSessionID() string
	Process(ctx context.Context, sessionID, query string, topK int) (*session.Result, error)
}

// Result is what a caller receives for one query.
type Result struct {
	Answer    string
	Contexts  []store.RetrievedContext
	SessionID string
}

// QueryPipeline is the top-level entry point for a query.
type QueryPipeline struct {
	sessions SessionProcessor
	audit    events.Publisher
	logger   logger.ILogger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewQueryPipeline(sessions SessionProcessor, audit events.Publisher, log logger.ILogger, m *metrics.Metrics) *QueryPipeline {
	if audit == nil {
		audit = events.NopPublisher{}
	}
	return &QueryPipeline{
		sessions: sessions,
		audit:    audit,
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

// ProcessQuery answers rawQuery. A missing sessionID gets a fresh one and
// topK <= 0 means the default. Only fatal infrastructure faults return an error.
func (p *QueryPipeline) ProcessQuery(ctx context.Context, rawQuery, sessionID string, topK int) (*Result, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return nil, apperror.InvalidRequest("query is required")
	}
	if sessionID == "" {
		sessionID = p.sessions.NewSessionID()
	}
	if topK <= 0 {
		topK = search.DefaultTopK
	}
	topK = search.ClampTopK(topK)

	ctx, span := otel.Tracer("pipeline").Start(ctx, "pipeline.process_query")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("top_k", topK),
	)

	started := p.now()
	res, err := p.sessions.Process(ctx, sessionID, rawQuery, topK)
	elapsed := p.now().Sub(started)
	p.metrics.ObserveQuery(elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("PIPELINE", "Query failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(
		attribute.String("retrieval_path", string(res.RetrievalPath)),
		attribute.String("synthesis_path", string(res.SynthesisPath)),
		attribute.Int("sources", len(res.Contexts)),
	)
	p.logger.Info("PIPELINE", "Query processed", map[string]interface{}{
		"session_id":     sessionID,
		"sources":        len(res.Contexts),
		"retrieval_path": res.RetrievalPath,
		"synthesis_path": res.SynthesisPath,
		"duration_ms":    elapsed.Milliseconds(),
	})
	p.publishAudit(ctx, sessionID, res, elapsed)

	return &Result{
		Answer:    res.Answer,
		Contexts:  res.Contexts,
		SessionID: sessionID,
	}, nil
}

func (p *QueryPipeline) publishAudit(ctx context.Context, sessionID string, res *session.Result, elapsed time.Duration) {
	ev := events.BaseEvent{
		Type: events.TypeQueryProcessed,
		Data: map[string]interface{}{
			"session_id":       sessionID,
			"normalized_query": res.NormalizedQuery,
			"retrieval_path":   string(res.RetrievalPath),
			"synthesis_path":   string(res.SynthesisPath),
			"conversational":   res.Conversational,
			"source_count":     len(res.Contexts),
			"duration_ms":      elapsed.Milliseconds(),
		},
		OccurredAt: p.now(),
	}
	if err := p.audit.Publish(ctx, ev); err != nil {
		p.logger.Warn("PIPELINE", "Failed to publish audit event", map[string]interface{}{"error": err.Error()})
	}
}
