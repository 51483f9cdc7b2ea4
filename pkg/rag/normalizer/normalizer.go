package normalizer

import (
	"context"
	"strings"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/metrics"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/prompt"
)

const (
	ResultNormalized = "normalized"
	ResultRaw        = "raw"
	ResultSkipped    = "skipped"
)

// Normalizer rewrites queries into a clearer form before retrieval. Only the
// hosted backend is asked.
type Normalizer struct {
	backend llm.Backend
	logger  logger.ILogger
	metrics *metrics.Metrics
}

func New(backend llm.Backend, log logger.ILogger, m *metrics.Metrics) *Normalizer {
	return &Normalizer{backend: backend, logger: log, metrics: m}
}

// Normalize never fails; any backend problem yields rawQuery unchanged.
func (n *Normalizer) Normalize(ctx context.Context, rawQuery string) string {
	if n.backend.Kind() != llm.BackendHosted {
		n.metrics.Normalization(ResultSkipped)
		return rawQuery
	}

	out, err := n.backend.Generate(ctx, prompt.NormalizeTurns(rawQuery))
	if err != nil {
		n.logger.Warn("NORMALIZER", "Normalization failed, using raw query", map[string]interface{}{
			"error": err.Error(),
		})
		n.metrics.Normalization(ResultRaw)
		return rawQuery
	}

	normalized := strings.TrimSpace(out)
	if normalized == "" {
		n.metrics.Normalization(ResultRaw)
		return rawQuery
	}

	n.logger.Info("NORMALIZER", "Query normalized", map[string]interface{}{
		"raw":        rawQuery,
		"normalized": normalized,
	})
	n.metrics.Normalization(ResultNormalized)
	return normalized
}
