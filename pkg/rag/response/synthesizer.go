package response

import (
	"context"
	"fmt"
	"strings"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/metrics"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/prompt"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type Path string

const (
	PathGenerated Path = "generated"
	PathTemplated Path = "templated"
	PathApology   Path = "apology"
)

type Synthesis struct {
	Answer string
	Path   Path
}

// Synthesizer turns retrieved contexts into an answer. It never fails.
type Synthesizer struct {
	backend llm.Backend
	logger  logger.ILogger
	metrics *metrics.Metrics
}

func NewSynthesizer(backend llm.Backend, log logger.ILogger, m *metrics.Metrics) *Synthesizer {
	return &Synthesizer{backend: backend, logger: log, metrics: m}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, contexts []store.RetrievedContext) Synthesis {
	ctx, span := otel.Tracer("synthesizer").Start(ctx, "synthesizer.synthesize")
	defer span.End()

	out := s.synthesize(ctx, query, contexts)
	span.SetAttributes(attribute.String("path", string(out.Path)))
	s.metrics.Synthesis(string(out.Path))
	return out
}

func (s *Synthesizer) synthesize(ctx context.Context, query string, contexts []store.RetrievedContext) Synthesis {
	if len(contexts) == 0 {
		return Synthesis{Answer: ApologyMessage, Path: PathApology}
	}

	if !s.backend.Available() {
		return Synthesis{Answer: FormatFallback(query, contexts), Path: PathTemplated}
	}

	out, err := s.backend.Generate(ctx, prompt.AnswerTurns(query, contexts))
	if err != nil {
		s.logger.Warn("SYNTHESIZER", "Generation failed, using templated answer", map[string]interface{}{
			"backend": s.backend.Kind(),
			"error":   err.Error(),
		})
		return Synthesis{Answer: FormatFallback(query, contexts), Path: PathTemplated}
	}

	answer := strings.TrimSpace(out)
	if answer == "" {
		s.logger.Warn("SYNTHESIZER", "Empty generation, using templated answer", map[string]interface{}{
			"backend": s.backend.Kind(),
		})
		return Synthesis{Answer: FormatFallback(query, contexts), Path: PathTemplated}
	}

	return Synthesis{Answer: answer, Path: PathGenerated}
}

// FormatFallback lists up to three contexts under a header, followed by a
// consultation disclaimer. It is deterministic for equal inputs.
func FormatFallback(query string, contexts []store.RetrievedContext) string {
	parts := []string{fmt.Sprintf(fallbackHeader, query)}

	for i, c := range contexts {
		if i == maxFallbackDocs {
			break
		}
		heading := c.Topic
		if heading == "" {
			heading = c.Question
		}
		parts = append(parts, fmt.Sprintf("\n%d. %s", i+1, heading))
		if c.Answer != "" {
			parts = append(parts, "   "+Preview(c.Answer))
		}
	}

	parts = append(parts, fallbackDisclaimer)
	return strings.Join(parts, "\n")
}

// Preview cuts s to previewRunes characters plus an ellipsis when longer.
func Preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes]) + ellipsis
}
