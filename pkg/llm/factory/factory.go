package factory

import (
	"context"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm/ollama"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm/openai"
)

const probeTimeout = 5 * time.Second

type BackendConfig struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	LocalEnabled   bool
	OllamaBaseURL  string
	LocalModel     string
	LocalMaxTokens int
	LocalContext   int

	Temperature float64
}

// localProbe is satisfied by providers that can confirm their model is loaded.
type localProbe interface {
	llm.LLMProvider
	ShowModel(ctx context.Context) error
}

var newLocalProvider = func(cfg BackendConfig) localProbe {
	return ollama.NewOllamaProvider(cfg.OllamaBaseURL, cfg.LocalModel, cfg.LocalMaxTokens, cfg.LocalContext, cfg.Temperature)
}

// DetectBackend picks the generation backend once at startup.
// Hosted wins when a credential is configured, then a reachable local model,
// otherwise the unavailable arm.
func DetectBackend(ctx context.Context, cfg BackendConfig, log logger.ILogger) llm.Backend {
	if cfg.OpenAIAPIKey != "" {
		provider := openai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Temperature)
		log.Info("LLM", "Using hosted backend", map[string]interface{}{"model": provider.Model()})
		return llm.NewHostedBackend(provider)
	}

	if !cfg.LocalEnabled {
		log.Warn("LLM", "No hosted credential and local model disabled, generation unavailable", nil)
		return llm.UnavailableBackend()
	}

	local := newLocalProvider(cfg)
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := local.ShowModel(probeCtx); err != nil {
		log.Warn("LLM", "Local model not reachable, generation unavailable", map[string]interface{}{
			"model": cfg.LocalModel,
			"error": err.Error(),
		})
		return llm.UnavailableBackend()
	}

	log.Info("LLM", "Using local backend", map[string]interface{}{"model": cfg.LocalModel})
	return llm.NewLocalBackend(local)
}
