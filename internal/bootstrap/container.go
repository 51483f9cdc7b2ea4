package bootstrap

import (
	"context"
	"log"

	"github.com/Natthaphatpiw/agn-chat/internal/config"
	"github.com/Natthaphatpiw/agn-chat/internal/controller"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/memory"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/unitofwork"
	"github.com/Natthaphatpiw/agn-chat/internal/service"
	"github.com/Natthaphatpiw/agn-chat/pkg/ai/pipeline"
	"github.com/Natthaphatpiw/agn-chat/pkg/embedding"
	"github.com/Natthaphatpiw/agn-chat/pkg/events"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm/factory"
	"github.com/Natthaphatpiw/agn-chat/pkg/metrics"
	pktNats "github.com/Natthaphatpiw/agn-chat/pkg/nats"
	rmemory "github.com/Natthaphatpiw/agn-chat/pkg/rag/memory"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/normalizer"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/response"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/search"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController

	// Background Services (Exposed for main.go to run)
	AuditConsumerService service.IAuditConsumerService
	SessionManager       *session.Manager
	BackfillService      service.IBackfillService

	Backend  llm.Backend
	Registry *prometheus.Registry
	Logger   logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db, cfg.Database.VectorIndexName)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	c := &Container{
		Registry: registry,
		Logger:   sysLogger,
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	publisherService := service.NewPublisherService(cfg.Keys.AuditTopic, pubSub)
	c.AuditConsumerService = service.NewAuditConsumerService(pubSub, cfg.Keys.AuditTopic, auditLogger, sysLogger)

	var lifecyclePublisher events.Publisher = events.NopPublisher{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			lifecyclePublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Embeddings
	embeddingProvider := newEmbeddingProvider(cfg, sysLogger, c)

	// 4. Generation backend, chosen once
	backend := factory.DetectBackend(context.Background(), factory.BackendConfig{
		OpenAIAPIKey:   cfg.Keys.OpenAI,
		OpenAIBaseURL:  cfg.Ai.OpenAIBaseURL,
		OpenAIModel:    cfg.Ai.OpenAIModel,
		LocalEnabled:   cfg.Ai.LocalLLMEnabled,
		OllamaBaseURL:  cfg.Ai.OllamaBaseURL,
		LocalModel:     cfg.Ai.LocalLLMModel,
		LocalMaxTokens: cfg.Ai.LocalLLMMaxTokens,
		LocalContext:   cfg.Ai.LocalLLMContext,
		Temperature:    cfg.Ai.Temperature,
	}, sysLogger)
	c.Backend = backend
	log.Printf("[INFO] Using generation backend: %s", backend.Kind())

	// 5. RAG tiers
	var counter rmemory.TokenCounter = rmemory.RuneCounter{}
	if tk, err := rmemory.NewTiktokenCounter(); err != nil {
		log.Printf("[WARN] Failed to load tokenizer, counting runes: %v", err)
	} else {
		counter = tk
	}

	retriever := search.NewRetriever(embeddingProvider, uowFactory, cfg.Database.EmbeddingDimension, sysLogger, appMetrics)
	sessionManager := session.NewManager(
		memory.NewSessionRepository(),
		backend,
		normalizer.New(backend, sysLogger, appMetrics),
		retriever,
		response.NewSynthesizer(backend, sysLogger, appMetrics),
		session.Config{
			MemoryTokenLimit: cfg.Session.MemoryTokenLimit,
			TokenCounter:     counter,
		},
		lifecyclePublisher,
		sysLogger,
		appMetrics,
	)
	c.SessionManager = sessionManager

	queryPipeline := pipeline.NewQueryPipeline(sessionManager, publisherService, sysLogger, appMetrics)

	// 6. Services
	chatbotService := service.NewChatbotService(queryPipeline, sessionManager, uowFactory, backend, sysLogger)
	c.BackfillService = service.NewBackfillService(uowFactory, embeddingProvider, cfg.Database.EmbeddingDimension, sysLogger)

	// 7. Controllers
	c.ChatbotController = controller.NewChatbotController(chatbotService)

	return c
}

func newEmbeddingProvider(cfg *config.Config, sysLogger logger.ILogger, c *Container) embedding.EmbeddingProvider {
	var (
		provider embedding.EmbeddingProvider
		model    string
	)
	if cfg.Ai.EmbeddingProvider == "openai" {
		p := embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIEmbeddingModel, cfg.Database.EmbeddingDimension)
		provider, model = p, p.ModelName()
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", model)
	} else {
		p := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
		provider, model = p, p.ModelName()
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", model)
	}

	if cfg.App.RedisURL == "" {
		return provider
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	return embedding.NewCachedProvider(provider, embedding.NewRedisCache(rdb), model, cfg.Ai.EmbeddingCacheTTL, sysLogger)
}

// Close releases bus and client connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
