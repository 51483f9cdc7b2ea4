package service

import (
	"context"
	"strings"

	"github.com/Natthaphatpiw/agn-chat/internal/dto"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/unitofwork"
	"github.com/Natthaphatpiw/agn-chat/pkg/ai/pipeline"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"
)

// IChatbotService defines the caller-facing chat operations
type IChatbotService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	DeleteSession(ctx context.Context, sessionId string) (*dto.DeleteSessionResponse, error)
	Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	Health(ctx context.Context) *dto.HealthResponse
}

type QueryProcessor interface {
	ProcessQuery(ctx context.Context, rawQuery, sessionID string, topK int) (*pipeline.Result, error)
}

type SessionLifecycle interface {
	CreateSession(ctx context.Context) string
	Delete(ctx context.Context, sessionID string) bool
}

type chatbotService struct {
	pipeline   QueryProcessor
	sessions   SessionLifecycle
	uowFactory unitofwork.RepositoryFactory
	backend    llm.Backend
	logger     logger.ILogger
}

func NewChatbotService(
	pipeline QueryProcessor,
	sessions SessionLifecycle,
	uowFactory unitofwork.RepositoryFactory,
	backend llm.Backend,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		pipeline:   pipeline,
		sessions:   sessions,
		uowFactory: uowFactory,
		backend:    backend,
		logger:     log,
	}
}

func (s *chatbotService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{SessionId: s.sessions.CreateSession(ctx)}, nil
}

func (s *chatbotService) DeleteSession(ctx context.Context, sessionId string) (*dto.DeleteSessionResponse, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return nil, apperror.InvalidRequest("session_id is required")
	}
	return &dto.DeleteSessionResponse{
		SessionId: sessionId,
		Found:     s.sessions.Delete(ctx, sessionId),
	}, nil
}

func (s *chatbotService) Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	s.logger.Info("CHATBOT", "Received query", map[string]interface{}{
		"session_id": request.SessionId,
		"top_k":      request.TopK,
	})

	res, err := s.pipeline.ProcessQuery(ctx, request.Query, request.SessionId, request.TopK)
	if err != nil {
		return nil, err
	}

	return &dto.ChatResponse{
		Response:  res.Answer,
		Sources:   toSourceDocuments(res.Contexts),
		SessionId: res.SessionID,
	}, nil
}

// Health reports "healthy" while the document store answers and "degraded"
// otherwise, together with the active generation backend.
func (s *chatbotService) Health(ctx context.Context) *dto.HealthResponse {
	status := "healthy"
	if err := s.uowFactory.QADocumentRepository().Ping(ctx); err != nil {
		s.logger.Warn("CHATBOT", "Health check: store ping failed", map[string]interface{}{"error": err.Error()})
		status = "degraded"
	}
	return &dto.HealthResponse{
		Status:  status,
		Backend: string(s.backend.Kind()),
	}
}

func toSourceDocuments(contexts []store.RetrievedContext) []dto.SourceDocument {
	sources := make([]dto.SourceDocument, 0, len(contexts))
	for _, c := range contexts {
		sources = append(sources, dto.SourceDocument{
			ThreadId: c.ThreadId,
			Topic:    c.Topic,
			Question: c.Question,
			Answer:   c.Answer,
			Date:     c.Date,
			Score:    c.Score,
		})
	}
	return sources
}
