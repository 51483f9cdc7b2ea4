package session

import (
	"context"
	"errors"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/memory"
	"github.com/Natthaphatpiw/agn-chat/pkg/events"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/metrics"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/engine"
	rmemory "github.com/Natthaphatpiw/agn-chat/pkg/rag/memory"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/response"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/search"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"github.com/google/uuid"
)

const publishTimeout = 2 * time.Second

// ErrConversationUnavailable is returned when the active backend has no
// conversational mode.
var ErrConversationUnavailable = errors.New("conversational engine unavailable")

type Normalizer interface {
	Normalize(ctx context.Context, rawQuery string) string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, query string, contexts []store.RetrievedContext) response.Synthesis
}

type Config struct {
	MemoryTokenLimit int
	TokenCounter     rmemory.TokenCounter
}

// Result is one processed turn.
type Result struct {
	Answer          string
	Contexts        []store.RetrievedContext
	NormalizedQuery string
	RetrievalPath   search.Path
	SynthesisPath   response.Path
	Conversational  bool
}

// Manager owns the session arena. Each session serializes its own turns;
// sweeps and deletes take the same per-session lock.
type Manager struct {
	sessions    *memory.SessionRepository
	backend     llm.Backend
	normalizer  Normalizer
	retriever   engine.Retriever
	synthesizer Synthesizer
	cfg         Config
	publisher   events.Publisher
	logger      logger.ILogger
	metrics     *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewManager(
	sessions *memory.SessionRepository,
	backend llm.Backend,
	normalizer Normalizer,
	retriever engine.Retriever,
	synthesizer Synthesizer,
	cfg Config,
	publisher events.Publisher,
	log logger.ILogger,
	m *metrics.Metrics,
) *Manager {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.TokenCounter == nil {
		cfg.TokenCounter = rmemory.RuneCounter{}
	}
	return &Manager{
		sessions:    sessions,
		backend:     backend,
		normalizer:  normalizer,
		retriever:   retriever,
		synthesizer: synthesizer,
		cfg:         cfg,
		publisher:   publisher,
		logger:      log,
		metrics:     m,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// NewSessionID returns a fresh opaque identifier.
func (m *Manager) NewSessionID() string {
	return m.newID()
}

// CreateSession registers a new empty session and returns its id.
func (m *Manager) CreateSession(ctx context.Context) string {
	for {
		id := m.newID()
		s := store.NewSession(id, m.now())
		if m.sessions.Add(s) {
			m.created(ctx, s)
			return id
		}
	}
}

// resolve returns the live session for id, creating it when absent.
func (m *Manager) resolve(ctx context.Context, id string) *store.Session {
	for {
		if s, ok := m.sessions.Get(id); ok {
			return s
		}
		s := store.NewSession(id, m.now())
		if m.sessions.Add(s) {
			m.created(ctx, s)
			return s
		}
	}
}

// acquire locks the live session for id. A session closed while we waited
// is gone, so resolve again and get a fresh one.
func (m *Manager) acquire(ctx context.Context, id string) *store.Session {
	for {
		s := m.resolve(ctx, id)
		s.Lock()
		if !s.Closed() {
			return s
		}
		s.Unlock()
	}
}

func (m *Manager) created(ctx context.Context, s *store.Session) {
	m.logger.Info("SESSION", "Session created", map[string]interface{}{"session_id": s.ID})
	m.metrics.SessionsActive(m.sessions.Count())
	m.publish(ctx, events.SessionEvent(events.TypeSessionCreated, s.ID, s.CreatedAt))
}

// GetOrCreateEngine returns the session's engine, building one if needed.
func (m *Manager) GetOrCreateEngine(ctx context.Context, sessionID string) (store.ConversationEngine, error) {
	s := m.acquire(ctx, sessionID)
	defer s.Unlock()
	return m.engineFor(s)
}

// engineFor requires the session lock.
func (m *Manager) engineFor(s *store.Session) (store.ConversationEngine, error) {
	if !m.backend.SupportsConversation() {
		return nil, ErrConversationUnavailable
	}
	if e := s.Engine(); e != nil {
		return e, nil
	}
	e := engine.NewChatEngine(m.backend, m.retriever, rmemory.NewBuffer(m.cfg.MemoryTokenLimit, m.cfg.TokenCounter))
	s.SetEngine(e)
	return e, nil
}

// Process runs one turn for sessionID. The only error is a fatal store fault.
func (m *Manager) Process(ctx context.Context, sessionID, query string, topK int) (*Result, error) {
	s := m.acquire(ctx, sessionID)
	defer s.Unlock()

	s.Touch(m.now())
	normalized := m.normalizer.Normalize(ctx, query)

	eng, err := m.engineFor(s)
	if err == nil {
		answer, chatErr := eng.Chat(ctx, normalized, topK)
		if chatErr == nil {
			// the engine's own retrieval is internal; run a plain pass for the caller
			retrieval, err := m.retriever.Retrieve(ctx, normalized, topK)
			if err != nil {
				return nil, err
			}
			m.metrics.Synthesis(string(response.PathGenerated))
			return &Result{
				Answer:          answer,
				Contexts:        retrieval.Contexts,
				NormalizedQuery: normalized,
				RetrievalPath:   retrieval.Path,
				SynthesisPath:   response.PathGenerated,
				Conversational:  true,
			}, nil
		}
		if _, fatal := apperror.As(chatErr); fatal {
			return nil, chatErr
		}
		m.logger.Warn("SESSION", "Conversational engine failed, answering statelessly", map[string]interface{}{
			"session_id": s.ID,
			"error":      chatErr.Error(),
		})
	}

	retrieval, err := m.retriever.Retrieve(ctx, normalized, topK)
	if err != nil {
		return nil, err
	}
	syn := m.synthesizer.Synthesize(ctx, normalized, retrieval.Contexts)

	return &Result{
		Answer:          syn.Answer,
		Contexts:        retrieval.Contexts,
		NormalizedQuery: normalized,
		RetrievalPath:   retrieval.Path,
		SynthesisPath:   syn.Path,
	}, nil
}

// EvictIdle removes every session inactive for at least maxAge and reports how many went.
func (m *Manager) EvictIdle(ctx context.Context, maxAge time.Duration) int {
	now := m.now()
	var evicted []string

	for _, s := range m.sessions.All() {
		if !s.IdleSince(now, maxAge) {
			continue
		}
		s.Lock()
		// an in-flight turn may have touched it while we waited
		if !s.Closed() && s.IdleSince(now, maxAge) {
			s.Close()
			m.sessions.Remove(s)
			evicted = append(evicted, s.ID)
		}
		s.Unlock()
	}

	for _, id := range evicted {
		m.publish(ctx, events.SessionEvent(events.TypeSessionEvicted, id, now))
	}

	m.metrics.SessionsEvicted(len(evicted))
	m.metrics.SessionsActive(m.sessions.Count())
	if len(evicted) > 0 {
		m.logger.Info("SESSION", "Evicted idle sessions", map[string]interface{}{
			"count":   len(evicted),
			"max_age": maxAge.String(),
		})
	}
	return len(evicted)
}

// Delete removes the session and its memory. It reports whether the id was live.
func (m *Manager) Delete(ctx context.Context, sessionID string) bool {
	s, ok := m.sessions.Get(sessionID)
	if !ok {
		return false
	}

	s.Lock()
	if s.Closed() {
		s.Unlock()
		return false
	}
	s.Close()
	m.sessions.Remove(s)
	s.Unlock()

	m.logger.Info("SESSION", "Session deleted", map[string]interface{}{"session_id": sessionID})
	m.metrics.SessionsActive(m.sessions.Count())
	m.publish(ctx, events.SessionEvent(events.TypeSessionDeleted, sessionID, m.now()))
	return true
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.EvictIdle(ctx, maxAge)
		}
	}
}

// Count reports live sessions.
func (m *Manager) Count() int {
	return m.sessions.Count()
}

func (m *Manager) publish(ctx context.Context, ev events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.logger.Warn("SESSION", "Failed to publish session event", map[string]interface{}{
			"type":  ev.EventType(),
			"error": err.Error(),
		})
	}
}
