package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/dto"
	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/repotest"
	"github.com/Natthaphatpiw/agn-chat/pkg/ai/pipeline"
	"github.com/Natthaphatpiw/agn-chat/pkg/embedding"
	"github.com/Natthaphatpiw/agn-chat/pkg/events"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	module  string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) record(module, msg string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{module: module, message: msg, details: details})
}

func (l *recordingLogger) Debug(module, msg string, details map[string]interface{}) {
	l.record(module, msg, details)
}

func (l *recordingLogger) Info(module, msg string, details map[string]interface{}) {
	l.record(module, msg, details)
}

func (l *recordingLogger) Warn(module, msg string, details map[string]interface{}) {
	l.record(module, msg, details)
}

func (l *recordingLogger) Error(module, msg string, details map[string]interface{}) {
	l.record(module, msg, details)
}

func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) snapshot() []entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]entry(nil), l.entries...)
}

type stubPipeline struct {
	result *pipeline.Result
	err    error

	gotQuery   string
	gotSession string
	gotTopK    int
}

func (p *stubPipeline) ProcessQuery(ctx context.Context, rawQuery, sessionID string, topK int) (*pipeline.Result, error) {
	p.gotQuery, p.gotSession, p.gotTopK = rawQuery, sessionID, topK
	return p.result, p.err
}

type stubSessions struct {
	known map[string]bool
}

func (s *stubSessions) CreateSession(ctx context.Context) string {
	return "new-session"
}

func (s *stubSessions) Delete(ctx context.Context, sessionID string) bool {
	found := s.known[sessionID]
	delete(s.known, sessionID)
	return found
}

func newChatbot(p *stubPipeline, repo *repotest.QADocuments) IChatbotService {
	return NewChatbotService(
		p,
		&stubSessions{known: map[string]bool{"abc": true}},
		&repotest.Factory{Repo: repo},
		llm.UnavailableBackend(),
		logger.NewNopLogger(),
	)
}

func TestChatMapsPipelineResult(t *testing.T) {
	score := 0.87
	p := &stubPipeline{result: &pipeline.Result{
		Answer:    "คำตอบ",
		SessionID: "abc",
		Contexts: []store.RetrievedContext{
			{ThreadId: 7, Topic: "ไข้", Question: "q", Answer: "a", Date: "2024-01-01", Score: &score},
			{ThreadId: 8, Question: "q2"},
		},
	}}
	svc := newChatbot(p, &repotest.QADocuments{})

	res, err := svc.Chat(context.Background(), &dto.ChatRequest{Query: "ปวดหัว", SessionId: "abc", TopK: 3})
	require.NoError(t, err)

	assert.Equal(t, "ปวดหัว", p.gotQuery)
	assert.Equal(t, "abc", p.gotSession)
	assert.Equal(t, 3, p.gotTopK)

	assert.Equal(t, "คำตอบ", res.Response)
	assert.Equal(t, "abc", res.SessionId)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, int64(7), res.Sources[0].ThreadId)
	require.NotNil(t, res.Sources[0].Score)
	assert.Equal(t, 0.87, *res.Sources[0].Score)
	assert.Nil(t, res.Sources[1].Score)
}

func TestChatPropagatesFatalError(t *testing.T) {
	p := &stubPipeline{err: apperror.StoreUnavailable(errors.New("down"))}
	svc := newChatbot(p, &repotest.QADocuments{})

	_, err := svc.Chat(context.Background(), &dto.ChatRequest{Query: "q"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.True(t, appErr.Retryable)
}

func TestSessionLifecycle(t *testing.T) {
	svc := newChatbot(&stubPipeline{}, &repotest.QADocuments{})
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-session", created.SessionId)

	deleted, err := svc.DeleteSession(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, deleted.Found)

	deleted, err = svc.DeleteSession(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted.Found)

	_, err = svc.DeleteSession(ctx, "  ")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	repo := &repotest.QADocuments{}
	svc := newChatbot(&stubPipeline{}, repo)

	assert.Equal(t, &dto.HealthResponse{Status: "healthy", Backend: "unavailable"}, svc.Health(context.Background()))

	repo.PingErr = errors.New("refused")
	assert.Equal(t, "degraded", svc.Health(context.Background()).Status)
}

type fixedEmbedder struct {
	dim     int
	failFor string
	calls   int
}

func (e *fixedEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	e.calls++
	if e.failFor != "" && text == e.failFor {
		return nil, errors.New("embedding failed")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: make([]float32, e.dim)}}, nil
}

func TestCombinedText(t *testing.T) {
	tests := []struct {
		name string
		doc  entity.QADocument
		want string
	}{
		{name: "both", doc: entity.QADocument{Topic: " ไข้ ", Question: "ตัวร้อน"}, want: "หัวข้อ: ไข้\nคำถาม: ตัวร้อน"},
		{name: "question only", doc: entity.QADocument{Question: "ตัวร้อน"}, want: "คำถาม: ตัวร้อน"},
		{name: "topic only", doc: entity.QADocument{Topic: "ไข้"}, want: "หัวข้อ: ไข้"},
		{name: "empty", doc: entity.QADocument{Topic: "  "}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombinedText(&tt.doc))
		})
	}
}

func TestBackfillEmbedsPendingDocuments(t *testing.T) {
	repo := &repotest.QADocuments{Docs: []*entity.QADocument{
		{ThreadId: 1, Topic: "a", Question: "q1"},
		{ThreadId: 2, Question: "q2", ContentVector: []float32{1, 0, 0}},
		{ThreadId: 3},
		{ThreadId: 4, Question: "q4"},
		{ThreadId: 5, Question: "q5"},
	}}
	embedder := &fixedEmbedder{dim: 3}
	svc := NewBackfillService(&repotest.Factory{Repo: repo}, embedder, 3, logger.NewNopLogger())

	res, err := svc.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, &dto.BackfillResult{Pending: 4, Updated: 3, Skipped: 1}, res)
	assert.Equal(t, 3, embedder.calls)
	assert.True(t, repo.Docs[0].Embedded())
	assert.False(t, repo.Docs[2].Embedded())
	assert.True(t, repo.Docs[4].Embedded())
}

func TestBackfillCountsFailedBatch(t *testing.T) {
	repo := &repotest.QADocuments{Docs: []*entity.QADocument{
		{ThreadId: 1, Question: "ok"},
		{ThreadId: 2, Question: "bad"},
		{ThreadId: 3, Question: "later"},
	}}
	embedder := &fixedEmbedder{dim: 3, failFor: "คำถาม: bad"}
	svc := NewBackfillService(&repotest.Factory{Repo: repo}, embedder, 3, logger.NewNopLogger())

	res, err := svc.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Updated)
	assert.False(t, repo.Docs[0].Embedded())
	assert.True(t, repo.Docs[2].Embedded())
}

func TestBackfillRejectsWrongDimension(t *testing.T) {
	repo := &repotest.QADocuments{Docs: []*entity.QADocument{{ThreadId: 1, Question: "q"}}}
	svc := NewBackfillService(&repotest.Factory{Repo: repo}, &fixedEmbedder{dim: 2}, 3, logger.NewNopLogger())

	res, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, repo.Docs[0].Embedded())
}

func TestBackfillListFailure(t *testing.T) {
	repo := &repotest.QADocuments{FindErr: errors.New("relation does not exist")}
	svc := NewBackfillService(&repotest.Factory{Repo: repo}, &fixedEmbedder{dim: 3}, 3, logger.NewNopLogger())

	_, err := svc.Run(context.Background(), 10)
	assert.Error(t, err)
}

func TestAuditEventsReachAuditLog(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit := &recordingLogger{}
	consumer := NewAuditConsumerService(pubSub, "QUERY_PROCESSED", audit, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("QUERY_PROCESSED", pubSub)
	err := publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeQueryProcessed,
		Data:       map[string]interface{}{"session_id": "abc", "retrieval_path": "vector"},
		OccurredAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(audit.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	got := audit.snapshot()[0]
	assert.Equal(t, "AUDIT", got.module)
	assert.Equal(t, events.TypeQueryProcessed, got.message)
	assert.Equal(t, "abc", got.details["session_id"])
	assert.Equal(t, "vector", got.details["retrieval_path"])
	assert.Equal(t, "2024-05-01T00:00:00Z", got.details["occurred_at"])
}

func TestAuditConsumerAcksMalformedPayload(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit := &recordingLogger{}
	sys := &recordingLogger{}
	require.NoError(t, NewAuditConsumerService(pubSub, "T", audit, sys).Consume(ctx))

	require.NoError(t, pubSub.Publish("T", newRawMessage("not json")))

	require.Eventually(t, func() bool { return len(sys.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, audit.snapshot())
}

func newRawMessage(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}
