package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/events"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/response"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/search"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/session"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	gotID   string
	gotTopK int
	err     error
}

func (f *fakeSessions) NewSessionID() string { return "generated-id" }

func (f *fakeSessions) Process(ctx context.Context, sessionID, query string, topK int) (*session.Result, error) {
	f.gotID = sessionID
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return &session.Result{
		Answer:        "answer to " + query,
		Contexts:      []store.RetrievedContext{{ThreadId: 1}},
		RetrievalPath: search.PathVector,
		SynthesisPath: response.PathGenerated,
	}, nil
}

type capturePublisher struct {
	events []events.Event
	err    error
}

func (c *capturePublisher) Publish(ctx context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestProcessQueryGeneratesSessionID(t *testing.T) {
	sessions := &fakeSessions{}
	audit := &capturePublisher{}
	p := NewQueryPipeline(sessions, audit, logger.NewNopLogger(), nil)

	res, err := p.ProcessQuery(context.Background(), "ปวดหัว", "", 0)

	require.NoError(t, err)
	assert.Equal(t, "generated-id", res.SessionID)
	assert.Equal(t, "generated-id", sessions.gotID)
	assert.Equal(t, search.DefaultTopK, sessions.gotTopK)
	assert.Equal(t, "answer to ปวดหัว", res.Answer)
	require.Len(t, audit.events, 1)
	assert.Equal(t, events.TypeQueryProcessed, audit.events[0].EventType())
	assert.Equal(t, "vector", audit.events[0].Payload()["retrieval_path"])
}

func TestProcessQueryKeepsCallerSessionAndClamps(t *testing.T) {
	sessions := &fakeSessions{}
	p := NewQueryPipeline(sessions, nil, logger.NewNopLogger(), nil)

	res, err := p.ProcessQuery(context.Background(), "q", "mine", 99)

	require.NoError(t, err)
	assert.Equal(t, "mine", res.SessionID)
	assert.Equal(t, search.MaxTopK, sessions.gotTopK)
}

func TestProcessQueryPropagatesFatal(t *testing.T) {
	sessions := &fakeSessions{err: apperror.StoreUnavailable(errors.New("down"))}
	audit := &capturePublisher{}
	p := NewQueryPipeline(sessions, audit, logger.NewNopLogger(), nil)

	_, err := p.ProcessQuery(context.Background(), "q", "s", 5)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.True(t, appErr.Retryable)
	assert.Empty(t, audit.events)
}

func TestProcessQueryRejectsBlank(t *testing.T) {
	p := NewQueryPipeline(&fakeSessions{}, nil, logger.NewNopLogger(), nil)

	_, err := p.ProcessQuery(context.Background(), "   ", "", 5)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidRequest, appErr.Code)
}

func TestAuditFailureDoesNotAffectAnswer(t *testing.T) {
	p := NewQueryPipeline(&fakeSessions{}, &capturePublisher{err: errors.New("closed")}, logger.NewNopLogger(), nil)

	res, err := p.ProcessQuery(context.Background(), "q", "s", 5)

	require.NoError(t, err)
	assert.Equal(t, "answer to q", res.Answer)
}
