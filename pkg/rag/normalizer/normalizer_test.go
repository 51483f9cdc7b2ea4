package normalizer

import (
	"context"
	"errors"
	"testing"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	calls [][]llm.Message
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.calls = append(s.calls, history)
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.reply, s.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		kind      llm.BackendKind
		reply     string
		err       error
		want      string
		wantCalls int
	}{
		{name: "hosted rewrites", kind: llm.BackendHosted, reply: "  ปวดหัวบ่อยควรทำอย่างไร \n", want: "ปวดหัวบ่อยควรทำอย่างไร", wantCalls: 1},
		{name: "hosted error keeps raw", kind: llm.BackendHosted, err: errors.New("timeout"), want: "ปวดหัว", wantCalls: 1},
		{name: "hosted empty keeps raw", kind: llm.BackendHosted, reply: "   ", want: "ปวดหัว", wantCalls: 1},
		{name: "local skipped", kind: llm.BackendLocal, reply: "ignored", want: "ปวดหัว"},
		{name: "unavailable skipped", kind: llm.BackendUnavailable, want: "ปวดหัว"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{reply: tt.reply, err: tt.err}
			var backend llm.Backend
			switch tt.kind {
			case llm.BackendHosted:
				backend = llm.NewHostedBackend(provider)
			case llm.BackendLocal:
				backend = llm.NewLocalBackend(provider)
			default:
				backend = llm.UnavailableBackend()
			}

			got := New(backend, logger.NewNopLogger(), nil).Normalize(context.Background(), "ปวดหัว")

			assert.Equal(t, tt.want, got)
			require.Len(t, provider.calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, llm.RoleSystem, provider.calls[0][0].Role)
				assert.Contains(t, provider.calls[0][1].Content, "ปวดหัว")
			}
		})
	}
}
