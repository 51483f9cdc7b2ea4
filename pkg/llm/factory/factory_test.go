package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type fakeLocal struct {
	showErr error
	probed  bool
}

func (f *fakeLocal) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "ok", nil
}

func (f *fakeLocal) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "ok", nil
}

func (f *fakeLocal) ShowModel(ctx context.Context) error {
	f.probed = true
	return f.showErr
}

func withLocal(t *testing.T, local *fakeLocal) {
	t.Helper()
	orig := newLocalProvider
	newLocalProvider = func(cfg BackendConfig) localProbe { return local }
	t.Cleanup(func() { newLocalProvider = orig })
}

func TestDetectBackend(t *testing.T) {
	tests := []struct {
		name       string
		cfg        BackendConfig
		showErr    error
		want       llm.BackendKind
		wantProbed bool
	}{
		{
			name: "credential selects hosted",
			cfg:  BackendConfig{OpenAIAPIKey: "sk-test", LocalEnabled: true},
			want: llm.BackendHosted,
		},
		{
			name:       "reachable local model",
			cfg:        BackendConfig{LocalEnabled: true, LocalModel: "llama2"},
			want:       llm.BackendLocal,
			wantProbed: true,
		},
		{
			name:       "unreachable local model",
			cfg:        BackendConfig{LocalEnabled: true, LocalModel: "llama2"},
			showErr:    errors.New("connection refused"),
			want:       llm.BackendUnavailable,
			wantProbed: true,
		},
		{
			name: "local disabled",
			cfg:  BackendConfig{},
			want: llm.BackendUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := &fakeLocal{showErr: tt.showErr}
			withLocal(t, local)

			backend := DetectBackend(context.Background(), tt.cfg, logger.NewNopLogger())

			assert.Equal(t, tt.want, backend.Kind())
			assert.Equal(t, tt.wantProbed, local.probed)
		})
	}
}
