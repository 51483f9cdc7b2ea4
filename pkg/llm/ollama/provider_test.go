package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Natthaphatpiw/agn-chat/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInstructPrompt(t *testing.T) {
	tests := []struct {
		name  string
		turns []llm.Message
		want  string
	}{
		{
			name:  "system and user",
			turns: []llm.Message{{Role: llm.RoleSystem, Content: "S"}, {Role: llm.RoleUser, Content: "U"}},
			want:  "[INST] <<SYS>>\nS\n<</SYS>>\n\nU [/INST]",
		},
		{
			name:  "user only",
			turns: []llm.Message{{Role: llm.RoleUser, Content: "U"}},
			want:  "[INST] U [/INST]",
		},
		{
			name: "multi turn",
			turns: []llm.Message{
				{Role: llm.RoleSystem, Content: "S"},
				{Role: llm.RoleUser, Content: "U1"},
				{Role: llm.RoleAssistant, Content: "A1"},
				{Role: llm.RoleUser, Content: "U2"},
			},
			want: "[INST] <<SYS>>\nS\n<</SYS>>\n\nU1 [/INST] A1 </s><s>[INST] U2 [/INST]",
		},
		{
			name:  "system only",
			turns: []llm.Message{{Role: llm.RoleSystem, Content: "S"}},
			want:  "[INST] <<SYS>>\nS\n<</SYS>>\n\n [/INST]",
		},
		{
			name:  "consecutive users merge",
			turns: []llm.Message{{Role: llm.RoleUser, Content: "a"}, {Role: llm.RoleUser, Content: "b"}},
			want:  "[INST] a\n\nb [/INST]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInstructPrompt(tt.turns))
		})
	}
}

func TestOllamaProviderChatSendsRawPrompt(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Model: "llama2", Response: " ตอบ ", Done: true})
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "", 256, 3900, 0.7)
	out, err := provider.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "S"},
		{Role: llm.RoleUser, Content: "U"},
	})

	require.NoError(t, err)
	assert.Equal(t, " ตอบ ", out)
	assert.Equal(t, DefaultModel, got.Model)
	assert.True(t, got.Raw)
	assert.False(t, got.Stream)
	assert.Equal(t, "[INST] <<SYS>>\nS\n<</SYS>>\n\nU [/INST]", got.Prompt)
	require.NotNil(t, got.Options)
	assert.Equal(t, 256, got.Options.NumPredict)
	assert.Equal(t, 3900, got.Options.NumCtx)
}

func TestOllamaProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama2' not found"}`))
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama2", 0, 0, 0.7)

	_, err := provider.Generate(context.Background(), "[INST] hi [/INST]")
	assert.ErrorContains(t, err, "status 404")

	assert.Error(t, provider.ShowModel(context.Background()))
}
