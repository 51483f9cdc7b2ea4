package response

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply string
	err   error
	calls int
	last  []llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	p.calls++
	p.last = history
	return p.reply, p.err
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.reply, p.err
}

func twoDocs() []store.RetrievedContext {
	return []store.RetrievedContext{
		{ThreadId: 1, Topic: "ปวดหัวเรื้อรัง", Question: "ปวดหัวบ่อย", Answer: strings.Repeat("ก", 350)},
		{ThreadId: 2, Question: "ปวดหัวตอนเช้า", Answer: "ดื่มน้ำให้เพียงพอ"},
	}
}

func TestSynthesizeEmptyContextsIsApology(t *testing.T) {
	provider := &scriptedProvider{reply: "should not be used"}
	backends := []llm.Backend{
		llm.NewHostedBackend(provider),
		llm.NewLocalBackend(provider),
		llm.UnavailableBackend(),
	}

	for _, b := range backends {
		out := NewSynthesizer(b, logger.NewNopLogger(), nil).Synthesize(context.Background(), "อะไรก็ได้", nil)
		assert.Equal(t, ApologyMessage, out.Answer)
		assert.Equal(t, PathApology, out.Path)
	}
	assert.Zero(t, provider.calls)
}

func TestSynthesizeGenerated(t *testing.T) {
	provider := &scriptedProvider{reply: "  ควรพักผ่อนให้เพียงพอ \n"}
	s := NewSynthesizer(llm.NewHostedBackend(provider), logger.NewNopLogger(), nil)

	out := s.Synthesize(context.Background(), "ปวดหัว", twoDocs())

	assert.Equal(t, PathGenerated, out.Path)
	assert.Equal(t, "ควรพักผ่อนให้เพียงพอ", out.Answer)
	require.Len(t, provider.last, 2)
	assert.Contains(t, provider.last[1].Content, "--- Q&A 2 ---")
}

func TestSynthesizeDegradesToTemplate(t *testing.T) {
	tests := []struct {
		name    string
		backend llm.Backend
	}{
		{name: "unavailable", backend: llm.UnavailableBackend()},
		{name: "backend error", backend: llm.NewLocalBackend(&scriptedProvider{err: errors.New("timeout")})},
		{name: "empty output", backend: llm.NewHostedBackend(&scriptedProvider{reply: "  "})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewSynthesizer(tt.backend, logger.NewNopLogger(), nil).Synthesize(context.Background(), "ปวดหัว", twoDocs())
			assert.Equal(t, PathTemplated, out.Path)
			assert.Equal(t, FormatFallback("ปวดหัว", twoDocs()), out.Answer)
		})
	}
}

func TestFormatFallback(t *testing.T) {
	got := FormatFallback("ปวดหัวบ่อยควรทำอย่างไร", twoDocs())

	want := strings.Join([]string{
		"จากข้อมูลที่เกี่ยวข้องกับคำถาม: ปวดหัวบ่อยควรทำอย่างไร\n",
		"\n1. ปวดหัวเรื้อรัง",
		"   " + strings.Repeat("ก", 300) + "...",
		"\n2. ปวดหัวตอนเช้า",
		"   ดื่มน้ำให้เพียงพอ",
		"\n\nหมายเหตุ: นี่คือข้อมูลจากฐานข้อมูล Q&A สำหรับคำตอบที่ละเอียดกว่านี้ ควรปรึกษาแพทย์โดยตรง",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatFallbackCapsAtThreeAndSkipsEmptyAnswer(t *testing.T) {
	contexts := []store.RetrievedContext{
		{Topic: "a"}, {Topic: "b"}, {Topic: "c"}, {Topic: "d"},
	}

	got := FormatFallback("q", contexts)

	assert.Contains(t, got, "\n3. c")
	assert.NotContains(t, got, "4. d")
	assert.NotContains(t, got, "   ")
}

func TestPreview(t *testing.T) {
	exact := strings.Repeat("ข", 300)
	assert.Equal(t, exact, Preview(exact))

	long := Preview(strings.Repeat("ข", 301))
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Equal(t, 303, utf8.RuneCountInString(long))
}
