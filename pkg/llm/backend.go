package llm

import (
	"context"
	"errors"
)

// BackendKind tags which generation backend is active for the process.
type BackendKind string

const (
	BackendHosted      BackendKind = "hosted"
	BackendLocal       BackendKind = "local"
	BackendUnavailable BackendKind = "unavailable"
)

var ErrBackendUnavailable = errors.New("generation backend unavailable")

// Backend is the generation backend selected once at startup. It is a value
// type and never changes after construction.
type Backend struct {
	kind     BackendKind
	provider LLMProvider
}

func NewHostedBackend(provider LLMProvider) Backend {
	return newBackend(BackendHosted, provider)
}

func NewLocalBackend(provider LLMProvider) Backend {
	return newBackend(BackendLocal, provider)
}

func UnavailableBackend() Backend {
	return Backend{kind: BackendUnavailable}
}

func newBackend(kind BackendKind, provider LLMProvider) Backend {
	if provider == nil {
		return UnavailableBackend()
	}
	return Backend{kind: kind, provider: provider}
}

func (b Backend) Kind() BackendKind {
	if b.kind == "" {
		return BackendUnavailable
	}
	return b.kind
}

func (b Backend) Available() bool {
	return b.Kind() != BackendUnavailable
}

// SupportsConversation reports whether sessions can keep a conversational engine.
// Both real arms accept multi-turn input; the local arm flattens it into one prompt.
func (b Backend) SupportsConversation() bool {
	return b.Available()
}

// Generate sends turns to the active provider.
func (b Backend) Generate(ctx context.Context, turns []Message, opts ...Option) (string, error) {
	if !b.Available() {
		return "", ErrBackendUnavailable
	}
	return b.provider.Chat(ctx, turns, opts...)
}
