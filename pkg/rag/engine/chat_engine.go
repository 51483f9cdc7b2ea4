package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/memory"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/prompt"
	"github.com/Natthaphatpiw/agn-chat/pkg/rag/search"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"
)

var ErrEmptyAnswer = errors.New("backend returned an empty answer")

// Retriever is the retrieval capability the engine grounds each turn on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*search.Retrieval, error)
}

// ChatEngine answers one session's turns using retrieved context and the
// session memory. Callers serialize access through the session lock.
type ChatEngine struct {
	backend   llm.Backend
	retriever Retriever
	memory    *memory.Buffer
}

var _ store.ConversationEngine = (*ChatEngine)(nil)

func NewChatEngine(backend llm.Backend, retriever Retriever, mem *memory.Buffer) *ChatEngine {
	return &ChatEngine{backend: backend, retriever: retriever, memory: mem}
}

// Chat generates an answer and records the exchange. On any failure the
// memory is left as it was.
func (e *ChatEngine) Chat(ctx context.Context, query string, topK int) (string, error) {
	retrieval, err := e.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return "", err
	}

	history := e.memory.Messages()
	turns := make([]llm.Message, 0, len(history)+2)
	turns = append(turns, llm.Message{Role: llm.RoleSystem, Content: prompt.ConversationSystemPrompt(retrieval.Contexts)})
	turns = append(turns, history...)
	turns = append(turns, llm.Message{Role: llm.RoleUser, Content: query})

	out, err := e.backend.Generate(ctx, turns)
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(out)
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	e.memory.Put(
		llm.Message{Role: llm.RoleUser, Content: query},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)
	return answer, nil
}

func (e *ChatEngine) History() []llm.Message {
	return e.memory.Messages()
}
