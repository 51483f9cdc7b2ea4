package memory

import (
	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
)

// per-turn framing overhead, matching the chat format accounting
const turnOverhead = 4

// Buffer is a token-bounded conversation memory. Not safe for concurrent use;
// callers hold the owning session's lock.
type Buffer struct {
	turns      []llm.Message
	sizes      []int
	total      int
	tokenLimit int
	counter    TokenCounter
}

func NewBuffer(tokenLimit int, counter TokenCounter) *Buffer {
	if counter == nil {
		counter = RuneCounter{}
	}
	return &Buffer{tokenLimit: tokenLimit, counter: counter}
}

// Put appends turns and then drops the oldest until the buffer fits the
// budget. The newest turn is always kept, and history never starts with an
// assistant turn.
func (b *Buffer) Put(turns ...llm.Message) {
	for _, t := range turns {
		size := b.counter.Count(t.Content) + turnOverhead
		b.turns = append(b.turns, t)
		b.sizes = append(b.sizes, size)
		b.total += size
	}

	for len(b.turns) > 1 && b.tokenLimit > 0 && b.total > b.tokenLimit {
		b.dropOldest()
	}
	for len(b.turns) > 1 && b.turns[0].Role == llm.RoleAssistant {
		b.dropOldest()
	}
}

func (b *Buffer) dropOldest() {
	b.total -= b.sizes[0]
	b.turns = b.turns[1:]
	b.sizes = b.sizes[1:]
}

// Messages returns a copy of the retained turns, oldest first.
func (b *Buffer) Messages() []llm.Message {
	out := make([]llm.Message, len(b.turns))
	copy(out, b.turns)
	return out
}

func (b *Buffer) Len() int { return len(b.turns) }

func (b *Buffer) Tokens() int { return b.total }

func (b *Buffer) Reset() {
	b.turns = nil
	b.sizes = nil
	b.total = 0
}
