package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
)

// ConversationEngine answers a query using the session's memory.
type ConversationEngine interface {
	Chat(ctx context.Context, query string, topK int) (string, error)
	History() []llm.Message
}

// Session is one entry of the session arena. Holders of the lock have
// exclusive use of Engine; a closed session must not be used again.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	lastActive atomic.Int64
	closed     bool
	engine     ConversationEngine
}

func NewSession(id string, now time.Time) *Session {
	s := &Session{ID: id, CreatedAt: now}
	s.lastActive.Store(now.UnixNano())
	return s
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity. Safe without the lock.
func (s *Session) Touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// IdleSince reports whether the session has been inactive for at least maxAge.
func (s *Session) IdleSince(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastActive()) >= maxAge
}

// The methods below require the lock.

func (s *Session) Closed() bool { return s.closed }

// Close drops the engine and its memory.
func (s *Session) Close() {
	s.closed = true
	s.engine = nil
}

func (s *Session) Engine() ConversationEngine { return s.engine }

func (s *Session) SetEngine(e ConversationEngine) { s.engine = e }
