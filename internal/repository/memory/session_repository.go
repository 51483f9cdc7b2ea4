package memory

import (
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process session arena. Entries never expire on
// their own; idle sessions are removed only by an explicit sweep.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Add stores session unless the id is taken. It reports whether it was stored.
func (r *SessionRepository) Add(session *store.Session) bool {
	return r.cache.Add(session.ID, session, cache.NoExpiration) == nil
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// Remove deletes the entry only if it still maps to session.
func (r *SessionRepository) Remove(session *store.Session) {
	if current, ok := r.Get(session.ID); ok && current == session {
		r.cache.Delete(session.ID)
	}
}

func (r *SessionRepository) All() []*store.Session {
	items := r.cache.Items()
	sessions := make([]*store.Session, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*store.Session))
	}
	return sessions
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
