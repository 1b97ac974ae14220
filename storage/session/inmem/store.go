package inmemsession

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/classboard/core/session"
)

type store struct {
	mutex sync.RWMutex
	table map[string]session.Session
	now   func() time.Time
}

var _ session.Store = (*store)(nil)

func NewStore() session.Store {
	return &store{
		table: make(map[string]session.Session),
		now:   time.Now,
	}
}

func expired(sess session.Session, now time.Time) bool {
	return !sess.ExpiresAt.IsZero() && !now.Before(sess.ExpiresAt)
}

func (st *store) Get(_ context.Context, id string) (session.Session, error) {
	st.mutex.RLock()
	sess, ok := st.table[id]
	st.mutex.RUnlock()

	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if expired(sess, st.now()) {
		_ = st.Delete(context.Background(), id)
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

// Save also drops the sessions that expired without being read again.
func (st *store) Save(_ context.Context, sess session.Session) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	now := st.now()
	for id, other := range st.table {
		if expired(other, now) {
			delete(st.table, id)
		}
	}
	banners := make([]session.Banner, len(sess.Banners))
	copy(banners, sess.Banners)
	sess.Banners = banners
	st.table[sess.ID] = sess
	return nil
}

func (st *store) Delete(_ context.Context, id string) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	delete(st.table, id)
	return nil
}
