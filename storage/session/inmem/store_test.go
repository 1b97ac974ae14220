package inmemsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core/session"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	st := NewStore()

	sess := session.New(time.Hour)
	sess.SetTokens("tok", "ref")
	sess.Role = "student"
	require.NoError(t, st.Save(ctx, sess))

	got, err := st.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.AccessToken)
	assert.Equal(t, "student", got.Role)

	_, err = st.Get(ctx, "unknown")
	assert.Equal(t, session.ErrNotFound, err)

	require.NoError(t, st.Delete(ctx, sess.ID))
	_, err = st.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrNotFound, err)
}

func TestStore_expired(t *testing.T) {
	ctx := context.Background()
	st := NewStore().(*store)

	sess := session.New(time.Minute)
	require.NoError(t, st.Save(ctx, sess))

	st.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := st.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrNotFound, err)

	st.now = time.Now
	_, err = st.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrNotFound, err, "expired sessions are dropped")
}

func TestStore_saveDropsExpired(t *testing.T) {
	ctx := context.Background()
	st := NewStore().(*store)

	stale := session.New(time.Minute)
	require.NoError(t, st.Save(ctx, stale))

	st.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	fresh := session.New(time.Hour)
	fresh.ExpiresAt = st.now().Add(time.Hour)
	require.NoError(t, st.Save(ctx, fresh))

	assert.Len(t, st.table, 1)
	_, ok := st.table[stale.ID]
	assert.False(t, ok, "abandoned session swept")
	_, ok = st.table[fresh.ID]
	assert.True(t, ok)
}
