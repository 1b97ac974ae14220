package redisstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
)

const keyPrefix = "classboard:session:"

type store struct {
	rds *redis.Client
}

var _ session.Store = (*store)(nil)

// NewClient opens the redis connection configured for sessions.
func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Session.RedisAddr,
		Password: conf.Session.RedisPassword,
		DB:       conf.Session.RedisDB,
	})
}

// NewStore keeps sessions as JSON values that expire with the session.
func NewStore(rds *redis.Client) session.Store {
	return &store{rds: rds}
}

func (st *store) buildKey(id string) string {
	return keyPrefix + id
}

func (st *store) Get(ctx context.Context, id string) (session.Session, error) {
	data, err := st.rds.Get(ctx, st.buildKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}

	var sess session.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "unmarshalling session")
	}
	if sess.Expired() {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (st *store) Save(ctx context.Context, sess session.Session) error {
	ttl := sess.TTL()
	if ttl == 0 {
		return st.Delete(ctx, sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "marshalling session")
	}
	return errors.Wrap(st.rds.Set(ctx, st.buildKey(sess.ID), data, ttl).Err(), "saving session")
}

func (st *store) Delete(ctx context.Context, id string) error {
	return errors.Wrap(st.rds.Del(ctx, st.buildKey(id)).Err(), "deleting session")
}
