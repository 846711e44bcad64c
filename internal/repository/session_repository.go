package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepo records which session ids are live.  A signed token is only
// honoured while its id is present, so logout and account removal take
// effect on the next request.
type SessionRepo interface {
	Store(ctx context.Context, id, username string, ttl time.Duration) error
	Valid(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, username string) error
}

// RedisSessionRepo keeps one key per session plus a set of session ids per
// user for bulk revocation.  A zero ttl stores the session without expiry.
type RedisSessionRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSessionRepo(rdb *redis.Client, prefix string) *RedisSessionRepo {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisSessionRepo{rdb: rdb, prefix: prefix}
}

func (r *RedisSessionRepo) sessionKey(id string) string { return r.prefix + ":id:" + id }

func (r *RedisSessionRepo) userKey(username string) string { return r.prefix + ":user:" + username }

// Store registers a new session id for username.
func (r *RedisSessionRepo) Store(ctx context.Context, id, username string, ttl time.Duration) error {
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, r.sessionKey(id), username, ttl)
	pipe.SAdd(ctx, r.userKey(username), id)
	if ttl > 0 {
		pipe.Expire(ctx, r.userKey(username), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Valid reports whether the session id is registered and unexpired.
func (r *RedisSessionRepo) Valid(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke removes a single session.
func (r *RedisSessionRepo) Revoke(ctx context.Context, id string) error {
	key := r.sessionKey(id)
	username, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, r.userKey(username), id)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAllForUser removes every session of username.
func (r *RedisSessionRepo) RevokeAllForUser(ctx context.Context, username string) error {
	ukey := r.userKey(username)
	ids, err := r.rdb.SMembers(ctx, ukey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}
	keys = append(keys, ukey)
	return r.rdb.Del(ctx, keys...).Err()
}

// MemorySessionRepo is the single-process registry used when Redis is not
// reachable.  Sessions do not survive a restart.
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]memSession
	now      func() time.Time
}

type memSession struct {
	username string
	expires  time.Time // zero means no expiry
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]memSession), now: time.Now}
}

func (r *MemorySessionRepo) Store(_ context.Context, id, username string, ttl time.Duration) error {
	s := memSession{username: username}
	if ttl > 0 {
		s.expires = r.now().Add(ttl)
	}
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepo) Valid(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.expires.IsZero() && r.now().After(s.expires) {
		delete(r.sessions, id)
		return false, nil
	}
	return true, nil
}

func (r *MemorySessionRepo) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepo) RevokeAllForUser(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.username == username {
			delete(r.sessions, id)
		}
	}
	return nil
}
