package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type SessionStore interface {
	Put(ctx context.Context, token string, id Identity, ttl time.Duration) error
	// Get: ok=false kalau token tidak ada atau sudah expired.
	Get(ctx context.Context, token string) (id Identity, ok bool, err error)
	Delete(ctx context.Context, token string) error
}

type RedisSessions struct {
	Redis redis.Cmdable
}

func sessionKey(token string) string { return fmt.Sprintf(redisx.KeySession, token) }

func (s *RedisSessions) Put(ctx context.Context, token string, id Identity, ttl time.Duration) error {
	return redisx.SetJSON(ctx, s.Redis, sessionKey(token), id, ttl)
}

func (s *RedisSessions) Get(ctx context.Context, token string) (Identity, bool, error) {
	var id Identity
	ok, err := redisx.GetJSON(ctx, s.Redis, sessionKey(token), &id)
	return id, ok, err
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	return s.Redis.Del(ctx, sessionKey(token)).Err()
}

type memSession struct {
	id      Identity
	expires time.Time
}

type MemSessions struct {
	mu  sync.Mutex
	m   map[string]memSession
	Now func() time.Time
}

func NewMemSessions() *MemSessions {
	return &MemSessions{m: map[string]memSession{}, Now: time.Now}
}

func (s *MemSessions) Put(_ context.Context, token string, id Identity, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[token] = memSession{id: id, expires: s.Now().Add(ttl)}
	return nil
}

func (s *MemSessions) Get(_ context.Context, token string) (Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[token]
	if !ok {
		return Identity{}, false, nil
	}
	if !s.Now().Before(sess.expires) {
		delete(s.m, token)
		return Identity{}, false, nil
	}
	return sess.id, true, nil
}

func (s *MemSessions) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, token)
	return nil
}
