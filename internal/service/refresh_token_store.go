package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshTokenStore guarda las sesiones de refresh vigentes de cada usuario.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID, jti string, ttl time.Duration) error
	// Consume borra la sesión y devuelve si existía. Es atómico: un refresh token rota una sola vez.
	Consume(ctx context.Context, userID, jti string) (bool, error)
	Revoke(ctx context.Context, userID, jti string) error
}

func refreshSessionKey(userID, jti string) string {
	userID, jti = strings.TrimSpace(userID), strings.TrimSpace(jti)
	if userID == "" || jti == "" {
		return ""
	}
	return "career-advisor:refresh:" + userID + ":" + jti
}

type memoryRefreshTokenStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemoryRefreshTokenStore sirve para una sola instancia o sin Redis; las sesiones no sobreviven un reinicio.
func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *memoryRefreshTokenStore) Save(_ context.Context, userID, jti string, ttl time.Duration) error {
	key := refreshSessionKey(userID, jti)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = s.now().Add(ttl)
	return nil
}

func (s *memoryRefreshTokenStore) Consume(_ context.Context, userID, jti string) (bool, error) {
	key := refreshSessionKey(userID, jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[key]
	if !ok {
		return false, nil
	}
	delete(s.sessions, key)
	return s.now().Before(exp), nil
}

func (s *memoryRefreshTokenStore) Revoke(_ context.Context, userID, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, refreshSessionKey(userID, jti))
	return nil
}

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisRefreshTokenStore struct {
	client  redisKV
	timeout time.Duration
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	return &redisRefreshTokenStore{client: client, timeout: 500 * time.Millisecond}
}

func (s *redisRefreshTokenStore) Save(ctx context.Context, userID, jti string, ttl time.Duration) error {
	key := refreshSessionKey(userID, jti)
	if key == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, key, time.Now().UTC().Unix(), ttl).Err()
}

func (s *redisRefreshTokenStore) Consume(ctx context.Context, userID, jti string) (bool, error) {
	key := refreshSessionKey(userID, jti)
	if key == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	// DEL devuelve 1 sólo a quien efectivamente borró la clave.
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *redisRefreshTokenStore) Revoke(ctx context.Context, userID, jti string) error {
	key := refreshSessionKey(userID, jti)
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, key).Err()
}
