package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
)

// ErrRateLimited se devuelve cuando el usuario excede el cupo de generaciones.
var ErrRateLimited = errors.New("too many recommendation requests")

// RateLimitError lleva cuánto falta para que se abra la siguiente ventana.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// GenerationQuota es el resultado de reservar una generación.
type GenerationQuota struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// GenerationLimiter reserva una generación de recomendaciones para userID.
type GenerationLimiter interface {
	Reserve(ctx context.Context, userID string) (GenerationQuota, error)
}

// Devuelve {contador, ttl restante en segundos}.
const generationReserveScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisGenerationLimiter cuenta generaciones por usuario en ventanas fijas. Si Redis falla deja pasar.
type RedisGenerationLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisGenerationLimiter(client *redis.Client, window time.Duration, max int, logger *zap.Logger) *RedisGenerationLimiter {
	return newGenerationLimiter(client, window, max, logger)
}

func newGenerationLimiter(client redisEvaler, window time.Duration, max int, logger *zap.Logger) *RedisGenerationLimiter {
	if window < time.Second {
		window = time.Hour
	}
	if max <= 0 {
		max = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisGenerationLimiter{
		client: client,
		window: window,
		max:    max,
		logger: logger,
		now:    time.Now,
	}
}

func (l *RedisGenerationLimiter) Reserve(ctx context.Context, userID string) (GenerationQuota, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return GenerationQuota{}, fmt.Errorf("%w: user id %q", domain.ErrValidation, userID)
	}

	windowSeconds := int64(l.window / time.Second)
	bucket := l.now().Unix() / windowSeconds
	key := "career-advisor:recgen:" + id.String() + ":" + strconv.FormatInt(bucket, 10)

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	vals, err := l.client.Eval(ctx, generationReserveScript, []string{key}, windowSeconds).Int64Slice()
	if err != nil || len(vals) != 2 {
		l.logger.Warn("generation limiter unavailable, allowing request",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return GenerationQuota{Allowed: true, Remaining: l.max - 1}, nil
	}

	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Second
	if ttl <= 0 {
		ttl = l.window
	}
	if count > l.max {
		return GenerationQuota{Allowed: false, RetryAfter: ttl}, nil
	}
	return GenerationQuota{Allowed: true, Remaining: l.max - count}, nil
}
