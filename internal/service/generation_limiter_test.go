package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
)

// fakeEvaler devuelve results en orden; el último se repite.
type fakeEvaler struct {
	results [][]int64
	err     error
	keys    []string
	args    []interface{}
}

func (e *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	e.keys = append(e.keys, keys...)
	e.args = args
	cmd := redis.NewCmd(ctx)
	if e.err != nil {
		cmd.SetErr(e.err)
		return cmd
	}
	res := e.results[0]
	if len(e.results) > 1 {
		e.results = e.results[1:]
	}
	vals := make([]interface{}, 0, len(res))
	for _, v := range res {
		vals = append(vals, v)
	}
	cmd.SetVal(vals)
	return cmd
}

func fixedLimiter(evaler *fakeEvaler, max int) *RedisGenerationLimiter {
	l := newGenerationLimiter(evaler, time.Hour, max, zap.NewNop())
	l.now = func() time.Time { return time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC) }
	return l
}

func TestGenerationLimiterReserve(t *testing.T) {
	userID := testID(kindUser, 1)

	t.Run("within quota", func(t *testing.T) {
		evaler := &fakeEvaler{results: [][]int64{{2, 2700}}}
		quota, err := fixedLimiter(evaler, 3).Reserve(context.Background(), userID)
		if err != nil || !quota.Allowed || quota.Remaining != 1 {
			t.Fatalf("unexpected quota %+v, %v", quota, err)
		}
		bucket := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC).Unix() / 3600
		want := "career-advisor:recgen:" + userID + ":" + strconv.FormatInt(bucket, 10)
		if len(evaler.keys) != 1 || evaler.keys[0] != want {
			t.Fatalf("expected key %q, got %v", want, evaler.keys)
		}
		if len(evaler.args) != 1 || evaler.args[0] != int64(3600) {
			t.Fatalf("expected window seconds 3600, got %v", evaler.args)
		}
	})

	t.Run("over quota reports retry", func(t *testing.T) {
		evaler := &fakeEvaler{results: [][]int64{{4, 900}}}
		quota, err := fixedLimiter(evaler, 3).Reserve(context.Background(), userID)
		if err != nil || quota.Allowed || quota.RetryAfter != 15*time.Minute {
			t.Fatalf("unexpected quota %+v, %v", quota, err)
		}
	})

	t.Run("uppercase user id shares the key", func(t *testing.T) {
		evaler := &fakeEvaler{results: [][]int64{{1, 3600}}}
		l := fixedLimiter(evaler, 3)
		if _, err := l.Reserve(context.Background(), strings.ToUpper(userID)); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if _, err := l.Reserve(context.Background(), userID); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if evaler.keys[0] != evaler.keys[1] {
			t.Fatalf("expected canonical key, got %v", evaler.keys)
		}
	})

	t.Run("malformed user id", func(t *testing.T) {
		_, err := fixedLimiter(&fakeEvaler{results: [][]int64{{1, 60}}}, 3).Reserve(context.Background(), "user-1")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("redis down allows", func(t *testing.T) {
		evaler := &fakeEvaler{err: errors.New("connection refused")}
		quota, err := fixedLimiter(evaler, 3).Reserve(context.Background(), userID)
		if err != nil || !quota.Allowed {
			t.Fatalf("expected fail-open, got %+v, %v", quota, err)
		}
	})
}
