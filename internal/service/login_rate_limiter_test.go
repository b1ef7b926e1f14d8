package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestLoginRateLimiterAllow(t *testing.T) {
	t.Run("within max", func(t *testing.T) {
		l := NewLoginRateLimiter(time.Minute, 2)
		if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
			t.Fatalf("expected first two hits allowed")
		}
		if l.Allow("10.0.0.1") {
			t.Fatalf("expected third hit blocked")
		}
	})

	t.Run("keys independent", func(t *testing.T) {
		l := NewLoginRateLimiter(time.Minute, 1)
		if !l.Allow("10.0.0.1") {
			t.Fatalf("first key blocked")
		}
		if !l.Allow("10.0.0.2") {
			t.Fatalf("second key blocked by first")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := NewLoginRateLimiter(time.Minute, 3)
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})
}

func TestRedisLoginRateLimiterAllow(t *testing.T) {
	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisLoginRateLimiter{client: mock, window: time.Minute, max: 3, prefix: "login:rl:"}
		if !l.Allow("10.0.0.1") {
			t.Fatalf("expected allow")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "login:rl:10.0.0.1" {
			t.Fatalf("keys = %v", mock.lastKeys)
		}
	})

	t.Run("block when over max", func(t *testing.T) {
		l := &redisLoginRateLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "login:rl:"}
		if l.Allow("10.0.0.1") {
			t.Fatalf("expected block")
		}
	})

	t.Run("fail-open on redis error", func(t *testing.T) {
		l := &redisLoginRateLimiter{client: &mockRedisEvaler{err: errors.New("down")}, window: time.Minute, max: 1, prefix: "login:rl:"}
		if !l.Allow("10.0.0.1") {
			t.Fatalf("expected fail-open")
		}
	})
}
