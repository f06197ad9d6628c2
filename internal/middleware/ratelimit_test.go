package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests under the limit", func(t *testing.T) {
		rl := NewRateLimiter()

		for i := 0; i < 5; i++ {
			allowed, _, _ := rl.Check("user-1", 5)
			assert.True(t, allowed, "request %d should be allowed", i)
		}
	})

	t.Run("blocks requests over the limit", func(t *testing.T) {
		rl := NewRateLimiter()

		for i := 0; i < 3; i++ {
			rl.Check("user-1", 3)
		}
		allowed, remaining, _ := rl.Check("user-1", 3)

		assert.False(t, allowed)
		assert.Zero(t, remaining)
	})

	t.Run("tracks users independently", func(t *testing.T) {
		rl := NewRateLimiter()

		for i := 0; i < 3; i++ {
			rl.Check("user-1", 3)
		}
		allowed, _, _ := rl.Check("user-2", 3)

		assert.True(t, allowed)
	})

	t.Run("reports remaining budget", func(t *testing.T) {
		rl := NewRateLimiter()

		_, remaining, _ := rl.Check("user-1", 10)
		assert.Equal(t, 9, remaining)

		_, remaining, _ = rl.Check("user-1", 10)
		assert.Equal(t, 8, remaining)
	})
}

func TestRedisRateLimiterFallback(t *testing.T) {
	t.Run("enforces the limit in process when redis is unreachable", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		rl := NewRedisRateLimiter(client)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			allowed, _, _ := rl.Check(ctx, "user-1", 3)
			assert.True(t, allowed, "request %d should be allowed", i)
		}

		allowed, remaining, _ := rl.Check(ctx, "user-1", 3)
		assert.False(t, allowed)
		assert.Zero(t, remaining)
	})
}

func TestLoginRateLimiter(t *testing.T) {
	t.Run("blocks after max attempts from one address", func(t *testing.T) {
		l := NewLoginRateLimiter()

		for i := 0; i < loginMaxAttempts; i++ {
			assert.True(t, l.isAllowed("10.0.0.1"))
		}
		assert.False(t, l.isAllowed("10.0.0.1"))
	})

	t.Run("other addresses are unaffected", func(t *testing.T) {
		l := NewLoginRateLimiter()

		for i := 0; i < loginMaxAttempts+1; i++ {
			l.isAllowed("10.0.0.1")
		}
		assert.True(t, l.isAllowed("10.0.0.2"))
	})
}
