package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ResetThrottle implements ports.ResetThrottle with one SET NX key per e-mail address.
type ResetThrottle struct {
	client goredis.Cmdable
	prefix string
}

// NewResetThrottle creates a Redis-backed forgot-password throttle.
func NewResetThrottle(client goredis.Cmdable) *ResetThrottle {
	return &ResetThrottle{
		client: client,
		prefix: "reset_throttle:",
	}
}

// Acquire reports whether a reset e-mail may be sent to email now. The slot is
// held for cooldown; addresses are compared case-insensitively.
func (t *ResetThrottle) Acquire(ctx context.Context, email string, cooldown time.Duration) (bool, error) {
	if cooldown <= 0 {
		return true, nil
	}

	key := t.prefix + strings.ToLower(strings.TrimSpace(email))
	result, err := t.client.SetArgs(ctx, key, time.Now().Unix(), goredis.SetArgs{
		Mode: "NX",
		TTL:  cooldown,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis reset throttle: %w", err)
	}
	return result == "OK", nil
}
