package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/schoolpulse/api/utils/cache"
	"github.com/schoolpulse/api/utils/response"
)

// BruteForceProtection tracks failed login attempts per IP and applies
// progressive lockouts through redis counters.
type BruteForceProtection struct {
	cache *cache.RedisCache
}

func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{cache: redisCache}
}

const (
	attemptKeyPrefix = "brute_force:attempts:"
	lockKeyPrefix    = "brute_force:lock:"

	attemptWindow = 15 * time.Minute

	softLimit   = 5
	mediumLimit = 10
	hardLimit   = 25

	softLockout   = 2 * time.Minute
	mediumLockout = 1 * time.Hour
	hardLockout   = 24 * time.Hour
)

// CheckAndRecordAttempt blocks locked IPs before the login handler runs.
func (bf *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if bf.cache == nil {
			return c.Next()
		}

		ip := c.IP()
		locked, err := bf.IsIPLocked(c.Context(), ip)
		if err == nil && locked {
			if remaining, err := bf.LockRemaining(c.Context(), ip); err == nil && remaining > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(remaining.Seconds())+1))
			}
			return response.TooManyRequests(c, "Too many failed login attempts. Please try again later.")
		}
		return c.Next()
	}
}

// RecordFailedAttempt increments the attempt counter for the IP and
// applies a lockout when a threshold is crossed.
func (bf *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip string) error {
	if bf.cache == nil {
		return nil
	}

	key := attemptKeyPrefix + ip
	count, err := bf.cache.Incr(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	if count == 1 {
		if err := bf.cache.Expire(ctx, key, attemptWindow); err != nil {
			return fmt.Errorf("failed to set attempt window: %w", err)
		}
	}

	var lockout time.Duration
	switch {
	case count >= hardLimit:
		lockout = hardLockout
	case count >= mediumLimit:
		lockout = mediumLockout
	case count >= softLimit:
		lockout = softLockout
	default:
		return nil
	}

	lockKey := lockKeyPrefix + ip
	if err := bf.cache.Set(ctx, lockKey, "locked", lockout); err != nil {
		return fmt.Errorf("failed to lock IP: %w", err)
	}
	return nil
}

// RecordSuccessfulAttempt clears counters after a successful login.
func (bf *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip string) error {
	if bf.cache == nil {
		return nil
	}
	return bf.ClearAttempts(ctx, ip)
}

func (bf *BruteForceProtection) IsIPLocked(ctx context.Context, ip string) (bool, error) {
	if bf.cache == nil {
		return false, nil
	}
	return bf.cache.Exists(ctx, lockKeyPrefix+ip)
}

// LockRemaining reports how long the IP stays locked out.
func (bf *BruteForceProtection) LockRemaining(ctx context.Context, ip string) (time.Duration, error) {
	if bf.cache == nil {
		return 0, nil
	}
	return bf.cache.TTL(ctx, lockKeyPrefix+ip)
}

func (bf *BruteForceProtection) GetAttemptCount(ctx context.Context, ip string) (int64, error) {
	if bf.cache == nil {
		return 0, nil
	}
	val, err := bf.cache.Get(ctx, attemptKeyPrefix+ip)
	if err != nil {
		if err == cache.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	var count int64
	if _, err := fmt.Sscanf(val, "%d", &count); err != nil {
		return 0, fmt.Errorf("failed to parse attempt count: %w", err)
	}
	return count, nil
}

func (bf *BruteForceProtection) ClearAttempts(ctx context.Context, ip string) error {
	if err := bf.cache.Delete(ctx, attemptKeyPrefix+ip); err != nil {
		return err
	}
	return bf.cache.Delete(ctx, lockKeyPrefix+ip)
}
