package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request from the given client IP may proceed.
// When it may not, the second return value is a user-facing reason.
type Limiter interface {
	Allow(ip string) (bool, string)
}

// MemoryLimiter enforces a per-minute and a per-day cap per IP with
// in-process state. Good enough for a single replica; use RedisLimiter
// when running more than one.
type MemoryLimiter struct {
	mu          sync.Mutex
	perMinute   int
	perDay      int
	ipData      map[string]*ipRecord
	lastCleanup time.Time
	now         func() time.Time
}

type ipRecord struct {
	requests     []time.Time
	firstRequest time.Time
	dailyCount   int
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(perMinute, perDay int) *MemoryLimiter {
	return &MemoryLimiter{
		perMinute: perMinute,
		perDay:    perDay,
		ipData:    make(map[string]*ipRecord),
		now:       time.Now,
	}
}

// Allow records the request when permitted.
func (l *MemoryLimiter) Allow(ip string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	rec, ok := l.ipData[ip]
	if !ok {
		rec = &ipRecord{firstRequest: now}
		l.ipData[ip] = rec
	}
	if now.Sub(rec.firstRequest) >= 24*time.Hour {
		rec.firstRequest = now
		rec.dailyCount = 0
	}

	minuteAgo := now.Add(-time.Minute)
	kept := rec.requests[:0]
	for _, ts := range rec.requests {
		if ts.After(minuteAgo) {
			kept = append(kept, ts)
		}
	}
	rec.requests = kept

	if len(rec.requests) >= l.perMinute {
		wait := time.Minute - now.Sub(rec.requests[0])
		return false, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", int(wait.Seconds())+1)
	}
	if rec.dailyCount >= l.perDay {
		nextReset := rec.firstRequest.Add(24 * time.Hour)
		hours := int(nextReset.Sub(now).Hours())
		if hours < 1 {
			hours = 1
		}
		return false, fmt.Sprintf("Daily limit reached. Try again in %d hours.", hours)
	}

	rec.requests = append(rec.requests, now)
	rec.dailyCount++
	return true, ""
}

// cleanup drops records idle for more than a day so the map cannot grow
// without bound. Runs at most once an hour.
func (l *MemoryLimiter) cleanup(now time.Time) {
	if !l.lastCleanup.IsZero() && now.Sub(l.lastCleanup) < time.Hour {
		return
	}
	cutoff := now.Add(-24 * time.Hour)
	for ip, rec := range l.ipData {
		if len(rec.requests) == 0 || rec.requests[len(rec.requests)-1].Before(cutoff) {
			delete(l.ipData, ip)
		}
	}
	l.lastCleanup = now
}

// RedisLimiter keeps the counters in Redis so the caps hold across
// replicas. Counters are windowed by key: one key per IP per minute and
// one per IP per day, expired by Redis itself.
type RedisLimiter struct {
	rdb       *redis.Client
	perMinute int
	perDay    int
	logger    *log.Logger
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(rdb *redis.Client, perMinute, perDay int, logger *log.Logger) *RedisLimiter {
	if logger == nil {
		logger = log.New(log.Writer(), "[RATE] ", log.LstdFlags)
	}
	return &RedisLimiter{rdb: rdb, perMinute: perMinute, perDay: perDay, logger: logger}
}

// Allow increments the minute and day counters for ip. Redis being down
// fails open: a portfolio chat outage is worse than a few extra requests.
func (l *RedisLimiter) Allow(ip string) (bool, string) {
	ctx := context.Background()
	now := time.Now().UTC()

	minuteKey := fmt.Sprintf("chat:rl:%s:m:%s", ip, now.Format("200601021504"))
	count, err := l.incrWithTTL(ctx, minuteKey, 2*time.Minute)
	if err != nil {
		l.logger.Printf("redis unavailable, allowing %s: %v", ip, err)
		return true, ""
	}
	if count > int64(l.perMinute) {
		wait := 60 - now.Second()
		return false, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", wait)
	}

	dayKey := fmt.Sprintf("chat:rl:%s:d:%s", ip, now.Format("20060102"))
	count, err = l.incrWithTTL(ctx, dayKey, 25*time.Hour)
	if err != nil {
		l.logger.Printf("redis unavailable, allowing %s: %v", ip, err)
		return true, ""
	}
	if count > int64(l.perDay) {
		hours := 24 - now.Hour()
		if hours < 1 {
			hours = 1
		}
		return false, fmt.Sprintf("Daily limit reached. Try again in %d hours.", hours)
	}
	return true, ""
}

func (l *RedisLimiter) incrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
