package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStreamGateway appends events to a Redis stream for other services.
type RedisStreamGateway struct {
	rdb    redis.UniversalClient
	stream string
	maxLen int64
}

type RedisStreamOption func(*RedisStreamGateway)

func WithStream(name string) RedisStreamOption {
	return func(g *RedisStreamGateway) {
		if n := strings.Trim(name, ": "); n != "" {
			g.stream = n
		}
	}
}

// WithMaxLen caps the stream approximately (MAXLEN ~). 0 disables trimming.
func WithMaxLen(n int64) RedisStreamOption {
	return func(g *RedisStreamGateway) { g.maxLen = n }
}

func NewRedisStreamGateway(rdb redis.UniversalClient, opts ...RedisStreamOption) *RedisStreamGateway {
	g := &RedisStreamGateway{
		rdb:    rdb,
		stream: "admissions:events",
		maxLen: 10000,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RedisStreamGateway) Send(ctx context.Context, ev Event) error {
	if g == nil || g.rdb == nil {
		return nil
	}
	args := &redis.XAddArgs{
		Stream: g.stream,
		Values: streamValues(ev),
	}
	if g.maxLen > 0 {
		args.MaxLen = g.maxLen
		args.Approx = true
	}
	return g.rdb.XAdd(ctx, args).Err()
}

func streamValues(ev Event) map[string]any {
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	v := map[string]any{
		"kind":         string(ev.Kind),
		"applicant_id": ev.ApplicantID.String(),
		"email":        ev.Email,
		"occurred_at":  at.UTC().Format(time.RFC3339Nano),
	}
	if ev.FullName != "" {
		v["full_name"] = ev.FullName
	}
	if ev.Program != "" {
		v["program"] = ev.Program
	}
	if ev.OldStatus != "" {
		v["old_status"] = ev.OldStatus
	}
	if ev.NewStatus != "" {
		v["new_status"] = ev.NewStatus
	}
	return v
}
