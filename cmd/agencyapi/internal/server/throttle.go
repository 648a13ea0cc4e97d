package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
	"github.com/caffeinepub/agencydesk/pkg/api/agency/v1/agencyv1connect"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

const defaultLoginsPerMinute = 5

// NewRedisClient configures a Redis client from a redis:// URL and verifies
// connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewLoginThrottle limits Login calls per username (or peer address when the
// username is blank) to maxPerMinute. Without Redis, or when Redis errors,
// requests pass through. metrics may be nil.
func NewLoginThrottle(cache *redis.Client, maxPerMinute int, metrics *telemetry.LoginMetrics, logger *slog.Logger) connect.UnaryInterceptorFunc {
	if maxPerMinute <= 0 {
		maxPerMinute = defaultLoginsPerMinute
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if cache == nil || req.Spec().Procedure != agencyv1connect.AgencyServiceLoginProcedure {
				return next(ctx, req)
			}

			subject := req.Peer().Addr
			if msg, ok := req.Any().(*agencyv1.LoginRequest); ok {
				if u := strings.ToLower(strings.TrimSpace(msg.Username)); u != "" {
					subject = u
				}
			}
			key := "rl:login:" + subject

			cnt, err := cache.Incr(ctx, key).Result()
			if err != nil {
				logger.WarnContext(ctx, "login throttle unavailable", "error", err)
				return next(ctx, req)
			}
			if cnt == 1 {
				cache.Expire(ctx, key, time.Minute)
			}
			if cnt > int64(maxPerMinute) {
				if metrics != nil {
					metrics.Throttled.Add(ctx, 1)
				}
				logger.InfoContext(ctx, "login throttled", "subject", subject, "attempts", cnt)
				return nil, connect.NewError(connect.CodeResourceExhausted,
					fmt.Errorf("too many login attempts, try again later"))
			}
			return next(ctx, req)
		}
	}
}
