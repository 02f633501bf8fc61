package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idem:v2:"
	pendingMarker        = "pending"
	cacheOpTimeout       = 2 * time.Second
	replayedHeader       = "Idempotent-Replayed"
)

var errDuplicateInFlight = fiber.NewError(fiber.StatusConflict, "A request with this Idempotency-Key is still being processed")

type replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// replayCache stores the first response for each (caller, route, key).
type replayCache struct {
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func (r replayCache) slot(c *fiber.Ctx, key string) string {
	owner := "anonymous"
	if p, ok := PrincipalFrom(c); ok {
		owner = p.UserID
	}
	return idempotencyPrefix + owner + ":" + c.Method() + ":" + c.Path() + ":" + key
}

// claim returns the stored replay for slot, or reserves the slot for this
// request. ok is false when the slot is held by a request still running.
func (r replayCache) claim(ctx context.Context, slot string) (stored *replay, ok bool, err error) {
	reserved, err := r.cache.SetNX(ctx, slot, pendingMarker, r.ttl).Result()
	if err != nil || reserved {
		return nil, err == nil, err
	}
	raw, err := r.cache.Get(ctx, slot).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls; treat as free
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(raw) == pendingMarker {
		return nil, false, nil
	}
	var out replay
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

func (r replayCache) save(slot string, resp replay) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	payload, err := json.Marshal(resp)
	if err == nil {
		err = r.cache.Set(ctx, slot, payload, r.ttl).Err()
	}
	if err != nil {
		r.logger.Warn("idempotency save failed", slog.String("slot", slot), slog.Any("error", err))
		r.release(slot)
	}
}

func (r replayCache) release(slot string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := r.cache.Del(ctx, slot).Err(); err != nil {
		r.logger.Warn("idempotency release failed", slog.String("slot", slot), slog.Any("error", err))
	}
}

// Idempotency replays the first response of an unsafe request whose
// Idempotency-Key was already seen for the same caller and route. Requests
// without the header, or without a cache, pass through; so do requests when
// the cache is unreachable. Failed requests are not stored and may be retried
// with the same key.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	rc := replayCache{cache: cache, ttl: ttl, logger: logger}
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" || cache == nil {
			return c.Next()
		}

		slot := rc.slot(c, key)
		ctx, cancel := context.WithTimeout(c.UserContext(), cacheOpTimeout)
		stored, ok, err := rc.claim(ctx, slot)
		cancel()
		switch {
		case err != nil:
			logger.WarnContext(c.UserContext(), "idempotency lookup failed", slog.String("slot", slot), slog.Any("error", err))
			return c.Next()
		case !ok:
			return errDuplicateInFlight
		case stored != nil:
			c.Set(replayedHeader, "true")
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			return c.Status(stored.Status).Send(stored.Body)
		}

		if err := c.Next(); err != nil {
			rc.release(slot)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			rc.release(slot)
			return nil
		}
		rc.save(slot, replay{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		return nil
	}
}
