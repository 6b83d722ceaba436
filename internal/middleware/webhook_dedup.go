package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// UpdateDeduper remembers Telegram update IDs long enough to drop the
// retries Telegram sends when a webhook reply is slow.
type UpdateDeduper interface {
	Seen(ctx context.Context, updateID int64) (bool, error)
}

// NewUpdateDeduper builds a Redis-backed deduper. When addr is empty or
// Redis is unreachable it falls back to an in-memory map and returns the
// ping error alongside the working fallback.
func NewUpdateDeduper(addr, pass string, db int, ttl time.Duration) (UpdateDeduper, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if addr == "" {
		return newMemoryDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryDeduper(ttl), err
	}

	return &redisDeduper{client: client, ttl: ttl}, nil
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func (d *redisDeduper) Seen(ctx context.Context, updateID int64) (bool, error) {
	key := "gate:update:" + strconv.FormatInt(updateID, 10)
	created, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}

type memoryDeduper struct {
	mu      sync.Mutex
	expires map[int64]time.Time
	ttl     time.Duration
	sweepAt time.Time
}

func newMemoryDeduper(ttl time.Duration) *memoryDeduper {
	return &memoryDeduper{
		expires: make(map[int64]time.Time),
		ttl:     ttl,
		sweepAt: time.Now().Add(ttl),
	}
}

func (d *memoryDeduper) Seen(_ context.Context, updateID int64) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.expires[updateID]; ok && exp.After(now) {
		return true, nil
	}
	d.expires[updateID] = now.Add(d.ttl)

	if now.After(d.sweepAt) {
		for id, exp := range d.expires {
			if exp.Before(now) {
				delete(d.expires, id)
			}
		}
		d.sweepAt = now.Add(d.ttl)
	}
	return false, nil
}

// TelegramUpdateDedup short-circuits webhook requests whose update_id
// was already accepted. Telegram stops retrying on any 2xx, so a
// duplicate gets an empty 200 without reaching the bot.
func TelegramUpdateDedup(deduper UpdateDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}

			updateID, body, ok := readUpdateID(c.Request())
			if body != nil {
				c.Request().Body = io.NopCloser(bytes.NewReader(body))
			}
			if !ok {
				return next(c)
			}

			dup, err := deduper.Seen(c.Request().Context(), updateID)
			if err != nil || !dup {
				return next(c)
			}
			return c.NoContent(http.StatusOK)
		}
	}
}

// readUpdateID pulls update_id out of the request body without
// consuming it; the raw bytes are returned so the caller can restore
// the body for the bot handler.
func readUpdateID(req *http.Request) (int64, []byte, bool) {
	if req.Body == nil {
		return 0, nil, false
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return 0, nil, false
	}
	if len(raw) == 0 {
		return 0, raw, false
	}

	var update struct {
		UpdateID int64 `json:"update_id"`
	}
	if err := json.Unmarshal(raw, &update); err != nil || update.UpdateID == 0 {
		return 0, raw, false
	}
	return update.UpdateID, raw, true
}
