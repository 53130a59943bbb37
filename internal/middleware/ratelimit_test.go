package middleware

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newLimitedApp(rl *RateLimiter, prefix string, max int) *fiber.App {
	app := fiber.New()
	app.Get("/", rl.Limit(prefix, max, time.Minute), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func get(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestLimitWithoutRedisPassesThrough(t *testing.T) {
	app := newLimitedApp(NewRateLimiter(nil, zerolog.Nop()), "test", 1)
	for i := 0; i < 3; i++ {
		if resp := get(t, app); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
}

func TestLimitRejectsOverMax(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	prefix := "test-" + uuid.New().String()
	app := newLimitedApp(NewRateLimiter(client, zerolog.Nop()), prefix, 2)

	for i := 0; i < 2; i++ {
		if resp := get(t, app); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	resp := get(t, app)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
