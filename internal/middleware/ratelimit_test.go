package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter(rps float64, burst int) *gin.Engine {
	r := gin.New()
	r.GET("/limited", RateLimit(rps, burst), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimit(t *testing.T) {
	t.Run("allows_within_burst", func(t *testing.T) {
		r := rateLimitedRouter(1, 3)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/limited", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
			}
		}
	})

	t.Run("rejects_past_burst", func(t *testing.T) {
		r := rateLimitedRouter(0.001, 1)

		req := httptest.NewRequest("GET", "/limited", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected first request to pass, got %d", rec.Code)
		}

		req = httptest.NewRequest("GET", "/limited", nil)
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 past burst, got %d", rec.Code)
		}
	})

	t.Run("limits_per_client", func(t *testing.T) {
		r := rateLimitedRouter(0.001, 1)

		req := httptest.NewRequest("GET", "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for first client, got %d", rec.Code)
		}

		// A different client has its own bucket.
		req = httptest.NewRequest("GET", "/limited", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for second client, got %d", rec.Code)
		}
	})
}
