package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// replayedResponse is the persisted form of a completed mutating request.
type replayedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body so it can be stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for mutating requests
// that carry an Idempotency-Key header already seen within the TTL. Scan
// and trip-lifecycle endpoints are retried aggressively by handheld
// scanners on flaky links, so a resend must not double-apply.
func IdempotencyMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := "idempotency:" + key

		data, err := client.Get(ctx, storeKey).Bytes()
		if err == nil {
			var stored replayedResponse
			if json.Unmarshal(data, &stored) == nil {
				c.Data(stored.StatusCode, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		} else if err != redis.Nil {
			// Store unavailable: serve the request without replay protection.
			c.Next()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 500 {
			stored := replayedResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			}
			if encoded, err := json.Marshal(stored); err == nil {
				_ = client.Set(ctx, storeKey, encoded, idempotencyTTL).Err()
			}
		}
	}
}
