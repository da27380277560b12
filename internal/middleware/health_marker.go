package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis keys for the traffic counters read by the health service.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"

	ErrorLogSize = 50
)

// HealthKeys lists every key HealthMarker writes.
var HealthKeys = []string{KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq, KeyErrorLog}

// HealthMarker records request stats in Redis (skip /, /health*, /metrics, favicon).
// Redis failures never fail the request.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || path == "/" || strings.HasPrefix(path, "/health") ||
			strings.HasPrefix(path, "/metrics") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		ctx := c.UserContext()
		method, url, ip := c.Method(), c.OriginalURL(), c.IP()
		last, _ := json.Marshal(map[string]interface{}{
			"time":   start.UTC(),
			"ip":     ip,
			"path":   url,
			"method": method,
		})

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		pipe := rdb.Pipeline()
		pipe.Set(ctx, KeyLastReq, last, 0)
		pipe.Incr(ctx, KeyReqTotal)
		pipe.Incr(ctx, KeyResCount)
		pipe.IncrByFloat(ctx, KeyResTime, float64(time.Since(start).Milliseconds()))
		if status >= fiber.StatusInternalServerError {
			pipe.Incr(ctx, KeyReqErrors)
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     start.UTC(),
				"path":     url,
				"method":   method,
				"status":   status,
				"trace_id": GetTraceID(c),
				"message":  errorMessage(err, c),
			})
			pipe.LPush(ctx, KeyErrorLog, entry)
			pipe.LTrim(ctx, KeyErrorLog, 0, ErrorLogSize-1)
		}
		if _, perr := pipe.Exec(ctx); perr != nil {
			log.Debug().Err(perr).Msg("Health counters not updated")
		}
		return err
	}
}

func errorMessage(err error, c *fiber.Ctx) string {
	if err != nil {
		return err.Error()
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(c.Response().Body(), &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return utils.StatusMessage(c.Response().StatusCode())
}
