package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"greenledger-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Pinger is anything /health/json can probe. A nil Pinger is reported as disconnected.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Report is the body of /health/json and the data behind the dashboard.
type Report struct {
	Service      string               `json:"service"`
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

// MemoryInfo is in MB.
type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime string      `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Service collects health from Redis counters written by middleware.HealthMarker
// and pings the database and object store.
type Service struct {
	Name     string
	Rdb      *redis.Client
	DB       Pinger
	Storage  Pinger
	Optional map[string]bool // dependencies that do not degrade overall status
}

func ping(ctx context.Context, p Pinger) DepStatus {
	if p == nil {
		return DepStatus{Status: "disconnected"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// Collect gathers the report. It never fails; broken dependencies show up in Status.
func (s *Service) Collect(ctx context.Context) Report {
	r := Report{
		Service:      s.Name,
		Dependencies: make(map[string]DepStatus),
		Traffic:      TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"},
	}
	r.Dependencies["database"] = ping(ctx, s.DB)
	r.Dependencies["storage"] = ping(ctx, s.Storage)

	startMs := time.Now().UnixMilli()
	var redisPinger Pinger
	if s.Rdb != nil {
		redisPinger = PingFunc(func(ctx context.Context) error { return s.Rdb.Ping(ctx).Err() })
	}
	r.Dependencies["redis"] = ping(ctx, redisPinger)
	if r.Dependencies["redis"].Status == "connected" {
		startMs = s.readTraffic(ctx, &r.Traffic, startMs)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	r.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	r.Status = "ok"
	for name, dep := range r.Dependencies {
		if dep.Status != "connected" && !s.Optional[name] {
			r.Status = "issue"
		}
	}
	return r
}

func (s *Service) readTraffic(ctx context.Context, t *TrafficInfo, startMs int64) int64 {
	vals, err := s.Rdb.MGet(ctx,
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
	).Result()
	if err != nil {
		return startMs
	}
	str := func(i int) string {
		v, _ := vals[i].(string)
		return v
	}

	if st := str(4); st != "" {
		if v, err := strconv.ParseInt(st, 10, 64); err == nil {
			startMs = v
		}
	} else {
		s.Rdb.SetNX(ctx, middleware.KeyStartTime, startMs, 0)
	}

	t.TotalRequests, _ = strconv.Atoi(str(0))
	t.FailedCount, _ = strconv.Atoi(str(1))
	t.SuccessCount = t.TotalRequests - t.FailedCount
	if t.TotalRequests > 0 {
		t.SuccessRate = strconv.FormatFloat(float64(t.SuccessCount)/float64(t.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if n, _ := strconv.Atoi(str(3)); n > 0 {
		t.AvgResponseTime = strconv.FormatFloat(timeSum/float64(n), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		var lr map[string]interface{}
		if json.Unmarshal([]byte(last), &lr) == nil {
			t.LastRequest = lr
		}
	}
	return startMs
}

// Reset clears the counters and restarts the uptime clock.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.Rdb.Del(ctx, middleware.HealthKeys...).Err(); err != nil {
		return err
	}
	return s.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}

// Errors returns up to the last 50 server errors recorded by the health marker.
func (s *Service) Errors(ctx context.Context) ([]map[string]interface{}, error) {
	entries, err := s.Rdb.LRange(ctx, middleware.KeyErrorLog, 0, middleware.ErrorLogSize-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(e), &m) == nil {
			out = append(out, m)
		}
	}
	return out, nil
}
