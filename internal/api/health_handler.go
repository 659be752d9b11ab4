package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string                    `json:"status"` // healthy, degraded, unhealthy
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the state of one dependency.
type ComponentCheck struct {
	Status  string `json:"status"` // up, down, degraded, not_configured
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// Pinger is an event store that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BucketHeader is the S3 call used to check the archive bucket.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// HealthDeps lists what the health checks cover. Zero fields report
// not_configured.
type HealthDeps struct {
	EventStore    Pinger
	StoreType     string
	Redis         *redis.Client
	S3            BucketHeader
	ArchiveBucket string
	SpreadsheetID string
	BotToken      string
}

// HealthChecker answers the health endpoints.
type HealthChecker struct {
	deps      HealthDeps
	startTime time.Time
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(deps HealthDeps) *HealthChecker {
	return &HealthChecker{deps: deps, startTime: time.Now()}
}

const (
	healthVersion = "1.0.0"

	statusUp            = "up"
	statusDown          = "down"
	statusDegraded      = "degraded"
	statusNotConfigured = "not_configured"

	checkEventStore = "event_store"
)

// pingCheck is one network check: run with timeout, slower than slow degrades.
type pingCheck struct {
	name    string
	timeout time.Duration
	slow    time.Duration
	run     func(ctx context.Context) error
}

// HandleHealth reports every component. It always answers 200; the status
// field carries the verdict.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	respondJSON(w, http.StatusOK, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness answers 200 while the process runs.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness answers 503 while the event store is unreachable; scans
// cannot be deduplicated or recorded without it.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) pingChecks() []pingCheck {
	var ps []pingCheck
	if hc.deps.EventStore != nil {
		ps = append(ps, pingCheck{checkEventStore, 3 * time.Second, time.Second, hc.deps.EventStore.Ping})
	}
	if hc.deps.Redis != nil {
		ps = append(ps, pingCheck{"redis", 2 * time.Second, 500 * time.Millisecond, func(ctx context.Context) error {
			return hc.deps.Redis.Ping(ctx).Err()
		}})
	}
	if hc.deps.S3 != nil && hc.deps.ArchiveBucket != "" {
		ps = append(ps, pingCheck{"archive", 3 * time.Second, time.Second, func(ctx context.Context) error {
			_, err := hc.deps.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &hc.deps.ArchiveBucket})
			return err
		}})
	}
	return ps
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	checks := map[string]ComponentCheck{
		checkEventStore: {Status: statusNotConfigured},
		"redis":         {Status: statusNotConfigured},
		"archive":       {Status: statusNotConfigured},
		"sheets":        configured(hc.deps.SpreadsheetID != "", "spreadsheet id set"),
		"telegram":      configured(hc.deps.BotToken != "", "bot token set"),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, p := range hc.pingChecks() {
		wg.Add(1)
		go func(p pingCheck) {
			defer wg.Done()
			c := runPingCheck(ctx, p)
			mu.Lock()
			checks[p.name] = c
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	if c, ok := checks[checkEventStore]; ok && hc.deps.StoreType != "" && c.Status != statusNotConfigured {
		c.Message = hc.deps.StoreType + ": " + c.Message
		checks[checkEventStore] = c
	}
	return checks
}

func runPingCheck(ctx context.Context, p pingCheck) ComponentCheck {
	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.run(pctx)
	return latencyCheck(time.Since(start), err, p.slow)
}

func configured(ok bool, msg string) ComponentCheck {
	if !ok {
		return ComponentCheck{Status: statusNotConfigured}
	}
	return ComponentCheck{Status: statusUp, Message: msg}
}

func latencyCheck(latency time.Duration, err error, slow time.Duration) ComponentCheck {
	switch {
	case err != nil:
		return ComponentCheck{Status: statusDown, Latency: latency.String(), Message: fmt.Sprintf("check failed: %v", err)}
	case latency > slow:
		return ComponentCheck{Status: statusDegraded, Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	default:
		return ComponentCheck{Status: statusUp, Latency: latency.String(), Message: "connected"}
	}
}

// determineOverallStatus is unhealthy when the event store is down and
// degraded when anything else is down or slow.
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if c, ok := checks[checkEventStore]; ok && c.Status == statusDown {
		return "unhealthy"
	}
	for _, c := range checks {
		if c.Status == statusDown || c.Status == statusDegraded {
			return "degraded"
		}
	}
	return "healthy"
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
