package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/collection-engine/pkg/response"
)

// Readiness states, per dependency and overall
const (
	CheckUp       = "up"
	CheckDown     = "down"
	CheckDisabled = "disabled"

	ReadyOK          = "ok"
	ReadyDegraded    = "degraded"
	ReadyUnavailable = "unavailable"
)

// HealthHandler answers liveness and readiness probes for the API process
type HealthHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	timeout time.Duration
}

func NewHealthHandler(db *sqlx.DB, redis *redis.Client, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		timeout: timeout,
	}
}

// DependencyCheck is the outcome of pinging one backing service
type DependencyCheck struct {
	Status    string `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type HealthStatus struct {
	Status    string                     `json:"status"`
	Timestamp time.Time                  `json:"timestamp"`
	Checks    map[string]DependencyCheck `json:"checks,omitempty"`
}

// Health reports that the process is serving
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{Status: ReadyOK, Timestamp: time.Now()})
}

// Ready pings the database and the statistics cache. The database is
// critical: when it is down the process answers 503. The cache is not, since
// statistics fall back to direct computation, so a cache outage only marks
// the process degraded.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]DependencyCheck{
		"database": check(ctx, true, h.db.PingContext),
	}
	if h.redis == nil {
		checks["cache"] = DependencyCheck{Status: CheckDisabled}
	} else {
		checks["cache"] = check(ctx, false, func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
	}

	status := HealthStatus{Status: ReadyOK, Timestamp: time.Now(), Checks: checks}
	for _, c := range checks {
		if c.Status != CheckDown {
			continue
		}
		if c.Critical {
			status.Status = ReadyUnavailable
			break
		}
		status.Status = ReadyDegraded
	}

	if status.Status == ReadyUnavailable {
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	response.Success(w, status)
}

func check(ctx context.Context, critical bool, ping func(context.Context) error) DependencyCheck {
	start := time.Now()
	err := ping(ctx)
	result := DependencyCheck{
		Status:    CheckUp,
		Critical:  critical,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = CheckDown
		result.Error = err.Error()
	}
	return result
}
