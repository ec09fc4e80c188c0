package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/pkg/response"
)

const uuidPattern = "[0-9a-fA-F-]{36}"

// sweepsPerMinute bounds manual sweeps per user; the scheduler covers the rest
const sweepsPerMinute = 5

type RouterConfig struct {
	RateLimitPerMinute int
	Logger             *logrus.Logger
}

// NewRouter wires every endpoint under /api/v1 plus the health probes.
func NewRouter(schedules *ScheduleHandler, health *HealthHandler, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(cfg.Logger))
	router.Use(response.CORSMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	if cfg.RateLimitPerMinute > 0 {
		api.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}
	api.Use(RequireUser)

	api.HandleFunc("/quotations/{quotationId:"+uuidPattern+"}/schedules/sync", schedules.SyncSchedules).Methods(http.MethodPost)

	api.HandleFunc("/schedules", schedules.CreateSchedule).Methods(http.MethodPost)
	api.HandleFunc("/schedules", schedules.ListSchedules).Methods(http.MethodGet)
	api.Handle("/schedules/sweep", limitPerUser(sweepsPerMinute, http.HandlerFunc(schedules.SweepOverdue))).Methods(http.MethodPost)
	api.HandleFunc("/schedules/statistics", schedules.GetStatistics).Methods(http.MethodGet)
	api.HandleFunc("/schedules/receivables", schedules.GetReceivables).Methods(http.MethodGet)
	api.HandleFunc("/schedules/reminders", schedules.GetReminders).Methods(http.MethodGet)

	api.HandleFunc("/schedules/{id:"+uuidPattern+"}", schedules.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id:"+uuidPattern+"}", schedules.UpdateSchedule).Methods(http.MethodPatch)
	api.HandleFunc("/schedules/{id:"+uuidPattern+"}", schedules.DeleteSchedule).Methods(http.MethodDelete)
	api.HandleFunc("/schedules/{id:"+uuidPattern+"}/collect", schedules.CollectSchedule).Methods(http.MethodPost)
	api.HandleFunc("/schedules/{id:"+uuidPattern+"}/overdue", schedules.MarkOverdue).Methods(http.MethodPost)

	api.HandleFunc("/payments", schedules.RecordPayment).Methods(http.MethodPost)

	return router
}

func limitPerUser(requests int, next http.Handler) http.Handler {
	return httprate.Limit(requests, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return r.Header.Get(UserIDHeader), nil
		}),
	)(next)
}
