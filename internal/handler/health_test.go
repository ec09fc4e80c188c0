package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/handler"
)

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		cache          string // "up", "down" or "none"
		expectedCode   int
		expectedStatus string
		validate       func(*testing.T, map[string]handler.DependencyCheck)
	}{
		{
			name:           "all dependencies up",
			cache:          "up",
			expectedCode:   http.StatusOK,
			expectedStatus: handler.ReadyOK,
			validate: func(t *testing.T, checks map[string]handler.DependencyCheck) {
				assert.Equal(t, handler.CheckUp, checks["database"].Status)
				assert.True(t, checks["database"].Critical)
				assert.Equal(t, handler.CheckUp, checks["cache"].Status)
				assert.False(t, checks["cache"].Critical)
			},
		},
		{
			name:           "database down",
			pingErr:        errors.New("connection refused"),
			cache:          "up",
			expectedCode:   http.StatusServiceUnavailable,
			expectedStatus: handler.ReadyUnavailable,
			validate: func(t *testing.T, checks map[string]handler.DependencyCheck) {
				assert.Equal(t, handler.CheckDown, checks["database"].Status)
				assert.Equal(t, "connection refused", checks["database"].Error)
				assert.Equal(t, handler.CheckUp, checks["cache"].Status)
			},
		},
		{
			name:           "cache down only degrades",
			cache:          "down",
			expectedCode:   http.StatusOK,
			expectedStatus: handler.ReadyDegraded,
			validate: func(t *testing.T, checks map[string]handler.DependencyCheck) {
				assert.Equal(t, handler.CheckUp, checks["database"].Status)
				assert.Equal(t, handler.CheckDown, checks["cache"].Status)
				assert.NotEmpty(t, checks["cache"].Error)
			},
		},
		{
			name:           "database down wins over cache down",
			pingErr:        errors.New("connection refused"),
			cache:          "down",
			expectedCode:   http.StatusServiceUnavailable,
			expectedStatus: handler.ReadyUnavailable,
			validate: func(t *testing.T, checks map[string]handler.DependencyCheck) {
				assert.Equal(t, handler.CheckDown, checks["database"].Status)
				assert.Equal(t, handler.CheckDown, checks["cache"].Status)
			},
		},
		{
			name:           "no cache configured",
			cache:          "none",
			expectedCode:   http.StatusOK,
			expectedStatus: handler.ReadyOK,
			validate: func(t *testing.T, checks map[string]handler.DependencyCheck) {
				assert.Equal(t, handler.CheckDisabled, checks["cache"].Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			sqlMock.ExpectPing().WillReturnError(tt.pingErr)

			var client *redis.Client
			if tt.cache != "none" {
				mr := miniredis.RunT(t)
				client = redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
				defer client.Close()
				if tt.cache == "down" {
					mr.Close()
				}
			}

			h := handler.NewHealthHandler(sqlx.NewDb(db, "sqlmock"), client, time.Second)
			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedCode, w.Code)

			var body struct {
				Data handler.HealthStatus `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedStatus, body.Data.Status)
			tt.validate(t, body.Data.Checks)
		})
	}
}

func TestHealthHandler_Health(t *testing.T) {
	h := handler.NewHealthHandler(nil, nil, time.Second)
	w := httptest.NewRecorder()

	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
