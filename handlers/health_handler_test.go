package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/blog-api/repositories/postgres"
	"go.uber.org/zap"
)

type healthBody struct {
	Data HealthResponse `json:"data"`
}

func serveHealth(t *testing.T, h http.HandlerFunc, path string) (int, HealthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body healthBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body.Data
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, zap.NewNop())

	code, resp := serveHealth(t, handler.HandleHealth, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
	assert.NotEmpty(t, resp.Uptime)
	assert.Empty(t, resp.Checks)
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name       string
		expect     func(mock sqlmock.Sqlmock)
		wantStatus int
		wantState  string
		wantDB     string
	}{
		{
			name: "database reachable",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
			},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantDB:     "healthy",
		},
		{
			name: "ping fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(sql.ErrConnDone)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantDB:     "unhealthy",
		},
		{
			name: "probe query fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantDB:     "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			tt.expect(mock)

			handler := NewHealthHandler(postgres.Wrap(db, zap.NewNop()), zap.NewNop())
			code, resp := serveHealth(t, handler.HandleReadiness, "/health/ready")

			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, tt.wantDB, resp.Checks["database"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("memory store has no database", func(t *testing.T) {
		handler := NewHealthHandler(nil, zap.NewNop())
		code, resp := serveHealth(t, handler.HandleReadiness, "/health/ready")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "not_configured", resp.Checks["database"])
	})
}
