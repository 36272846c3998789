package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestHealthHandler ensures the health endpoint reports the service and
// its storage backend states.
func TestHealthHandler(t *testing.T) {
	t.Run("should pass: database up", func(t *testing.T) {
		pinger := func(ctx context.Context) error { return nil }
		api := NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), NewMockDocIDHandler(testStudentID), pinger, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		api.Health(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))

		m := make(map[string]interface{})
		err = json.Unmarshal(data, &m)
		assert.NoError(t, err)

		v, ok := m["status"]
		assert.True(t, ok)
		assert.Equal(t, "up & running since 0 mins", v)

		v, ok = m["database"]
		assert.True(t, ok)
		assert.Equal(t, "up", v)

		v, ok = m["message"]
		assert.True(t, ok)
		assert.Equal(t, "Hello. Students & library api is available. Enjoy :)", v)
	})

	t.Run("should fail: database down", func(t *testing.T) {
		pinger := func(ctx context.Context) error { return errors.New("connection refused") }
		api := NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), NewMockDocIDHandler(testStudentID), pinger, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		api.Health(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		m := make(map[string]interface{})
		assert.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "down", m["database"])
	})
}

// TestGetCollectionsStatsHandler ensures the stats endpoint combines the
// students and library counts.
func TestGetCollectionsStatsHandler(t *testing.T) {
	mockStudents := &MockStudentStorage{
		CountFunc: func(ctx context.Context) (int64, error) {
			return 5, nil
		},
	}
	mockBooks := &MockBookStorage{
		CountFunc: func(ctx context.Context) (int64, error) {
			return 3, nil
		},
		CountAvailableFunc: func(ctx context.Context) (int64, error) {
			return 2, nil
		},
	}
	ss := NewStudentService(zap.NewNop(), &Config{}, NewMockClocker(), NewMockDocIDHandler(testStudentID), mockStudents)
	ls := NewLibraryService(zap.NewNop(), &Config{}, NewMockClocker(), NewMockDocIDHandler(testBookID), mockBooks, mockStudents)
	api := NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), NewMockDocIDHandler(testStudentID), nil, ss, ls)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	w := httptest.NewRecorder()
	api.GetCollectionsStats(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	expected := `{"requestid":"", "status":200, "message":"Collections stats fetched successfully.",
		"data":{"students":5, "library":{"books":3, "available":2, "borrowed":1}}}`
	assert.JSONEq(t, expected, string(data))
}

// TestMaintenanceHandler ensures the mode toggling and the public answer
// while the mode stands enabled.
func TestMaintenanceHandler(t *testing.T) {
	api := NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), NewMockDocIDHandler(testStudentID), nil, nil, nil)

	t.Run("enable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=enable&msg=upgrading", nil)
		w := httptest.NewRecorder()
		api.Maintenance(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.True(t, api.mode.enabled.Load())
		assert.Equal(t, "upgrading", api.mode.message)
	})

	t.Run("public requests get blocked", func(t *testing.T) {
		var called bool
		handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			called = true
		}
		wrapped := api.MaintenanceModeMiddleware(handler)
		req := httptest.NewRequest(http.MethodGet, "/v1/students", nil)
		w := httptest.NewRecorder()
		wrapped(w, req, nil)
		res := w.Result()
		defer res.Body.Close()
		assert.False(t, called)
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		m := make(map[string]interface{})
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "upgrading", m["reason"])
	})

	t.Run("disable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=disable", nil)
		w := httptest.NewRecorder()
		api.Maintenance(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.False(t, api.mode.enabled.Load())
		assert.Empty(t, api.mode.message)
	})
}

// TestGetStatisticsHandler ensures the ops statistics payload shape.
func TestGetStatisticsHandler(t *testing.T) {
	api := NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: time.Now(), called: 1}, NewMockClocker(), NewMockUIDHandler("abc", true), NewMockDocIDHandler(testStudentID), nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/ops/stats", nil)
	w := httptest.NewRecorder()
	api.GetStatistics(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, float64(0), m["called"])
	_, ok := m["maintenance"]
	assert.True(t, ok)
	_, ok = m["status"]
	assert.True(t, ok)
}
