package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// newRouterTestAPI wires an api handler with fully stubbed storages so every
// route can answer something other than a not found.
func newRouterTestAPI(config *Config) *APIHandler {
	mockStudents := &MockStudentStorage{
		InsertFunc: func(ctx context.Context, student Student) (Student, error) {
			return student, nil
		},
		InsertManyFunc: func(ctx context.Context, students []Student) ([]Student, error) {
			return students, nil
		},
		FindFunc: func(ctx context.Context, filter StudentFilter) ([]Student, error) {
			return []Student{}, nil
		},
		GetOneFunc: func(ctx context.Context, id primitive.ObjectID) (Student, error) {
			return Student{ID: id}, nil
		},
		UpdateFunc: func(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error) {
			return Student{ID: id}, nil
		},
		UpdateManyFunc: func(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error) {
			return 0, nil
		},
		DeleteFunc: func(ctx context.Context, id primitive.ObjectID) (int64, error) {
			return 0, nil
		},
		DeleteManyFunc: func(ctx context.Context, filter StudentFilter) (int64, error) {
			return 0, nil
		},
		DeleteAllFunc: func(ctx context.Context) (int64, error) {
			return 0, nil
		},
		CountFunc: func(ctx context.Context) (int64, error) {
			return 0, nil
		},
	}
	mockBooks := &MockBookStorage{
		InsertFunc: func(ctx context.Context, book Book) (Book, error) {
			return book, nil
		},
		FindFunc: func(ctx context.Context, filter BookFilter) ([]Book, error) {
			return []Book{}, nil
		},
		GetOneFunc: func(ctx context.Context, id primitive.ObjectID) (Book, error) {
			return Book{ID: id}, nil
		},
		GetDetailFunc: func(ctx context.Context, id primitive.ObjectID) (BookDetail, error) {
			return BookDetail{}, nil
		},
		BorrowFunc: func(ctx context.Context, id, studentID primitive.ObjectID, at, due time.Time) (Book, error) {
			return Book{ID: id}, nil
		},
		ReturnFunc: func(ctx context.Context, id primitive.ObjectID) (Book, error) {
			return Book{ID: id}, nil
		},
		CountFunc: func(ctx context.Context) (int64, error) {
			return 0, nil
		},
		CountAvailableFunc: func(ctx context.Context) (int64, error) {
			return 0, nil
		},
	}
	pinger := func(ctx context.Context) error { return nil }
	ss := NewStudentService(zap.NewNop(), config, NewMockClocker(), NewMockDocIDHandler(testStudentID), mockStudents)
	ls := NewLibraryService(zap.NewNop(), config, NewMockClocker(), NewMockDocIDHandler(testBookID), mockBooks, mockStudents)
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: NewMockClocker().Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), NewMockDocIDHandler(testStudentID), pinger, ss, ls)
}

// TestSetupStudentRoutes ensures all expected student endpoints are implemented.
func TestSetupStudentRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"create student endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/students", nil),
			true,
		},
		{
			"create students batch endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/students/batch", nil),
			true,
		},
		{
			"create sample students endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/students/sample", nil),
			true,
		},
		{
			"fetch all students endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/students", nil),
			true,
		},
		{
			"filter students endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/students/filter?course=Physics", nil),
			true,
		},
		{
			"age range endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/students/age-range?minAge=18", nil),
			true,
		},
		{
			"courses membership endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/students/courses?courses=Physics", nil),
			true,
		},
		{
			"complex query endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/students/complex?queryType=and", nil),
			true,
		},
		{
			"search endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/students/search", nil),
			true,
		},
		{
			"bulk update endpoint",
			httptest.NewRequest(http.MethodPut, "/v1/students", nil),
			true,
		},
		{
			"update student endpoint",
			httptest.NewRequest(http.MethodPut, "/v1/students/"+testStudentID, nil),
			true,
		},
		{
			"complete student endpoint",
			httptest.NewRequest(http.MethodPut, "/v1/students/"+testStudentID+"/complete", nil),
			true,
		},
		{
			"conditional delete endpoint",
			httptest.NewRequest(http.MethodDelete, "/v1/students?scope=all", nil),
			true,
		},
		{
			"delete student endpoint",
			httptest.NewRequest(http.MethodDelete, "/v1/students/"+testStudentID, nil),
			true,
		},
		{
			"invalid api endpoint",
			httptest.NewRequest(http.MethodGet, "/v1", nil),
			false,
		},
		{
			"invalid students endpoint",
			httptest.NewRequest(http.MethodGet, "/students", nil),
			false,
		},
	}

	api := newRouterTestAPI(&Config{})
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupStudentRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupLibraryRoutes ensures all expected library endpoints are implemented.
func TestSetupLibraryRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"add book endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/library/books", nil),
			true,
		},
		{
			"fetch all books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/library/books", nil),
			true,
		},
		{
			"fetch single book endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/library/books/"+testBookID, nil),
			true,
		},
		{
			"available books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/library/available", nil),
			true,
		},
		{
			"category books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/library/category/Programming", nil),
			true,
		},
		{
			"borrow book endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/library/borrow", nil),
			true,
		},
		{
			"return book endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/library/return", nil),
			true,
		},
		{
			"invalid library endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/library", nil),
			false,
		},
		{
			"unknown library endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/library/unknown", nil),
			false,
		},
	}

	api := newRouterTestAPI(&Config{})
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupLibraryRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"fetch configs endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"fetch stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"maintenance mode endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/maintenance", nil),
			true,
		},
		{
			"memory stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/vars", nil),
			true,
		},
		{
			"invalid ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops", nil),
			false,
		},
		{
			"unknown ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/unknown", nil),
			false,
		},
		{
			"disabled profiler endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			false,
		},
	}

	api := newRouterTestAPI(&Config{ProfilerEnable: false})
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupOpsRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes ensures core endpoints and the ops toggle behavior.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name               string
		OpsEndpointsEnable bool
		request            *http.Request
		implemented        bool
	}{
		{
			"index endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"health endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/health", nil),
			true,
		},
		{
			"collections stats endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/v1/stats", nil),
			true,
		},
		{
			"ops disable:fetch configs endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			false,
		},
		{
			"ops enable:fetch configs endpoint",
			true,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"ops enable:disabled profiler endpoint",
			true,
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			false,
		},
		{
			"ops disable:create student endpoint",
			false,
			httptest.NewRequest(http.MethodPost, "/v1/students", nil),
			true,
		},
		{
			"invalid books endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/books/", nil),
			false,
		},
	}

	config := &Config{OpsEndpointsEnable: false, ProfilerEnable: false}
	api := newRouterTestAPI(config)
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := httprouter.New()
			config.OpsEndpointsEnable = tc.OpsEndpointsEnable
			api.SetupRoutes(router, m)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes_NotFound ensures exact status code and json response body when a user requests an inexistant route.
func TestSetupRoutes_NotFound(t *testing.T) {
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api := newRouterTestAPI(&Config{})
	router := httprouter.New()
	api.SetupRoutes(router, m)
	r := httptest.NewRequest(http.MethodGet, "/x/students/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	expected := `{"requestid":"r:abc", "message":"route does not exist", "path":"GET /x/students/"}`
	assert.JSONEq(t, expected, string(data))
}
