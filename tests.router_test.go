package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func newTestMiddlewareMap() *MiddlewareMap {
	return &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
}

// TestSetupBookRoutes ensures all expected book endpoints are implemented.
func TestSetupBookRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"create book endpoint",
			httptest.NewRequest(http.MethodPost, "/books", nil),
			true,
		},
		{
			"search books endpoint",
			httptest.NewRequest(http.MethodGet, "/books?title=laskar", nil),
			true,
		},
		{
			"search books endpoint with slash",
			httptest.NewRequest(http.MethodGet, "/books/", nil),
			true,
		},
		{
			"fetch single book endpoint",
			httptest.NewRequest(http.MethodGet, "/books/1", nil),
			true,
		},
		{
			"update book endpoint",
			httptest.NewRequest(http.MethodPut, "/books/1", nil),
			true,
		},
		{
			"delete book endpoint",
			httptest.NewRequest(http.MethodDelete, "/books/1", nil),
			true,
		},
		{
			"versioned books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/books", nil),
			false,
		},
		{
			"nested book endpoint",
			httptest.NewRequest(http.MethodGet, "/books/1/pages", nil),
			false,
		},
	}

	mockRepo := &MockBookStorage{
		SearchFunc: func(ctx context.Context, filter BookFilter) ([]Book, error) {
			return []Book{}, nil
		},
		GetOneFunc: func(ctx context.Context, id int64) (Book, error) {
			return sampleBook, nil
		},
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			return book, nil
		},
		UpdateFunc: func(ctx context.Context, id int64, book Book) (Book, error) {
			return book, nil
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			return nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)
	router := httprouter.New()
	api.SetupBookRoutes(router, newTestMiddlewareMap())

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
		profiler    bool
		request     *http.Request
		implemented bool
	}{
		{"fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"fetch stats endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/stats", nil), true},
		{"maintenance mode endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/maintenance", nil), true},
		{"expvar endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/debug/vars", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops", nil), false},
		{"unknown ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/unknown", nil), false},
		{"disabled profiler endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"enabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), true},
		{"enabled heap profile endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/heap", nil), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(&MockBookStorage{}, nil)
			api.config.ProfilerEnable = tc.profiler
			router := httprouter.New()
			api.SetupOpsRoutes(router, newTestMiddlewareMap())
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

// TestSetupRoutes ensures ops endpoints are only exposed when enabled.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name               string
		OpsEndpointsEnable bool
		request            *http.Request
		implemented        bool
	}{
		{"ops disable:fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), false},
		{"ops enable:fetch configs endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"ops enable:disabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"ops disable:status endpoint", false, httptest.NewRequest(http.MethodGet, "/status", nil), true},
		{"swagger docs endpoint", false, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/", nil), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(&MockBookStorage{}, nil)
			api.config.OpsEndpointsEnable = tc.OpsEndpointsEnable
			router := api.SetupRoutes(httprouter.New(), newTestMiddlewareMap())
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
	api := newTestAPIHandler(&MockBookStorage{}, nil)
	router := api.SetupRoutes(httprouter.New(), newTestMiddlewareMap())
	r := httptest.NewRequest(http.MethodGet, "/x/books/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":true,"message":"Requested resource does not exist."}`, string(data))
}

// TestSetupRoutes_MethodNotAllowed ensures a known path with a wrong method gets 405.
func TestSetupRoutes_MethodNotAllowed(t *testing.T) {
	api := newTestAPIHandler(&MockBookStorage{}, nil)
	router := api.SetupRoutes(httprouter.New(), newTestMiddlewareMap())
	r := httptest.NewRequest(http.MethodPatch, "/books/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":true,"message":"Method not allowed on this resource."}`, string(data))
}

// TestSetupRoutes_Options ensures preflight requests are answered with cors headers.
func TestSetupRoutes_Options(t *testing.T) {
	api := newTestAPIHandler(&MockBookStorage{}, nil)
	router := api.SetupRoutes(httprouter.New(), newTestMiddlewareMap())
	r := httptest.NewRequest(http.MethodOptions, "/books", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestSwaggerDocumentMatchesRoutes ensures every documented books operation is routed.
func TestSwaggerDocumentMatchesRoutes(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	api := newTestAPIHandler(&MockBookStorage{}, nil)
	router := api.SetupRoutes(httprouter.New(), newTestMiddlewareMap())

	expected := map[string][]string{
		"/books":      {"get", "post"},
		"/books/{id}": {"get", "put", "delete"},
	}
	require.Len(t, doc.Paths, len(expected))
	for path, methods := range expected {
		operations, ok := doc.Paths[path]
		require.True(t, ok, path)
		assert.Len(t, operations, len(methods), path)
		routePath := strings.ReplaceAll(path, "{id}", "1")
		for _, method := range methods {
			_, ok := operations[method]
			assert.True(t, ok, method+" "+path)
			handle, _, _ := router.Lookup(strings.ToUpper(method), routePath)
			assert.NotNil(t, handle, method+" "+path)
		}
	}
}
