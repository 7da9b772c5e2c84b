package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseBookID(t *testing.T) {
	testCases := []struct {
		raw   string
		id    int64
		valid bool
	}{
		{"1", 1, true},
		{"9007199254740993", 9007199254740993, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
		{"b:cb8f2136-fae4-4200-85d9-3533c7f8c70d", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			id, err := ParseBookID(tc.raw)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, tc.id, id)
			} else {
				assert.ErrorIs(t, err, ErrInvalidBookID)
			}
		})
	}
}

func TestValidateBookPayload(t *testing.T) {
	valid := BookPayload{Title: "t", Author: "a", PublishDate: "2005-09-01", Publisher: "p"}
	assert.NoError(t, ValidateBookPayload(&valid))

	missing := BookPayload{Author: "a", PublishDate: "2005-09-01"}
	err := ValidateBookPayload(&missing)
	require.Error(t, err)
	assert.Equal(t, "title is required", err.Error())
	assert.True(t, IsValidationError(err))

	badDate := valid
	badDate.PublishDate = "2005-13-45"
	err = ValidateBookPayload(&badDate)
	require.Error(t, err)
	assert.Equal(t, "publish_date must be a date formatted as YYYY-MM-DD", err.Error())
	assert.True(t, IsValidationError(err))

	assert.False(t, IsValidationError(ErrBookNotFound))
}

func TestDecodeBookRequestBody(t *testing.T) {
	var payload BookPayload
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":"t","author":"a","publish_date":"2005-09-01","publisher":"p"}`))
	require.NoError(t, DecodeBookRequestBody(req, &payload))
	assert.Equal(t, BookPayload{Title: "t", Author: "a", PublishDate: "2005-09-01", Publisher: "p"}, payload)

	req = httptest.NewRequest(http.MethodPost, "/books", nil)
	assert.ErrorIs(t, DecodeBookRequestBody(req, &payload), ErrInvalidBody)

	req = httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`[1,2]`))
	assert.ErrorIs(t, DecodeBookRequestBody(req, &payload), ErrInvalidBody)
}

func TestGetBookFilterFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books?title=Laskar&publisher=Gramedia&unknown=x", nil)
	assert.Equal(t, BookFilter{Title: "Laskar", Publisher: "Gramedia"}, GetBookFilterFromRequest(req))
}

func TestGetRequestSourceIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetRequestSourceIP(req))

	req.Header.Set("X-FORWARDED-FOR", "bad, 192.168.1.2")
	assert.Equal(t, "192.168.1.2", GetRequestSourceIP(req))

	req.Header.Set("X-REAL-IP", "172.16.0.3")
	assert.Equal(t, "172.16.0.3", GetRequestSourceIP(req))
}

func TestWriteResponse(t *testing.T) {
	t.Run("envelope sent", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteResponse(context.Background(), w, http.StatusCreated, GenericResponse(MsgBookCreated, sampleBook)))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"error":false,"message":"Book created successfully.","data":{"id":1,"title":"Laskar Pelangi","author":"Andrea Hirata","publish_date":"2005-09-01","publisher":"Bentang Pustaka"}}`, w.Body.String())
	})

	t.Run("canceled request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := httptest.NewRecorder()
		assert.Error(t, WriteResponse(ctx, w, http.StatusOK, GenericResponse(MsgBooksFound, nil)))
		assert.Equal(t, 499, w.Code)
	})

	t.Run("timed out request", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		w := httptest.NewRecorder()
		assert.Error(t, WriteResponse(ctx, w, http.StatusOK, GenericResponse(MsgBooksFound, nil)))
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestCustomResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := NewCustomResponseWriter(rec)
	assert.Equal(t, http.StatusOK, cw.Status())
	cw.WriteHeader(http.StatusNotFound)
	cw.WriteHeader(http.StatusOK)
	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusNotFound, cw.Status())
	assert.Equal(t, 5, cw.Bytes())
	assert.Equal(t, rec, cw.Unwrap())
}

func TestIDsHandler(t *testing.T) {
	h := NewIDsHandler()
	id := h.Generate(RequestIDPrefix)
	assert.True(t, strings.HasPrefix(id, "r:"))
	assert.True(t, h.IsValid(id, RequestIDPrefix))
	assert.False(t, h.IsValid(strings.TrimPrefix(id, "r:"), RequestIDPrefix))
	assert.False(t, h.IsValid("r:not-a-uuid", RequestIDPrefix))
}

func TestCreateLogFilePath(t *testing.T) {
	ts := NewMockClocker().Now()
	assert.Equal(t, filepath.Join("logs", "20230702.000000.prod.log"), CreateLogFilePath("logs", true, ts))
	assert.Equal(t, filepath.Join("logs", "20230702.000000.dev.log"), CreateLogFilePath("logs", false, ts))
}

func TestRSyncWrite(t *testing.T) {
	folder := t.TempDir()
	clock := NewMockClocker()
	w := NewRSyncWriter(&Config{LogFolder: folder, LogMaxSize: 1}, clock)
	defer w.Close()

	_, err := w.Write(make([]byte, megabyte+1))
	assert.Error(t, err)

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	clock.MockNow = clock.MockNow.Add(time.Second)
	_, err = w.Write(make([]byte, megabyte-1))
	require.NoError(t, err)

	entries, err := os.ReadDir(folder)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSetupLogging(t *testing.T) {
	folder := t.TempDir()
	clock := NewMockClocker()
	config := &Config{LogFolder: folder, LogMaxSize: 1, IsProduction: true, LogLevel: zapcore.InfoLevel, GitTag: "v1.0.0"}
	w := NewRSyncWriter(config, clock)
	logger, flush := SetupLogging(config, w, clock)
	logger.Debug("hidden")
	logger.Info("visible", zap.String("book.title", "Laskar Pelangi"))
	require.NoError(t, flush())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(CreateLogFilePath(folder, true, clock.Now()))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `"msg":"visible"`)
	assert.Contains(t, content, `"app.tag":"v1.0.0"`)
	assert.Contains(t, content, `"ts":"2023-07-02T00:00:00.000Z"`)
	assert.NotContains(t, content, "hidden")
}
