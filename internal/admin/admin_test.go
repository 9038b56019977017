package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/searchd/internal/index"
	"github.com/edirooss/searchd/internal/rwpool"
	"github.com/edirooss/searchd/internal/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("text_files", 0o755))

	store, err := storage.New(nil, "text_files")
	require.NoError(t, err)

	idx := index.NewManager(nil, store)
	pool := rwpool.New(nil, rwpool.Config{
		Workers:        1,
		WriterDuration: 0.5,
		ReaderDuration: 7.5,
	})
	t.Cleanup(func() { pool.Terminate(true) })

	return NewRouter(nil, idx, pool)
}

func TestPing(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStatus(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Index index.Stats  `json:"index"`
		Pool  rwpool.Stats `json:"pool"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Index.Files)
	assert.Equal(t, float32(7.5), body.Pool.ReaderDuration)
	assert.Equal(t, float32(0.5), body.Pool.WriterDuration)
}

func TestGetDurations(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/durations", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body durationsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float32(7.5), body.Reader)
	assert.Equal(t, float32(0.5), body.Writer)
}

func TestPutDurations(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/durations", strings.NewReader(`{"reader":2.0,"writer":1.0}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body durationsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float32(2.0), body.Reader)
	assert.Equal(t, float32(1.0), body.Writer)
}

func TestPutDurationsBelowFloor(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/durations", strings.NewReader(`{"writer":0.4}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPutDurationsMalformedBody(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/durations", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDHonoursClientHeader(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("X-Request-ID", "client-chosen-id")
	r.ServeHTTP(w, req)

	assert.Equal(t, "client-chosen-id", w.Header().Get("X-Request-ID"))
}
