package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/videotools/internal/jobs"
)

func TestServer_ServesSPAFromStaticDir(t *testing.T) {
	staticDir := filepath.Join(t.TempDir(), "web")
	require.NoError(t, os.MkdirAll(staticDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>spa</html>"), 0o644))

	server := NewServer(jobs.NewQueue(1, nil), nil, WithUI(staticDir, true))

	for _, url := range []string{"/", "/downloads/abc"} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()

		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "spa")
	}
}

func TestServer_StaticDisabled(t *testing.T) {
	server := NewServer(jobs.NewQueue(1, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
