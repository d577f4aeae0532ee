package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/MimeLyc/videotools/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps the event stream working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// allowedOrigin accepts browser calls from the server's own host and from
// loopback pages such as a local UI dev server.
func allowedOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Host == host {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// instrument applies the CORS policy and counts requests by route pattern,
// so job ids never become label values.
func instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		endpoint := "unmatched"

		switch origin := r.Header.Get("Origin"); {
		case origin != "" && !allowedOrigin(origin, r.Host):
			endpoint = "forbidden_origin"
			writeError(rec, http.StatusForbidden, "cross-origin request not allowed")
		case r.Method == http.MethodOptions:
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			endpoint = "preflight"
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			rec.WriteHeader(http.StatusNoContent)
		default:
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			mux.ServeHTTP(rec, r)
			if r.Pattern != "" {
				endpoint = r.Pattern
			}
		}

		metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(rec.status))
	})
}
