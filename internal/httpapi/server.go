package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MimeLyc/videotools/internal/downloader"
	"github.com/MimeLyc/videotools/internal/jobs"
	"github.com/MimeLyc/videotools/internal/metrics"
)

// InfoFetcher looks up video metadata without downloading.
type InfoFetcher interface {
	Info(ctx context.Context, url string) (*downloader.VideoInfo, error)
}

type Server struct {
	queue *jobs.Queue
	info  InfoFetcher

	downloadDir    string
	allowedDirs    []string
	streamInterval time.Duration

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

// WithDownloadDir sets where downloads go when a request names no save path.
func WithDownloadDir(dir string) Option {
	return func(s *Server) {
		s.downloadDir = dir
	}
}

// WithAllowedDirs limits the file paths a request may name to these
// directories. Without it only inline content is accepted.
func WithAllowedDirs(dirs ...string) Option {
	return func(s *Server) {
		for _, dir := range dirs {
			if dir != "" {
				s.allowedDirs = append(s.allowedDirs, dir)
			}
		}
	}
}

func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

func NewServer(queue *jobs.Queue, info InfoFetcher, opts ...Option) *Server {
	s := &Server{
		queue:          queue,
		info:           info,
		streamInterval: time.Second,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return instrument(s.mux)
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/info", s.handleInfo)
	s.mux.HandleFunc("/api/download", s.handleDownload)
	s.mux.HandleFunc("/api/translate", s.handleTranslate)
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobDetail)
	s.mux.HandleFunc("/api/jobs/stream", s.handleJobStream)
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
