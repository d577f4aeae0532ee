package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/MimeLyc/videotools/internal/downloader"
	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/jobs"
	"github.com/MimeLyc/videotools/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

type infoRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.info == nil {
		writeError(w, http.StatusNotImplemented, "video info is not configured")
		return
	}
	var req infoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	info, err := s.info.Info(r.Context(), req.URL)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req downloader.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := downloader.ValidateURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quality, err := downloader.ParseQuality(string(req.Quality))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Quality = quality
	if req.SaveDir == "" {
		req.SaveDir = s.downloadDir
	} else {
		dir, ok := resolveWithin(s.allowedDirs, req.SaveDir)
		if !ok {
			writeError(w, http.StatusForbidden, "save_path is outside the allowed directories")
			return
		}
		req.SaveDir = dir
	}

	s.enqueue(w, jobs.EnqueueRequest{
		Kind:      jobs.KindDownload,
		Source:    "api",
		DedupeKey: strings.Join([]string{"download", req.URL, string(req.Quality), req.SaveDir}, "|"),
		Payload:   req,
	})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req service.TranslatePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.Output != "" || req.CaptionsOutput != "" || req.ThumbnailOutput != "" {
		writeError(w, http.StatusBadRequest, "output paths cannot be set over HTTP")
		return
	}

	var dedupeKey string
	switch {
	case strings.TrimSpace(req.Input) != "":
		input, ok := resolveWithin(s.allowedDirs, req.Input)
		if !ok {
			writeError(w, http.StatusForbidden, "input is outside the allowed directories")
			return
		}
		req.Input = input
		dedupeKey = service.TranslateDedupeKey(req.Input)
	case strings.TrimSpace(req.Content) != "":
		// inline content is never deduplicated
	default:
		writeError(w, http.StatusBadRequest, "input or content is required")
		return
	}

	s.enqueue(w, jobs.EnqueueRequest{
		Kind:      jobs.KindTranslate,
		Source:    "api",
		DedupeKey: dedupeKey,
		Payload:   req,
	})
}

func (s *Server) enqueue(w http.ResponseWriter, req jobs.EnqueueRequest) {
	job, created, err := s.queue.Enqueue(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusCreated
	if !created {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"created": created,
		"job":     job,
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.queue.List())
}

// handleJobDetail serves /api/jobs/{id}.
func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/")
	if decoded, err := url.PathUnescape(jobID); err == nil {
		jobID = decoded
	}
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	job, ok := s.queue.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch errs.TypeOf(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest
	case errs.ErrProcess:
		if downloader.IsNotInstalled(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errs.ErrNetwork, errs.ErrAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
