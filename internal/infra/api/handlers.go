package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"job-search-mas/internal/application"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/infra/logging"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
	userIDNote          = "Save this user_id to access your profile and history later"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"message": "Job Search Multi-Agent System API",
		"version": s.cfg.Version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "healthy", "service": serviceName}
	code := http.StatusOK
	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		checks := map[string]string{}
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				logging.With(r.Context(), s.log).Warn().Err(err).Str("check", name).Msg("health check failed")
				checks[name] = "unreachable"
				body["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		body["checks"] = checks
	}
	JSON(w, code, body)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req model.TaskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUploadBytes()*2)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := s.facade.SubmitTask(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.facade.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.facade.ClearSession(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Session %s cleared", id)})
}

type applicationSummary struct {
	ApplicationID string    `json:"application_id"`
	JobID         string    `json:"job_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Server) handleUserApplications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	res, err := s.facade.Applications(r.Context(), userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]applicationSummary, 0, len(res.Applications))
	for _, a := range res.Applications {
		items = append(items, applicationSummary{
			ApplicationID: a.ApplicationID,
			JobID:         a.JobID,
			Status:        string(a.Status),
			CreatedAt:     a.CreatedAt,
			UpdatedAt:     a.UpdatedAt,
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"applications": items,
		"count":        len(items),
	})
}

func (s *Server) handleUserMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.facade.Metrics(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, m)
}

func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil || body.Status == "" {
		Error(w, http.StatusBadRequest, "status is required")
		return
	}
	res, err := s.facade.UpdateApplicationStatus(r.Context(), chi.URLParam(r, "applicationID"), body.Status)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"application_id": res.ApplicationID,
		"status":         res.Status,
	})
}

func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	file, err := s.formFile(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if file == nil {
		Error(w, http.StatusBadRequest, "File is required")
		return
	}
	out, err := s.facade.ParseResume(r.Context(), r.FormValue("user_id"), "", file)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Resume parsed successfully",
		"data":        out.Data,
		"filename":    out.Filename,
		"archive_key": out.ArchiveKey,
		"user_id":     out.UserID,
		"note":        userIDNote,
	})
}

func (s *Server) handleResumeParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	out, err := s.facade.ParseResume(r.Context(), r.FormValue("user_id"), r.FormValue("resume_text"), nil)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Resume parsed successfully",
		"data":    out.Data,
		"user_id": out.UserID,
		"note":    userIDNote,
	})
}

func (s *Server) handleFullJourney(w http.ResponseWriter, r *http.Request) {
	file, err := s.formFile(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	in := model.TaskInput{File: file}
	if file == nil {
		in.ResumeText = r.FormValue("resume_text")
	} else {
		in.Filename = file.Name
	}
	resp, err := s.facade.RunFullJourney(r.Context(), r.FormValue("user_id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, application.SanitizeResponse(resp))
}

func (s *Server) handleSimilarJobs(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		Error(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSimilarLimit)
	}
	jobs, err := s.facade.SimilarJobs(r.Context(), q, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if jobs == nil {
		jobs = []model.SimilarJob{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"query": q, "jobs": jobs, "count": len(jobs)})
}

// formFile reads the optional "file" part of a multipart form. A part with no name counts as absent.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (*model.ResumeFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	f, hdr, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	case err != nil:
		return nil, &application.ValidationError{Reason: "invalid multipart form: " + err.Error()}
	}
	defer f.Close()
	if hdr.Filename == "" {
		return nil, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &application.ValidationError{Reason: "failed to read upload: " + err.Error()}
	}
	return &model.ResumeFile{Name: hdr.Filename, MIME: hdr.Header.Get("Content-Type"), Data: data}, nil
}
