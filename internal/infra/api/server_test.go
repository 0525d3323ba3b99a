//go:build !integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-search-mas/internal/application"
	"job-search-mas/internal/config"
	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/usecase"
)

type fakeFacade struct {
	SubmitTaskFunc     func(ctx context.Context, req model.TaskRequest) (*model.TaskResponse, error)
	RunFullJourneyFunc func(ctx context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error)
	ParseResumeFunc    func(ctx context.Context, userID, text string, file *model.ResumeFile) (*application.ParseOutcome, error)
	SessionFunc        func(ctx context.Context, id string) (*application.SessionView, error)
	ClearSessionFunc   func(ctx context.Context, id string) error
	ApplicationsFunc   func(ctx context.Context, userID string) (*usecase.AnalyticsResult, error)
	MetricsFunc        func(ctx context.Context, userID string) (*model.KPIMetrics, error)
	UpdateStatusFunc   func(ctx context.Context, applicationID, status string) (*usecase.AnalyticsResult, error)
	SimilarJobsFunc    func(ctx context.Context, q string, limit int) ([]model.SimilarJob, error)
}

var _ application.Facade = (*fakeFacade)(nil)

func (f *fakeFacade) SubmitTask(ctx context.Context, req model.TaskRequest) (*model.TaskResponse, error) {
	return f.SubmitTaskFunc(ctx, req)
}
func (f *fakeFacade) RunFullJourney(ctx context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error) {
	return f.RunFullJourneyFunc(ctx, userID, in)
}
func (f *fakeFacade) ParseResume(ctx context.Context, userID, text string, file *model.ResumeFile) (*application.ParseOutcome, error) {
	return f.ParseResumeFunc(ctx, userID, text, file)
}
func (f *fakeFacade) Session(ctx context.Context, id string) (*application.SessionView, error) {
	return f.SessionFunc(ctx, id)
}
func (f *fakeFacade) ClearSession(ctx context.Context, id string) error {
	return f.ClearSessionFunc(ctx, id)
}
func (f *fakeFacade) Applications(ctx context.Context, userID string) (*usecase.AnalyticsResult, error) {
	return f.ApplicationsFunc(ctx, userID)
}
func (f *fakeFacade) Metrics(ctx context.Context, userID string) (*model.KPIMetrics, error) {
	return f.MetricsFunc(ctx, userID)
}
func (f *fakeFacade) UpdateApplicationStatus(ctx context.Context, applicationID, status string) (*usecase.AnalyticsResult, error) {
	return f.UpdateStatusFunc(ctx, applicationID, status)
}
func (f *fakeFacade) SimilarJobs(ctx context.Context, q string, limit int) ([]model.SimilarJob, error) {
	return f.SimilarJobsFunc(ctx, q, limit)
}

func newTestServer(f *fakeFacade) *Server {
	return NewServer(f, config.AppConfig{Version: "1.2.3", RequestTimeout: time.Minute, MaxUploadMB: 1}, logging.Nop())
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(&fakeFacade{})

	t.Run("should describe the service", func(t *testing.T) {
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1.2.3", body["version"])
		assert.Equal(t, "running", body["status"])
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("should report healthy without checks", func(t *testing.T) {
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "job-search-mas", body["service"])
	})

	t.Run("should degrade when a dependency is down", func(t *testing.T) {
		s := newTestServer(&fakeFacade{}).
			WithHealthCheck("postgres", func(context.Context) error { return nil }).
			WithHealthCheck("redis", func(context.Context) error { return errors.New("down") })
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, map[string]interface{}{"postgres": "ok", "redis": "unreachable"}, body["checks"])
	})

	t.Run("should serve prometheus metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCreateTask(t *testing.T) {
	t.Run("should pass the decoded request to the facade", func(t *testing.T) {
		var got model.TaskRequest
		s := newTestServer(&fakeFacade{SubmitTaskFunc: func(_ context.Context, req model.TaskRequest) (*model.TaskResponse, error) {
			got = req
			return &model.TaskResponse{TaskID: "t1", SessionID: "s1", Status: model.TaskCompleted, AgentTrace: []string{"strategy_agent"}}, nil
		}})
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(
			`{"user_id":"u1","task_type":"analyze_profile","input_data":{"resume_text":"Go developer"}}`))
		rec, body := do(t, s, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "Go developer", got.Input.ResumeText)
		assert.Equal(t, "completed", body["status"])
	})

	t.Run("should map validation errors to 400", func(t *testing.T) {
		s := newTestServer(&fakeFacade{SubmitTaskFunc: func(context.Context, model.TaskRequest) (*model.TaskResponse, error) {
			return nil, &application.ValidationError{Reason: "Invalid task_type: dance"}
		}})
		rec, body := do(t, s, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"user_id":"u1","task_type":"dance"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Input validation failed: Invalid task_type: dance", body["detail"])
	})

	t.Run("should reject malformed json", func(t *testing.T) {
		rec, _ := do(t, newTestServer(&fakeFacade{}), httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should map unexpected errors to 500", func(t *testing.T) {
		s := newTestServer(&fakeFacade{SubmitTaskFunc: func(context.Context, model.TaskRequest) (*model.TaskResponse, error) {
			return nil, errors.New("boom")
		}})
		rec, body := do(t, s, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "boom", body["detail"])
	})
}

func TestSessions(t *testing.T) {
	var cleared string
	s := newTestServer(&fakeFacade{
		SessionFunc: func(_ context.Context, id string) (*application.SessionView, error) {
			return &application.SessionView{SessionID: id}, nil
		},
		ClearSessionFunc: func(_ context.Context, id string) error { cleared = id; return nil },
	})

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", body["session_id"])
	assert.Nil(t, body["context"])

	rec, body = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/sessions/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", cleared)
	assert.Equal(t, "Session abc cleared", body["message"])
}

func TestAnalyticsRoutes(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newTestServer(&fakeFacade{
		ApplicationsFunc: func(_ context.Context, userID string) (*usecase.AnalyticsResult, error) {
			return &usecase.AnalyticsResult{Applications: []*model.Application{
				{ApplicationID: "app_u1_j1", JobID: "j1", Status: model.ApplicationStatus("draft"), CreatedAt: created, UpdatedAt: created},
			}, Count: 1}, nil
		},
		MetricsFunc: func(_ context.Context, userID string) (*model.KPIMetrics, error) {
			return &model.KPIMetrics{TotalApplications: 4}, nil
		},
		UpdateStatusFunc: func(_ context.Context, id, status string) (*usecase.AnalyticsResult, error) {
			if id == "missing" {
				return nil, &application.RequestError{Msg: usecase.MsgApplicationNotFound, Err: domain.ErrNotFound}
			}
			return &usecase.AnalyticsResult{ApplicationID: id, Status: status}, nil
		},
	})

	t.Run("should list applications", func(t *testing.T) {
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/users/u1/applications", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", body["user_id"])
		assert.EqualValues(t, 1, body["count"])
		apps := body["applications"].([]interface{})
		assert.Equal(t, "app_u1_j1", apps[0].(map[string]interface{})["application_id"])
	})

	t.Run("should return metrics", func(t *testing.T) {
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/users/u1/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 4, body["total_applications"])
	})

	t.Run("should update a status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/applications/app_u1_j1/status", strings.NewReader(`{"status":"viewed"}`))
		rec, body := do(t, s, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "viewed", body["status"])
	})

	t.Run("should return 404 for an unknown application", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/applications/missing/status", strings.NewReader(`{"status":"viewed"}`))
		rec, body := do(t, s, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, usecase.MsgApplicationNotFound, body["detail"])
	})

	t.Run("should require a status", func(t *testing.T) {
		rec, _ := do(t, s, httptest.NewRequest(http.MethodPatch, "/api/applications/x/status", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResumeRoutes(t *testing.T) {
	t.Run("should parse an uploaded file", func(t *testing.T) {
		var gotFile *model.ResumeFile
		s := newTestServer(&fakeFacade{ParseResumeFunc: func(_ context.Context, userID, text string, file *model.ResumeFile) (*application.ParseOutcome, error) {
			gotFile = file
			return &application.ParseOutcome{UserID: "user_abc", Filename: file.Name, Data: model.DefaultParsedResume("x")}, nil
		}})
		body, ct := multipartBody(t, nil, "cv.pdf", []byte("%PDF"))
		req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", body)
		req.Header.Set("Content-Type", ct)
		rec, out := do(t, s, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotFile)
		assert.Equal(t, []byte("%PDF"), gotFile.Data)
		assert.Equal(t, "cv.pdf", out["filename"])
		assert.Equal(t, "user_abc", out["user_id"])
	})

	t.Run("should require a file for upload", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"user_id": "u1"}, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", body)
		req.Header.Set("Content-Type", ct)
		rec, out := do(t, newTestServer(&fakeFacade{}), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "File is required", out["detail"])
	})

	t.Run("should reject unsupported files", func(t *testing.T) {
		s := newTestServer(&fakeFacade{ParseResumeFunc: func(context.Context, string, string, *model.ResumeFile) (*application.ParseOutcome, error) {
			return nil, &application.RequestError{Msg: "Only PDF and DOCX files are supported", Err: domain.ErrUnsupportedFile}
		}})
		body, ct := multipartBody(t, nil, "cv.png", []byte("png"))
		req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", body)
		req.Header.Set("Content-Type", ct)
		rec, out := do(t, s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Only PDF and DOCX files are supported", out["detail"])
	})

	t.Run("should parse form text", func(t *testing.T) {
		var gotText, gotUser string
		s := newTestServer(&fakeFacade{ParseResumeFunc: func(_ context.Context, userID, text string, file *model.ResumeFile) (*application.ParseOutcome, error) {
			gotText, gotUser = text, userID
			return &application.ParseOutcome{UserID: userID, Data: model.DefaultParsedResume(text)}, nil
		}})
		form := url.Values{"resume_text": {"Senior Go developer"}, "user_id": {"u9"}}
		req := httptest.NewRequest(http.MethodPost, "/api/resume/parse", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec, out := do(t, s, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Senior Go developer", gotText)
		assert.Equal(t, "u9", gotUser)
		assert.Equal(t, true, out["success"])
	})

	t.Run("should run the full journey from text and sanitize the result", func(t *testing.T) {
		var gotIn model.TaskInput
		s := newTestServer(&fakeFacade{RunFullJourneyFunc: func(_ context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error) {
			gotIn = in
			return &model.TaskResponse{Status: model.TaskCompleted, Result: map[string]interface{}{"api_key": "secret", "count": 1}}, nil
		}})
		form := url.Values{"resume_text": {"Senior Go developer with ten years"}}
		req := httptest.NewRequest(http.MethodPost, "/api/resume/full-journey", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec, out := do(t, s, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, gotIn.File)
		assert.Equal(t, "Senior Go developer with ten years", gotIn.ResumeText)
		result := out["result"].(map[string]interface{})
		assert.NotContains(t, result, "api_key")
		assert.EqualValues(t, 1, result["count"])
	})

	t.Run("should run the full journey from a file", func(t *testing.T) {
		var gotIn model.TaskInput
		s := newTestServer(&fakeFacade{RunFullJourneyFunc: func(_ context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error) {
			gotIn = in
			return &model.TaskResponse{Status: model.TaskCompleted}, nil
		}})
		body, ct := multipartBody(t, map[string]string{"user_id": "u2"}, "cv.docx", []byte("PK"))
		req := httptest.NewRequest(http.MethodPost, "/api/resume/full-journey", body)
		req.Header.Set("Content-Type", ct)
		rec, _ := do(t, s, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotIn.File)
		assert.Equal(t, "cv.docx", gotIn.File.Name)
		assert.Equal(t, "cv.docx", gotIn.Filename)
	})
}

func TestSimilarJobs(t *testing.T) {
	var gotLimit int
	s := newTestServer(&fakeFacade{SimilarJobsFunc: func(_ context.Context, q string, limit int) ([]model.SimilarJob, error) {
		gotLimit = limit
		return nil, nil
	}})

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/similar?q=golang", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultSimilarLimit, gotLimit)
	assert.Equal(t, []interface{}{}, body["jobs"])

	_, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/similar?q=golang&limit=500", nil))
	assert.Equal(t, maxSimilarLimit, gotLimit)

	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/similar", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/similar?q=go&limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecover(t *testing.T) {
	s := newTestServer(&fakeFacade{MetricsFunc: func(context.Context, string) (*model.KPIMetrics, error) {
		panic("kaboom")
	}})
	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/users/u1/metrics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "kaboom", body["detail"])
}
