//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-search-mas/internal/application"
	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/usecase"
)

type stubFacade struct {
	application.Facade // unimplemented methods panic

	submitted *model.TaskRequest
	resp      *model.TaskResponse
	cleared   string
	err       error
}

func (s *stubFacade) SubmitTask(_ context.Context, req model.TaskRequest) (*model.TaskResponse, error) {
	s.submitted = &req
	return s.resp, s.err
}

func (s *stubFacade) Session(_ context.Context, id string) (*application.SessionView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &application.SessionView{SessionID: id, Context: model.NewSessionContext("u1", model.WorkflowFindJobs)}, nil
}

func (s *stubFacade) ClearSession(_ context.Context, id string) error {
	s.cleared = id
	return s.err
}

func (s *stubFacade) Applications(_ context.Context, userID string) (*usecase.AnalyticsResult, error) {
	at := time.Date(2025, 5, 4, 12, 30, 0, 0, time.UTC)
	return &usecase.AnalyticsResult{Count: 1, Applications: []*model.Application{
		{ApplicationID: "app_u1_j1", JobID: "j1", Status: model.ApplicationDraft, UpdatedAt: at},
	}}, nil
}

func (s *stubFacade) Metrics(context.Context, string) (*model.KPIMetrics, error) {
	return &model.KPIMetrics{TotalApplications: 2, InterviewRate: 50}, nil
}

func (s *stubFacade) UpdateApplicationStatus(_ context.Context, id, status string) (*usecase.AnalyticsResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.AnalyticsResult{ApplicationID: id, Status: status}, nil
}

func (s *stubFacade) SimilarJobs(_ context.Context, q string, limit int) ([]model.SimilarJob, error) {
	return []model.SimilarJob{{Job: model.JobPosting{Title: "Go Developer", Company: "Acme"}, Similarity: 0.9123}}, nil
}

func executeCLI(t *testing.T, f application.Facade, args ...string) (string, error) {
	t.Helper()
	released := false
	open := func(*cobra.Command, *globalOptions) (application.Facade, func(), error) {
		return f, func() { released = true }, nil
	}
	root := newRootCmd(open)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, released, "facade must be released")
	}
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Run("should submit a text resume and print the sanitized response", func(t *testing.T) {
		f := &stubFacade{resp: &model.TaskResponse{
			TaskID: "t1", Status: model.TaskCompleted,
			Result: map[string]any{"token": "x", "seniority": "senior"},
		}}
		out, err := executeCLI(t, f, "run", "analyze_profile", "--user", "u1", "--resume-text", "Senior Go developer")

		require.NoError(t, err)
		require.NotNil(t, f.submitted)
		assert.Equal(t, "u1", f.submitted.UserID)
		assert.Equal(t, "analyze_profile", f.submitted.TaskType)
		assert.Equal(t, "Senior Go developer", f.submitted.Input.ResumeText)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, map[string]any{"seniority": "senior"}, got["result"])
	})

	t.Run("should read a resume file and generate a user id", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cv.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
		f := &stubFacade{resp: &model.TaskResponse{Status: model.TaskCompleted}}

		_, err := executeCLI(t, f, "run", "full_journey", "--resume-file", path)

		require.NoError(t, err)
		require.NotNil(t, f.submitted.Input.File)
		assert.Equal(t, "cv.pdf", f.submitted.Input.File.Name)
		assert.Equal(t, []byte("%PDF-1.4"), f.submitted.Input.File.Data)
		assert.Regexp(t, `^user_[0-9a-f]{12}$`, f.submitted.UserID)
	})

	t.Run("should fail when the workflow fails", func(t *testing.T) {
		f := &stubFacade{resp: &model.TaskResponse{Status: model.TaskFailed, Error: "No job matches found"}}
		_, err := executeCLI(t, f, "run", "create_application", "--user", "u1", "--job-id", "j1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No job matches found")
	})

	t.Run("should surface validation errors", func(t *testing.T) {
		f := &stubFacade{err: &application.ValidationError{Reason: "Invalid task_type: dance"}}
		_, err := executeCLI(t, f, "run", "dance", "--user", "u1")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("should reject both resume sources", func(t *testing.T) {
		_, err := executeCLI(t, &stubFacade{}, "run", "analyze_profile", "--resume-file", "a.pdf", "--resume-text", "x")
		require.Error(t, err)
	})
}

func TestSessionCommands(t *testing.T) {
	f := &stubFacade{}
	out, err := executeCLI(t, f, "session", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, `"session_id": "s1"`)

	out, err = executeCLI(t, f, "session", "clear", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", f.cleared)
	assert.Equal(t, "Session s1 cleared\n", out)
}

func TestAnalyticsCommands(t *testing.T) {
	f := &stubFacade{}

	out, err := executeCLI(t, f, "applications", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "applications: 1")
	assert.Contains(t, out, "app_u1_j1\tj1\tdraft\t2025-05-04 12:30")

	out, err = executeCLI(t, f, "metrics", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_applications": 2`)

	out, err = executeCLI(t, f, "status", "app_u1_j1", "viewed")
	require.NoError(t, err)
	assert.Equal(t, "app_u1_j1 -> viewed\n", out)

	_, err = executeCLI(t, &stubFacade{err: &application.RequestError{Msg: usecase.MsgApplicationNotFound, Err: domain.ErrNotFound}}, "status", "x", "viewed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimilarCommand(t *testing.T) {
	out, err := executeCLI(t, &stubFacade{}, "similar", "golang backend", "--limit", "3")
	require.NoError(t, err)
	assert.Equal(t, "1. 0.912\tGo Developer\tAcme\n", out)

	_, err = executeCLI(t, &stubFacade{}, "similar", "golang", "--limit", "0")
	require.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := executeCLI(t, &stubFacade{}, "subscribe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "subscribe"`)
}
