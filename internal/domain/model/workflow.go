package model

import (
	"fmt"
	"strings"

	"job-search-mas/internal/domain"
)

// Workflow is the closed set of orchestrated pipelines.
type Workflow string

const (
	WorkflowAnalyzeProfile    Workflow = "analyze_profile"
	WorkflowFindJobs          Workflow = "find_jobs"
	WorkflowCreateApplication Workflow = "create_application"
	WorkflowFullJourney       Workflow = "full_journey"
)

var Workflows = []Workflow{
	WorkflowAnalyzeProfile,
	WorkflowFindJobs,
	WorkflowCreateApplication,
	WorkflowFullJourney,
}

func ParseWorkflow(s string) (Workflow, error) {
	for _, w := range Workflows {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownWorkflow, s)
}

func WorkflowNames() string {
	names := make([]string, len(Workflows))
	for i, w := range Workflows {
		names[i] = string(w)
	}
	return strings.Join(names, ", ")
}

type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ResumeFile is an uploaded résumé document.
type ResumeFile struct {
	Name string `json:"name,omitempty"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data,omitempty"`
}

func (f *ResumeFile) Empty() bool { return f == nil || len(f.Data) == 0 }

// TaskInput is the workflow payload.
type TaskInput struct {
	ResumeText string      `json:"resume_text,omitempty"`
	ResumePDF  []byte      `json:"resume_pdf,omitempty"`
	Filename   string      `json:"filename,omitempty"`
	JobID      string      `json:"job_id,omitempty"`
	File       *ResumeFile `json:"-"`
}

// ResumeFile returns the uploaded document, accepting the base64 PDF field as well.
func (in TaskInput) ResumeFile() *ResumeFile {
	if !in.File.Empty() {
		return in.File
	}
	if len(in.ResumePDF) > 0 {
		name := in.Filename
		if name == "" {
			name = "resume.pdf"
		}
		return &ResumeFile{Name: name, MIME: "application/pdf", Data: in.ResumePDF}
	}
	return nil
}

type TaskRequest struct {
	UserID    string    `json:"user_id"`
	TaskType  string    `json:"task_type"`
	SessionID string    `json:"session_id,omitempty"`
	Input     TaskInput `json:"input_data"`
}

type TaskResponse struct {
	TaskID     string     `json:"task_id"`
	SessionID  string     `json:"session_id"`
	Status     TaskStatus `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	AgentTrace []string   `json:"agent_trace"`
}

func (r *TaskResponse) Completed() bool { return r != nil && r.Status == TaskCompleted }

// JourneyApplication is one application produced by the full journey.
type JourneyApplication struct {
	JobID       string       `json:"job_id"`
	JobTitle    string       `json:"job_title"`
	Company     string       `json:"company"`
	Application *Application `json:"application"`
}

type JourneyResult struct {
	ProfileAnalysis   *TaskResponse        `json:"profile_analysis"`
	JobSearch         *TaskResponse        `json:"job_search"`
	Applications      []JourneyApplication `json:"applications"`
	ApplicationsCount int                  `json:"applications_count"`
}
