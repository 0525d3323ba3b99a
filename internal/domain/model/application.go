package model

import (
	"fmt"
	"time"

	"job-search-mas/internal/domain"
)

type ApplicationStatus string

const (
	ApplicationDraft     ApplicationStatus = "draft"
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationViewed    ApplicationStatus = "viewed"
	ApplicationInterview ApplicationStatus = "interview"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationAccepted  ApplicationStatus = "accepted"
)

func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case ApplicationDraft, ApplicationSubmitted, ApplicationViewed,
		ApplicationInterview, ApplicationRejected, ApplicationAccepted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrInvalidStatus, s)
}

type Application struct {
	ApplicationID string            `json:"application_id"`
	UserID        string            `json:"user_id"`
	JobID         string            `json:"job_id"`
	Status        ApplicationStatus `json:"status"`
	CoverLetter   string            `json:"cover_letter"`
	AdaptedResume string            `json:"adapted_resume"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	ViewedAt      *time.Time        `json:"viewed_at,omitempty"`
	InterviewAt   *time.Time        `json:"interview_at,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// JobRelevance is the relevance score of the linked posting, when known.
	JobRelevance *float64 `json:"job_relevance_score,omitempty"`
}

func ApplicationIDFor(userID, jobID string) string {
	return fmt.Sprintf("app_%s_%s", userID, jobID)
}

func NewApplication(userID, jobID string) *Application {
	now := time.Now().UTC()
	return &Application{
		ApplicationID: ApplicationIDFor(userID, jobID),
		UserID:        userID,
		JobID:         jobID,
		Status:        ApplicationDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetStatus moves the application to st. Milestone timestamps are stamped
// on the first transition only.
func (a *Application) SetStatus(st ApplicationStatus, now time.Time) {
	a.Status = st
	a.UpdatedAt = now
	switch st {
	case ApplicationSubmitted:
		if a.SubmittedAt == nil {
			a.SubmittedAt = &now
		}
	case ApplicationViewed:
		if a.ViewedAt == nil {
			a.ViewedAt = &now
		}
	case ApplicationInterview:
		if a.InterviewAt == nil {
			a.InterviewAt = &now
		}
	}
}

func (a *Application) WasViewed() bool {
	switch a.Status {
	case ApplicationViewed, ApplicationInterview, ApplicationAccepted:
		return true
	}
	return false
}

func (a *Application) ReachedInterview() bool {
	return a.Status == ApplicationInterview || a.Status == ApplicationAccepted
}
