package application

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all|above)`),
	regexp.MustCompile(`(?i)forget\s+(previous|all|above)`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)assistant\s*:`),
	regexp.MustCompile(`(?i)user\s*:`),
	regexp.MustCompile(`(?i)<\|.*?\|>`),
	regexp.MustCompile(`(?i)\[INST\]`),
	regexp.MustCompile(`(?i)\[/INST\]`),
}

var sensitiveKeyParts = []string{"api_key", "password", "token", "secret"}

// ValidationError is returned for requests rejected before any agent runs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "Input validation failed: " + e.Reason }
func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

// RequestError carries a user-facing message for a request that could not be served.
type RequestError struct {
	Msg string
	Err error
}

func (e *RequestError) Error() string { return e.Msg }
func (e *RequestError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// DetectInjection reports whether text looks like a prompt injection attempt.
func DetectInjection(text string) bool {
	for _, re := range injectionPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ValidateTask checks a task request the same way for every entry point.
func ValidateTask(req model.TaskRequest) error {
	fields := []struct{ name, value string }{
		{"user_id", req.UserID},
		{"task_type", req.TaskType},
		{"session_id", req.SessionID},
		{"input_data.resume_text", req.Input.ResumeText},
		{"input_data.job_id", req.Input.JobID},
		{"input_data.filename", req.Input.Filename},
	}
	for _, f := range fields {
		if f.value != "" && DetectInjection(f.value) {
			return invalid("Invalid input detected in field: %s", f.name)
		}
	}
	if _, err := model.ParseWorkflow(req.TaskType); err != nil {
		return invalid("Invalid task_type: %s", req.TaskType)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return invalid("user_id is required")
	}
	return nil
}

// SanitizeResponse returns a copy of resp whose result has every sensitive key removed at any depth.
func SanitizeResponse(resp *model.TaskResponse) *model.TaskResponse {
	if resp == nil {
		return nil
	}
	out := *resp
	out.Result = Sanitize(resp.Result)
	return &out
}

// Sanitize converts v to its generic JSON form and drops keys naming credentials.
func Sanitize(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return v
	}
	return scrub(generic)
}

func scrub(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if isSensitiveKey(k) {
				delete(t, k)
				continue
			}
			t[k] = scrub(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = scrub(t[i])
		}
		return t
	default:
		return v
	}
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}
