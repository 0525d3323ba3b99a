package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Workflow and input errors
	ErrUnknownWorkflow   = errors.New("unknown workflow")
	ErrValidation        = errors.New("input validation failed")
	ErrInvalidStatus     = errors.New("invalid application status")
	ErrResumeTooShort    = errors.New("resume text is too short or empty")
	ErrResumeMissing     = errors.New("resume text or file is required")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrEmptyFile         = errors.New("empty file")
	ErrJobMatchesMissing = errors.New("job matches not found")

	// Infrastructure
	ErrJourneyInProgress = errors.New("a resume is already being processed for this user")
	ErrQueueFull         = errors.New("worker queue full")
	ErrEmptyModelReply   = errors.New("model returned an empty reply")
	ErrAIUnavailable     = errors.New("no ai provider configured")
)
