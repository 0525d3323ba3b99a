// File: internal/usecase/agent.go
package usecase

import (
	"context"

	"job-search-mas/internal/domain/model"
)

// Agent names, as recorded in the session trace.
const (
	AgentStrategy        = "strategy_agent"
	AgentMarket          = "market_intelligence_agent"
	AgentPersonalization = "personalization_agent"
	AgentAnalytics       = "analytics_agent"
)

// AgentTask is the per-invocation payload of an agent.
type AgentTask struct {
	SessionID  string
	UserID     string
	ResumeText string
	ResumeFile *model.ResumeFile
	JobID      string

	// analytics only
	Op            AnalyticsOp
	ApplicationID string
	Status        string
}

// AgentResult is returned by every agent. Failures are data, not errors.
type AgentResult interface {
	Succeeded() bool
	Failure() string
}

// Agent is one step of a workflow. Process mutates only the SessionContext
// fields the agent owns; sc may be nil for agents that do not use it.
type Agent interface {
	Name() string
	Process(ctx context.Context, task AgentTask, sc *model.SessionContext) AgentResult
}

type resultBase struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (r resultBase) Succeeded() bool { return r.Success }
func (r resultBase) Failure() string { return r.Error }

func succeeded() resultBase        { return resultBase{Success: true} }
func failed(msg string) resultBase { return resultBase{Error: msg} }
