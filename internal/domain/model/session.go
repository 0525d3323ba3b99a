package model

import (
	"encoding/json"
	"time"
)

// SessionContextVersion is bumped whenever the stored shape of SessionContext changes.
const SessionContextVersion = 1

// SessionContext is the state threaded through the agents of one workflow run.
// Agents own disjoint optional fields:
//
//	strategy_agent               writes Profile, Strategy
//	market_intelligence_agent    reads Profile, Strategy; writes JobMatches
//	personalization_agent        reads Profile, JobMatches; writes Application
type SessionContext struct {
	Version     int          `json:"version"`
	UserID      string       `json:"user_id"`
	TaskType    Workflow     `json:"task_type"`
	AgentTrace  []string     `json:"agent_trace"`
	Profile     *Profile     `json:"profile,omitempty"`
	Strategy    *Strategy    `json:"strategy,omitempty"`
	JobMatches  []JobMatch   `json:"job_matches"` // nil = absent, [] = searched, nothing found
	Application *Application `json:"application,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func NewSessionContext(userID string, wf Workflow) *SessionContext {
	return &SessionContext{
		Version:    SessionContextVersion,
		UserID:     userID,
		TaskType:   wf,
		AgentTrace: []string{},
		UpdatedAt:  time.Now().UTC(),
	}
}

// Restart begins a new workflow run on the context. Agent-owned fields are kept so
// a later workflow can build on an earlier one in the same session.
func (c *SessionContext) Restart(userID string, wf Workflow) {
	c.UserID = userID
	c.TaskType = wf
	c.AgentTrace = []string{}
}

func (c *SessionContext) AppendTrace(agent string) {
	c.AgentTrace = append(c.AgentTrace, agent)
}

func (c *SessionContext) HasJobMatches() bool { return c.JobMatches != nil }

// SetJobMatches records a search result; an empty result is still "present".
func (c *SessionContext) SetJobMatches(jobs []JobMatch) {
	if jobs == nil {
		jobs = []JobMatch{}
	}
	c.JobMatches = jobs
}

// FindJobMatch performs a linear scan by job id.
func (c *SessionContext) FindJobMatch(jobID string) (*JobMatch, bool) {
	for i := range c.JobMatches {
		if c.JobMatches[i].Job.JobID == jobID {
			return &c.JobMatches[i], true
		}
	}
	return nil, false
}

// Trace returns a copy of the agent trace.
func (c *SessionContext) Trace() []string {
	out := make([]string, len(c.AgentTrace))
	copy(out, c.AgentTrace)
	return out
}

// Workspace keeps the last output of every agent for observability.
type Workspace struct {
	AgentOutputs map[string]json.RawMessage `json:"agent_outputs"`
	LastUpdated  time.Time                  `json:"last_updated"`
}

func NewWorkspace() *Workspace {
	return &Workspace{AgentOutputs: map[string]json.RawMessage{}}
}
