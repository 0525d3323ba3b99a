package model

import "time"

const fallbackTimeline = "3-6 months"

// Strategy is the career plan generated for a user.
type Strategy struct {
	StrategyID      string    `json:"strategy_id"`
	UserID          string    `json:"user_id"`
	Objectives      []string  `json:"objectives"`
	TargetPositions []string  `json:"target_positions"`
	TargetCompanies []string  `json:"target_companies"`
	PrioritySkills  []string  `json:"priority_skills"`
	Timeline        string    `json:"timeline"`
	CreatedAt       time.Time `json:"created_at"`
}

func StrategyIDFor(userID string) string { return "strategy_" + userID }

// FallbackStrategy is used whenever strategy generation fails.
func FallbackStrategy(userID string) *Strategy {
	return &Strategy{
		StrategyID:      StrategyIDFor(userID),
		UserID:          userID,
		Objectives:      []string{"Find suitable position"},
		TargetPositions: []string{"Software Developer"},
		TargetCompanies: []string{},
		PrioritySkills:  []string{},
		Timeline:        fallbackTimeline,
		CreatedAt:       time.Now().UTC(),
	}
}

// Complete reports whether the strategy names at least one target position and one objective.
func (s *Strategy) Complete() bool {
	return s != nil && len(s.TargetPositions) > 0 && len(s.Objectives) > 0
}
