package model

import (
	"strings"
	"time"
)

type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SeniorityMiddle Seniority = "middle"
	SenioritySenior Seniority = "senior"
	SeniorityLead   Seniority = "lead"
)

// ParseSeniority maps free text onto the closed set, defaulting to middle.
func ParseSeniority(s string) Seniority {
	switch Seniority(strings.ToLower(strings.TrimSpace(s))) {
	case SeniorityJunior:
		return SeniorityJunior
	case SenioritySenior:
		return SenioritySenior
	case SeniorityLead:
		return SeniorityLead
	default:
		return SeniorityMiddle
	}
}

type Mobility string

const (
	MobilityNone          Mobility = "none"
	MobilityLocal         Mobility = "local"
	MobilityRegional      Mobility = "regional"
	MobilityNational      Mobility = "national"
	MobilityInternational Mobility = "international"
)

// ParseMobility maps free text onto the closed set, defaulting to local.
func ParseMobility(s string) Mobility {
	switch m := Mobility(strings.ToLower(strings.TrimSpace(s))); m {
	case MobilityNone, MobilityRegional, MobilityNational, MobilityInternational:
		return m
	default:
		return MobilityLocal
	}
}

type Skill struct {
	Name            string   `json:"name"`
	Level           string   `json:"level,omitempty"`
	YearsExperience *float64 `json:"years_experience,omitempty"`
}

// ParsedResume is the structured view of a résumé produced by the parser.
type ParsedResume struct {
	Name                string    `json:"name,omitempty"`
	Email               string    `json:"email,omitempty"`
	Skills              []Skill   `json:"skills"`
	Seniority           Seniority `json:"seniority"`
	Mobility            Mobility  `json:"mobility"`
	Location            string    `json:"location,omitempty"`
	SalaryExpectations  *int      `json:"salary_expectations,omitempty"`
	CareerObjectives    string    `json:"career_objectives,omitempty"`
	PreferredIndustries []string  `json:"preferred_industries"`
	ResumeText          string    `json:"resume_text"`
}

// DefaultParsedResume is what callers get back when parsing fails.
func DefaultParsedResume(text string) *ParsedResume {
	return &ParsedResume{
		Skills:              []Skill{},
		Seniority:           SeniorityMiddle,
		Mobility:            MobilityLocal,
		PreferredIndustries: []string{},
		ResumeText:          text,
	}
}

// Profile is the candidate profile built from a parsed résumé.
type Profile struct {
	UserID              string    `json:"user_id"`
	Name                string    `json:"name,omitempty"`
	Email               string    `json:"email,omitempty"`
	ResumeText          string    `json:"resume_text"`
	Skills              []Skill   `json:"skills"`
	Seniority           Seniority `json:"seniority"`
	Mobility            Mobility  `json:"mobility"`
	Location            string    `json:"location,omitempty"`
	SalaryExpectations  *int      `json:"salary_expectations,omitempty"`
	CareerObjectives    string    `json:"career_objectives,omitempty"`
	PreferredIndustries []string  `json:"preferred_industries"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewProfile(userID, resumeText string, parsed *ParsedResume) *Profile {
	now := time.Now().UTC()
	p := &Profile{
		UserID:              userID,
		ResumeText:          resumeText,
		Skills:              []Skill{},
		Seniority:           SeniorityMiddle,
		Mobility:            MobilityLocal,
		PreferredIndustries: []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if parsed == nil {
		return p
	}
	p.Name = parsed.Name
	p.Email = parsed.Email
	if parsed.Skills != nil {
		p.Skills = parsed.Skills
	}
	p.Seniority = ParseSeniority(string(parsed.Seniority))
	p.Mobility = ParseMobility(string(parsed.Mobility))
	p.Location = parsed.Location
	p.SalaryExpectations = parsed.SalaryExpectations
	p.CareerObjectives = parsed.CareerObjectives
	if parsed.PreferredIndustries != nil {
		p.PreferredIndustries = parsed.PreferredIndustries
	}
	if p.ResumeText == "" {
		p.ResumeText = parsed.ResumeText
	}
	return p
}

// SkillNames returns at most n skill names in profile order; n <= 0 means all.
func (p *Profile) SkillNames(n int) []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		if s.Name == "" {
			continue
		}
		out = append(out, s.Name)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
