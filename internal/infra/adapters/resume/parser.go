package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/llmjson"
)

var _ adapter.ResumeParser = (*Parser)(nil)

const (
	minResumeRunes = 10
	maxPromptRunes = 12000
)

const systemPrompt = `You are an expert resume parser. Extract structured information from resumes.
Return a JSON object with the following fields:
- name: candidate full name or null
- email: contact e-mail or null
- skills: list of objects with name, level (beginner/intermediate/advanced/expert), years_experience
- seniority: one of "junior", "middle", "senior", "lead"
- mobility: one of "none", "local", "regional", "national", "international"
- location: city or region
- salary_expectations: integer or null
- career_objectives: string or null
- preferred_industries: list of strings

Return ONLY valid JSON, no additional text.`

// Parser turns résumé text or documents into a ParsedResume with one model call.
type Parser struct {
	ai    adapter.AIServiceAdapter
	model string
	log   *zerolog.Logger
}

func NewParser(ai adapter.AIServiceAdapter, modelName string, logger *zerolog.Logger) *Parser {
	l := logger.With().Str("component", "resume_parser").Logger()
	return &Parser{ai: ai, model: modelName, log: &l}
}

// Parse returns the default payload alongside any error.
func (p *Parser) Parse(ctx context.Context, in adapter.ResumeInput) (*model.ParsedResume, error) {
	text := in.Text
	if !in.File.Empty() || (in.File != nil && in.File.Name != "") {
		extracted, err := ExtractText(in.File)
		if err != nil {
			p.log.Warn().Err(err).Str("file", in.File.Name).Msg("resume extraction failed")
			return model.DefaultParsedResume(text), err
		}
		text = extracted
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.DefaultParsedResume(""), domain.ErrResumeMissing
	}
	if len([]rune(text)) < minResumeRunes {
		return model.DefaultParsedResume(text), domain.ErrResumeTooShort
	}

	reply, err := p.ai.Chat(ctx, p.model, []adapter.Message{
		adapter.SystemMessage(systemPrompt),
		adapter.UserMessage("Parse this resume:\n\n" + llmjson.Truncate(text, maxPromptRunes)),
	})
	if err != nil {
		p.log.Error().Err(err).Msg("resume model call failed")
		return model.DefaultParsedResume(text), fmt.Errorf("resume model call: %w", err)
	}

	var r parsedReply
	if err := llmjson.DecodeObject(reply, &r); err != nil {
		p.log.Error().Err(err).Msg("resume reply is not valid JSON")
		return model.DefaultParsedResume(text), fmt.Errorf("decode resume reply: %w", err)
	}
	out := r.toModel(text)
	p.log.Info().Int("skills", len(out.Skills)).Str("seniority", string(out.Seniority)).Msg("resume parsed")
	return out, nil
}

type parsedReply struct {
	Name                llmjson.Text    `json:"name"`
	Email               llmjson.Text    `json:"email"`
	Skills              []skillReply    `json:"skills"`
	Seniority           llmjson.Text    `json:"seniority"`
	Mobility            llmjson.Text    `json:"mobility"`
	Location            llmjson.Text    `json:"location"`
	SalaryExpectations  llmjson.Int     `json:"salary_expectations"`
	CareerObjectives    llmjson.Text    `json:"career_objectives"`
	PreferredIndustries llmjson.Strings `json:"preferred_industries"`
}

// skillReply accepts either {"name": ...} or a bare skill name.
type skillReply struct {
	Name  llmjson.Text  `json:"name"`
	Level llmjson.Text  `json:"level"`
	Years llmjson.Float `json:"years_experience"`
}

func (s *skillReply) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*s = skillReply{Name: llmjson.Text(name)}
		return nil
	}
	type plain skillReply
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = skillReply(v)
	return nil
}

func (r *parsedReply) toModel(text string) *model.ParsedResume {
	out := model.DefaultParsedResume(text)
	out.Name = strings.TrimSpace(string(r.Name))
	out.Email = strings.TrimSpace(string(r.Email))
	for _, s := range r.Skills {
		name := strings.TrimSpace(string(s.Name))
		if name == "" {
			continue
		}
		out.Skills = append(out.Skills, model.Skill{
			Name:            name,
			Level:           strings.ToLower(strings.TrimSpace(string(s.Level))),
			YearsExperience: s.Years.Ptr(),
		})
	}
	out.Seniority = model.ParseSeniority(string(r.Seniority))
	out.Mobility = model.ParseMobility(string(r.Mobility))
	out.Location = strings.TrimSpace(string(r.Location))
	out.SalaryExpectations = r.SalaryExpectations.Ptr()
	out.CareerObjectives = strings.TrimSpace(string(r.CareerObjectives))
	out.PreferredIndustries = r.PreferredIndustries.Or()
	return out
}
