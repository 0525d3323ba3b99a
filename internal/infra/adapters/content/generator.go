package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/llmjson"
)

var _ adapter.ContentGenerator = (*Generator)(nil)

const (
	coverLetterSystem = `Вы - эксперт по карьерному консультированию. Напишите убедительное, персонализированное сопроводительное письмо (300-400 слов) на русском языке, которое подчеркивает релевантный опыт и навыки кандидата для конкретной вакансии. Письмо должно быть профессиональным, структурированным и убедительным.

Важно: Все письмо должно быть написано на русском языке!`

	coverLetterUser = `Напишите сопроводительное письмо на русском языке:

Информация о кандидате:
Имя и контакты (из резюме): %s
Навыки: %s
Уровень: %s
Цели: %s

Вакансия: %s в %s
Требования: %s
Описание: %s

ВАЖНО:
- Используй реальное имя кандидата из резюме (НЕ плейсхолдеры типа [Ваше имя])
- Используй реальные контакты из резюме (телефон, email) вместо плейсхолдеров
- Письмо должно заканчиваться подписью с реальным именем и контактами

Напишите сопроводительное письмо на русском языке с реальными данными кандидата:`

	adaptedResumeSystem = `Вы - эксперт по написанию резюме. Адаптируйте резюме кандидата так, чтобы оно лучше соответствовало требованиям вакансии. Переупорядочьте разделы, подчеркните релевантный опыт и скорректируйте формулировки в соответствии с описанием вакансии.

Важно: Все резюме должно быть написано на русском языке! Сохраните структуру и форматирование оригинального резюме, но адаптируйте содержание под вакансию.`

	adaptedResumeUser = `Адаптируйте это резюме для вакансии на русском языке:

Резюме: %s
Вакансия: %s в %s
Требования: %s
Необходимые навыки: %s

Создайте адаптированное резюме на русском языке:`
)

const (
	maxJobTextRunes   = 500
	maxResumeRunes    = 2000
	defaultObjectives = "Career growth"
	promptSkillsLimit = 10
)

// Generator writes Russian cover letters and adapted résumés with one model call each.
type Generator struct {
	ai    adapter.AIServiceAdapter
	model string
	log   *zerolog.Logger
}

func NewGenerator(ai adapter.AIServiceAdapter, modelName string, logger *zerolog.Logger) *Generator {
	l := logger.With().Str("component", "content_generator").Logger()
	return &Generator{ai: ai, model: modelName, log: &l}
}

func (g *Generator) Generate(ctx context.Context, kind adapter.ContentKind, profile *model.Profile, job *model.JobPosting) (string, error) {
	if profile == nil || job == nil {
		return "", domain.ErrInvalidArgument
	}
	var system, user string
	switch kind {
	case adapter.ContentCoverLetter:
		system, user = coverLetterSystem, coverLetterPrompt(profile, job)
	case adapter.ContentAdaptedResume:
		system, user = adaptedResumeSystem, adaptedResumePrompt(profile, job)
	default:
		return "", fmt.Errorf("%w: unknown content type %s", domain.ErrInvalidArgument, kind)
	}

	reply, err := g.ai.Chat(ctx, g.model, []adapter.Message{
		adapter.SystemMessage(system),
		adapter.UserMessage(user),
	})
	if err != nil {
		g.log.Error().Err(err).Str("kind", string(kind)).Str("job_id", job.JobID).Msg("content generation failed")
		return "", err
	}
	text := strings.TrimSpace(reply)
	if text == "" {
		return "", domain.ErrEmptyModelReply
	}
	g.log.Info().Str("kind", string(kind)).Str("job_id", job.JobID).Msg("content generated")
	return text, nil
}

func coverLetterPrompt(p *model.Profile, job *model.JobPosting) string {
	objectives := p.CareerObjectives
	if objectives == "" {
		objectives = defaultObjectives
	}
	return fmt.Sprintf(coverLetterUser,
		CandidateInfo(p.ResumeText),
		strings.Join(p.SkillNames(promptSkillsLimit), ", "),
		string(p.Seniority),
		objectives,
		job.Title, job.Company,
		llmjson.Truncate(strings.Join(job.Requirements, ", "), maxJobTextRunes),
		llmjson.Truncate(job.Description, maxJobTextRunes),
	)
}

func adaptedResumePrompt(p *model.Profile, job *model.JobPosting) string {
	return fmt.Sprintf(adaptedResumeUser,
		llmjson.Truncate(p.ResumeText, maxResumeRunes),
		job.Title, job.Company,
		strings.Join(job.Requirements, ", "),
		strings.Join(job.SkillsRequired, ", "),
	)
}
