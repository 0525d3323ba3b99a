package telegram

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/infra/metrics"
	red "job-search-mas/internal/infra/redis"
	"job-search-mas/internal/usecase"
)

const (
	jobsPerMessage   = 8
	summarySkills    = 5
	batchPause       = 300 * time.Millisecond
	applicationPause = 500 * time.Millisecond
)

// runJourney runs one résumé through the full journey, holding the per-user lock.
func (r *RealTelegramBotAdapter) runJourney(ctx context.Context, message *tgbotapi.Message, statusID int, kind string, in model.TaskInput) error {
	t := r.deps.Translator
	tgID, chatID := message.From.ID, message.Chat.ID
	userID := fmt.Sprintf("tg_%d", tgID)
	ctx = logging.WithUserID(ctx, userID)
	log := logging.With(ctx, r.log)

	if r.deps.Locker != nil {
		key := red.JourneyLockKey(tgID)
		token, err := r.deps.Locker.TryLock(ctx, key, r.journeyTimeout+time.Minute)
		switch {
		case errors.Is(err, domain.ErrJourneyInProgress):
			metrics.IncTelegramResume(kind, "busy")
			return r.edit(ctx, chatID, statusID, t.T("journey_in_progress"))
		case err != nil:
			log.Warn().Err(err).Msg("journey lock unavailable, continuing without it")
		default:
			defer func() {
				if err := r.deps.Locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					log.Warn().Err(err).Msg("failed to release journey lock")
				}
			}()
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.journeyTimeout)
	defer cancel()
	start := time.Now()
	resp, err := r.deps.Journeys.RunFullJourney(runCtx, userID, in)
	switch {
	case err != nil:
		log.Error().Err(err).Str("kind", kind).Msg("journey rejected")
		metrics.IncTelegramResume(kind, "error")
		return r.edit(ctx, chatID, statusID, t.T("error_processing", err.Error()))
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		log.Error().Dur("duration", time.Since(start)).Msg("journey timed out")
		metrics.IncTelegramResume(kind, "timeout")
		return r.edit(ctx, chatID, statusID, t.T("error_timeout"))
	}
	if resp == nil {
		resp = &model.TaskResponse{Status: model.TaskFailed}
	}
	log.Info().Str("kind", kind).Str("status", string(resp.Status)).Dur("duration", time.Since(start)).Msg("journey finished")
	metrics.IncTelegramResume(kind, string(resp.Status))
	return r.sendResults(ctx, chatID, statusID, resp)
}

func (r *RealTelegramBotAdapter) sendResults(ctx context.Context, chatID int64, statusID int, resp *model.TaskResponse) error {
	t := r.deps.Translator
	journey, ok := resp.Result.(*model.JourneyResult)
	if !resp.Completed() || !ok || journey == nil {
		reason := resp.Error
		if reason == "" {
			reason = t.T("unknown_error")
		}
		return r.edit(ctx, chatID, statusID, t.T("not_completed", reason))
	}

	if p := journeyProfile(journey); p != nil {
		if err := r.edit(ctx, chatID, statusID, r.profileSummary(p)); err != nil {
			return err
		}
	}
	if err := r.sendJobs(ctx, chatID, journey); err != nil {
		return err
	}
	r.sendApplications(ctx, chatID, journey.Applications)
	return r.SendMessage(ctx, chatID, t.T("done"))
}

func (r *RealTelegramBotAdapter) profileSummary(p *model.Profile) string {
	t := r.deps.Translator
	names := make([]string, 0, summarySkills)
	for i, s := range p.Skills {
		if i == summarySkills {
			break
		}
		names = append(names, s.Name)
	}
	return t.T("profile_summary", orNA(t.T("not_available"), string(p.Seniority)), orNA(t.T("not_available"), p.Location), strings.Join(names, ", "))
}

func (r *RealTelegramBotAdapter) sendJobs(ctx context.Context, chatID int64, journey *model.JourneyResult) error {
	t := r.deps.Translator
	market := journeyMarket(journey)
	if market == nil {
		return r.SendMessage(ctx, chatID, t.T("jobs_missing"))
	}
	if len(market.Jobs) == 0 {
		return r.SendMessage(ctx, chatID, t.T("jobs_not_found"))
	}
	total := market.TotalFound
	if total == 0 {
		total = len(market.Jobs)
	}
	if err := r.SendMessage(ctx, chatID, t.T("jobs_header", total)); err != nil {
		return err
	}

	na := t.T("not_available")
	for start := 0; start < len(market.Jobs); start += jobsPerMessage {
		end := min(start+jobsPerMessage, len(market.Jobs))
		var b strings.Builder
		for i, m := range market.Jobs[start:end] {
			b.WriteString(t.T("job_entry", start+i+1, orNA(na, m.Job.Title), orNA(na, m.Job.Company), percent(m.RelevanceScore), m.Job.URL))
		}
		if err := r.SendMessage(ctx, chatID, strings.TrimRight(b.String(), "\n")); err != nil {
			logging.With(ctx, r.log).Error().Err(err).Int("batch_start", start).Msg("failed to send jobs batch")
			_ = r.SendMessage(ctx, chatID, t.T("jobs_batch_error", err.Error()))
		}
		r.pause(ctx, batchPause)
	}
	return nil
}

// sendApplications sends the cover letter and adapted résumé of each application as .txt files.
func (r *RealTelegramBotAdapter) sendApplications(ctx context.Context, chatID int64, apps []model.JourneyApplication) {
	if len(apps) == 0 {
		return
	}
	t := r.deps.Translator
	log := logging.With(ctx, r.log)
	if err := r.SendMessage(ctx, chatID, t.T("applications_header", len(apps))); err != nil {
		log.Error().Err(err).Msg("failed to send applications header")
	}

	for i, entry := range apps {
		n := i + 1
		if entry.Application == nil {
			log.Warn().Str("job_id", entry.JobID).Msg("no application data")
			continue
		}
		header := t.T("application_caption", n, entry.JobTitle, entry.Company) + "\n\n"
		company := fileSafe(entry.Company)
		docs := []adapter.Document{
			{Name: t.T("cover_letter_file", company, n), Content: []byte(entry.Application.CoverLetter), Caption: header + t.T("cover_letter_caption")},
			{Name: t.T("adapted_resume_file", company, n), Content: []byte(entry.Application.AdaptedResume), Caption: header + t.T("adapted_resume_caption")},
		}
		for _, d := range docs {
			if strings.TrimSpace(string(d.Content)) == "" {
				log.Warn().Str("job_id", entry.JobID).Str("file", d.Name).Msg("empty document skipped")
				continue
			}
			if err := r.SendDocument(ctx, chatID, d); err != nil {
				log.Error().Err(err).Str("file", d.Name).Msg("failed to send document")
			}
		}
		r.pause(ctx, applicationPause)
	}
}

func journeyProfile(j *model.JourneyResult) *model.Profile {
	if j.ProfileAnalysis == nil {
		return nil
	}
	if res, ok := j.ProfileAnalysis.Result.(*usecase.StrategyResult); ok {
		return res.Profile
	}
	return nil
}

func journeyMarket(j *model.JourneyResult) *usecase.MarketResult {
	if j.JobSearch == nil {
		return nil
	}
	res, _ := j.JobSearch.Result.(*usecase.MarketResult)
	return res
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}

func orNA(na, s string) string {
	if strings.TrimSpace(s) == "" {
		return na
	}
	return s
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")

func fileSafe(s string) string {
	s = fileNameReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return "company"
	}
	return s
}
