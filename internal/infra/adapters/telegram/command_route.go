package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/infra/adapters/resume"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/infra/metrics"
	red "job-search-mas/internal/infra/redis"
)

const minTextResumeRunes = 50

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":  r.handleStartCommand,
		"help":   r.handleHelpCommand,
		"upload": r.handleUploadCommand,
		"cancel": r.handleCancelCommand,
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	command := "text"
	switch {
	case msg.IsCommand():
		command = "/" + msg.Command()
	case msg.Document != nil:
		command = "document"
	}
	metrics.IncTelegramCommand(command)

	if r.deps.Limiter != nil {
		allowed, err := r.deps.Limiter.Allow(ctx, red.UserCommandKey(msg.From.ID, command), commandsPerMinute, time.Minute)
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			return r.SendMessage(ctx, msg.Chat.ID, r.deps.Translator.T("rate_limited"))
		}
	}

	switch {
	case msg.IsCommand():
		if h, ok := r.commandRoutes()[msg.Command()]; ok {
			return h(ctx, msg)
		}
		return r.handleHelpCommand(ctx, msg)
	case msg.Document != nil:
		return r.handleDocument(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		return r.handleText(ctx, msg)
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, r.deps.Translator.T("welcome"))
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, r.deps.Translator.T("help"))
}

// handleUploadCommand puts the user into the awaiting-résumé step.
func (r *RealTelegramBotAdapter) handleUploadCommand(ctx context.Context, message *tgbotapi.Message) error {
	state := &repository.ConversationState{Step: repository.StepAwaitingResume}
	if err := r.deps.States.SetState(ctx, message.From.ID, state); err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("failed to store conversation state")
	}
	return r.SendMessage(ctx, message.Chat.ID, r.deps.Translator.T("upload_prompt"))
}

func (r *RealTelegramBotAdapter) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) error {
	r.clearState(ctx, message.From.ID)
	return r.SendMessage(ctx, message.Chat.ID, r.deps.Translator.T("cancelled"))
}

// handleDocument accepts PDF and DOCX résumés whatever the conversation step is.
func (r *RealTelegramBotAdapter) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	t := r.deps.Translator
	doc := message.Document
	file := &model.ResumeFile{Name: doc.FileName, MIME: doc.MimeType}
	kind, err := resume.DetectKind(file)
	if err != nil || kind == resume.KindText {
		metrics.IncTelegramResume("other", "rejected")
		return r.SendMessage(ctx, message.Chat.ID, t.T("unsupported_file"))
	}
	if file.Name == "" {
		file.Name = "resume." + string(kind)
	}
	r.clearState(ctx, message.From.ID)

	statusID, err := r.reply(ctx, message.Chat.ID, t.T("downloading"))
	if err != nil {
		return err
	}
	if doc.FileSize > 0 && int64(doc.FileSize) > r.maxFileBytes {
		metrics.IncTelegramResume(string(kind), "rejected")
		return r.edit(ctx, message.Chat.ID, statusID, t.T("error_download", "file is larger than "+strconv.FormatInt(r.maxFileBytes>>20, 10)+" MB"))
	}
	data, err := r.download(ctx, doc.FileID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Str("file", doc.FileName).Msg("document download failed")
		metrics.IncTelegramResume(string(kind), "error")
		return r.edit(ctx, message.Chat.ID, statusID, t.T("error_download", err.Error()))
	}
	file.Data = data

	if err := r.edit(ctx, message.Chat.ID, statusID, t.T("processing")); err != nil {
		return err
	}
	return r.runJourney(ctx, message, statusID, string(kind), model.TaskInput{File: file, Filename: file.Name})
}

// handleText treats free text as a résumé only in the awaiting-résumé step.
func (r *RealTelegramBotAdapter) handleText(ctx context.Context, message *tgbotapi.Message) error {
	t := r.deps.Translator
	state, err := r.deps.States.GetState(ctx, message.From.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logging.With(ctx, r.log).Warn().Err(err).Msg("failed to read conversation state")
	}
	if state == nil || state.Step != repository.StepAwaitingResume {
		return r.SendMessage(ctx, message.Chat.ID, t.T("upload_hint"))
	}

	text := strings.TrimSpace(message.Text)
	if len([]rune(text)) < minTextResumeRunes {
		metrics.IncTelegramResume("text", "rejected")
		return r.SendMessage(ctx, message.Chat.ID, t.T("resume_too_short"))
	}
	r.clearState(ctx, message.From.ID)

	statusID, err := r.reply(ctx, message.Chat.ID, t.T("processing"))
	if err != nil {
		return err
	}
	return r.runJourney(ctx, message, statusID, "text", model.TaskInput{ResumeText: text})
}

func (r *RealTelegramBotAdapter) clearState(ctx context.Context, tgID int64) {
	if err := r.deps.States.ClearState(ctx, tgID); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("failed to clear conversation state")
	}
}
