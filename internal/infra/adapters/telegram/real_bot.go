package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"job-search-mas/internal/config"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/infra/i18n"
	"job-search-mas/internal/infra/logging"
	red "job-search-mas/internal/infra/redis"
)

const (
	maxMessageRunes       = 4096
	defaultJourneyTimeout = 25 * time.Minute
	defaultMaxFileBytes   = 10 << 20
	commandsPerMinute     = 20
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botClient is the subset of *tgbotapi.BotAPI the adapter relies on.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// JourneyRunner runs the full job-search journey for one résumé.
type JourneyRunner interface {
	RunFullJourney(ctx context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Deps are the collaborators of the bot. Limiter and Locker may be nil.
type Deps struct {
	Journeys   JourneyRunner
	States     repository.StateRepository
	Limiter    RateLimiter
	Locker     red.Locker
	Translator *i18n.Translator
}

// RealTelegramBotAdapter polls Telegram for updates and drives résumés through the journey.
type RealTelegramBotAdapter struct {
	client botClient
	http   *http.Client
	deps   Deps
	log    *zerolog.Logger

	updateWorkers  int
	journeyTimeout time.Duration
	maxFileBytes   int64
	pause          func(ctx context.Context, d time.Duration)

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.Config, deps Deps, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.Bot.Token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, err
	}
	b, err := newBotAdapter(api, deps, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Bot.Workers > 0 {
		b.updateWorkers = cfg.Bot.Workers
	}
	if cfg.App.RequestTimeout > 0 {
		b.journeyTimeout = cfg.App.RequestTimeout
	}
	if cfg.App.MaxUploadMB > 0 {
		b.maxFileBytes = int64(cfg.App.MaxUploadMB) << 20
	}
	return b, nil
}

func newBotAdapter(client botClient, deps Deps, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if deps.Journeys == nil {
		return nil, errors.New("journey runner is nil")
	}
	if deps.States == nil {
		return nil, errors.New("state repository is nil")
	}
	if deps.Translator == nil {
		return nil, errors.New("translator is nil")
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		client:         client,
		http:           &http.Client{Timeout: 2 * time.Minute},
		deps:           deps,
		log:            &l,
		updateWorkers:  5,
		journeyTimeout: defaultJourneyTimeout,
		maxFileBytes:   defaultMaxFileBytes,
		pause:          sleepCtx,
	}, nil
}

// StartPolling blocks until ctx is cancelled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer cancel()

	if err := r.SetMenuCommands(ctx); err != nil {
		r.log.Warn().Err(err).Msg("failed to set bot menu commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.client.GetUpdatesChan(u)

	var wg sync.WaitGroup
	queue := make(chan tgbotapi.Update, 100)
	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range queue {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
				}
			}
		}(i)
	}
	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			r.client.StopReceivingUpdates()
			close(queue)
			wg.Wait()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				close(queue)
				wg.Wait()
				return nil
			}
			select {
			case queue <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SetMenuCommands registers the command list shown in the Telegram client menu.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := r.deps.Translator
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: t.T("cmd_start")},
		tgbotapi.BotCommand{Command: "help", Description: t.T("cmd_help")},
		tgbotapi.BotCommand{Command: "upload", Description: t.T("cmd_upload")},
		tgbotapi.BotCommand{Command: "cancel", Description: t.T("cmd_cancel")},
	)
	_, err := r.client.Request(cmds)
	return err
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := r.reply(ctx, chatID, text)
	return err
}

// SendButtons sends a message with an inline keyboard. Buttons with a URL open a link;
// the others send their Data (or their label) as callback data.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kb := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kb)
	}
	msg := tgbotapi.NewMessage(chatID, clip(text))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.client.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendDocument(ctx context.Context, chatID int64, doc adapter.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Content})
	cfg.Caption = doc.Caption
	_, err := r.client.Send(cfg)
	return err
}

// reply sends text and returns the id of the new message so it can be edited later.
func (r *RealTelegramBotAdapter) reply(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, clip(text))
	msg.DisableWebPagePreview = true
	sent, err := r.client.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// edit replaces the text of a progress message, or sends a new one when there is none.
func (r *RealTelegramBotAdapter) edit(ctx context.Context, chatID int64, messageID int, text string) error {
	if messageID == 0 {
		return r.SendMessage(ctx, chatID, text)
	}
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, clip(text))
	cfg.DisableWebPagePreview = true
	if _, err := r.client.Send(cfg); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("edit failed, sending a new message")
		return r.SendMessage(ctx, chatID, text)
	}
	return nil
}

// download fetches a file sent to the bot, refusing anything above maxFileBytes.
func (r *RealTelegramBotAdapter) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.client.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > r.maxFileBytes {
		return nil, fmt.Errorf("file is larger than %d MB", r.maxFileBytes>>20)
	}
	return data, nil
}

// clip keeps text within the Telegram message limit.
func clip(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	return string(runes[:maxMessageRunes-6]) + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
