package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Document is an in-memory file sent to a chat.
type Document struct {
	Name    string
	Content []byte
	Caption string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	SendDocument(ctx context.Context, chatID int64, doc Document) error
}
