package notify

import (
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// TelegramNotifier шлёт сводку прогона пайплайна в чат.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier создаёт notifier; при ошибке возвращает nil —
// уведомления опциональны и не должны ронять пайплайн.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// SendRunSummary отправляет итог одного прогона.
func (n *TelegramNotifier) SendRunSummary(s models.RunSummary) error {
	text := fmt.Sprintf(
		"HotStreak pipeline finished\n"+
			"Players: %d (skipped: %d, unchanged blobs: %d)\n"+
			"Categories: %d\n"+
			"Lines: %d\n"+
			"Duration: %s\n"+
			"Export: %s",
		s.Players, s.PlayersSkipped, s.BlobsUnchanged,
		s.Categories, s.Lines,
		time.Duration(s.DurationMS)*time.Millisecond, s.ExportPath,
	)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
