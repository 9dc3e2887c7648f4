package service

import (
	"fmt"

	"coindrop/internal/model"
	"coindrop/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type NotifierConfig struct {
	BotToken    string
	AdminChatID int64
	Debug       bool
}

// TelegramNotifier pings the moderation chat when a payout request lands.
// Strictly best-effort: a dead bot only means moderators poll the queue.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(cfg NotifierConfig) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	bot.Debug = cfg.Debug

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.AdminChatID,
	}, nil
}

func (n *TelegramNotifier) RedemptionSubmitted(username string, rec *model.TransactionRecord) {
	method := ""
	if rec.PaymentMethod != nil {
		method = *rec.PaymentMethod
	}

	text := fmt.Sprintf("New redemption request\nUser: %s (%d)\nAmount: %.2f\nMethod: %s\nRequest: %s",
		username, rec.UserTelegramID, -rec.Amount, method, rec.ID)

	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		logger.Logger().Warn("failed to notify admins about redemption",
			zap.String("transaction_id", rec.ID.String()), zap.Error(err))
	}
}
