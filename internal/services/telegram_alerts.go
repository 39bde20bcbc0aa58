package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aitoolshub/internal/models"
)

// TelegramAlertService posts security events to an admin chat. The whole
// integration is optional: a nil service is safe to call, and the app runs
// without a bot token.
type TelegramAlertService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlertService(botToken string, adminChatID int64) (*TelegramAlertService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("[tg][init] authorized as @%s", bot.Self.UserName)
	return &TelegramAlertService{bot: bot, chatID: adminChatID}, nil
}

func (t *TelegramAlertService) send(text string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] %v", err)
	}
}

func (t *TelegramAlertService) AccountLocked(user *models.User, minutes int) {
	t.send(fmt.Sprintf(
		"⚠ <b>2FA lockout</b>\nUser: %s (id=%d)\nLocked for %d minutes after repeated failed attempts.",
		user.Email, user.ID, minutes,
	))
}

func (t *TelegramAlertService) TrustedDeviceAdded(user *models.User, device *models.TrustedDevice) {
	t.send(fmt.Sprintf(
		"\U0001f512 <b>Trusted device added</b>\nUser: %s (id=%d)\nDevice: %s\nIP: %s",
		user.Email, user.ID, device.DeviceName, device.IPAddress,
	))
}
