package services

import (
	"log"

	"aitoolshub/internal/models"
)

// SecurityHub fans security events out to the in-app notifications, the
// account email, and the optional Telegram admin chat. Every leg is
// fire-and-forget; the 2FA engine never waits on any of them.
type SecurityHub struct {
	Notifications *NotificationService
	Mailer        EmailService
	Telegram      *TelegramAlertService
}

func NewSecurityHub(notifications *NotificationService, mailer EmailService, telegram *TelegramAlertService) *SecurityHub {
	return &SecurityHub{
		Notifications: notifications,
		Mailer:        mailer,
		Telegram:      telegram,
	}
}

func (h *SecurityHub) AccountLocked(user *models.User, minutes int) {
	if h.Notifications != nil {
		h.Notifications.AccountLocked(user, minutes)
	}
	if h.Telegram != nil {
		h.Telegram.AccountLocked(user, minutes)
	}
}

func (h *SecurityHub) TrustedDeviceAdded(user *models.User, device *models.TrustedDevice) {
	if h.Notifications != nil {
		h.Notifications.TrustedDeviceAdded(user, device)
	}
	if h.Mailer != nil {
		go func() {
			if err := h.Mailer.SendTrustedDeviceAlertEmail(user.Email, user.Name, device.DeviceName, device.IPAddress); err != nil {
				log.Printf("[security][mail][err] user_id=%d err=%v", user.ID, err)
			}
		}()
	}
	if h.Telegram != nil {
		h.Telegram.TrustedDeviceAdded(user, device)
	}
}
