package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendTwoFactorCodeEmail(email, name, code string) error
	SendTrustedDeviceAlertEmail(email, name, deviceName, ipAddress string) error
}

type emailService struct {
	dialer  *gomail.Dialer
	from    string
	appName string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, appName string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer:  dialer,
		from:    fromEmail,
		appName: appName,
	}
}

func (s *emailService) SendTwoFactorCodeEmail(email, name, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your Two-Factor Authentication Code")

	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your verification code is:</p>
		<h1 style="letter-spacing: 4px;">%s</h1>
		<p>The code expires in 10 minutes. If you did not request it, you can ignore this email.</p>
		<p>— %s</p>
	`, name, code, s.appName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send 2fa code email: %w", err)
	}

	return nil
}

func (s *emailService) SendTrustedDeviceAlertEmail(email, name, deviceName, ipAddress string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "New trusted device added to your account")

	body := fmt.Sprintf(`
		<h3>Hello %s,</h3>
		<p>A new device was marked as trusted on your account:</p>
		<p><strong>%s</strong> (IP: %s)</p>
		<p>Trusted devices skip two-factor verification for 30 days.
		If this wasn't you, revoke it from your account security settings right away.</p>
		<p>— %s</p>
	`, name, deviceName, ipAddress, s.appName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send trusted device alert email: %w", err)
	}

	return nil
}
