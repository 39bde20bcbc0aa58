package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"aitoolshub/internal/cache"
	"aitoolshub/internal/models"
	"aitoolshub/internal/utils"
)

const (
	codeLength        = 6
	codeExpiry        = 10 * time.Minute
	maxEmailsPerHour  = 5
	sendWindow        = time.Hour
	maxFailedAttempts = 5
	lockoutDuration   = 10 * time.Minute
	trustedDeviceTTL  = 30 * 24 * time.Hour
)

// TwoFactorResult carries the user-visible outcome of a send or verify.
// Failures here are expected states (rate limit, lockout, bad code), not
// errors; only storage problems come back through the error return.
type TwoFactorResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ExpiresInMinutes int    `json:"expires_in_minutes,omitempty"`
}

type TwoFactorCodeStore interface {
	Create(userID int, codeHash string, expiresAt time.Time) (int64, error)
	GetLatestValidByUserID(userID int) (*models.TwoFactorCode, error)
	MarkConsumed(id int64) error
}

type TrustedDeviceStore interface {
	Create(d *models.TrustedDevice) error
	GetActiveByUserAndTokenHash(userID int, tokenHash string) (*models.TrustedDevice, error)
	TouchLastUsed(id int64) error
	ListActiveByUserID(userID int) ([]*models.TrustedDevice, error)
	DeleteByIDForUser(userID int, id int64) (bool, error)
	DeleteAllForUser(userID int) (int64, error)
	DeleteExpiredForUser(userID int) error
}

type TwoFactorMailer interface {
	SendTwoFactorCodeEmail(email, name, code string) error
}

// SecurityNotifier receives fire-and-forget security events. The engine
// never depends on it succeeding; a nil notifier is fine.
type SecurityNotifier interface {
	AccountLocked(user *models.User, minutes int)
	TrustedDeviceAdded(user *models.User, device *models.TrustedDevice)
}

type TwoFactorService struct {
	Codes    TwoFactorCodeStore
	Devices  TrustedDeviceStore
	Counters cache.CounterStore
	Mailer   TwoFactorMailer
	Security SecurityNotifier // optional
}

func NewTwoFactorService(
	codes TwoFactorCodeStore,
	devices TrustedDeviceStore,
	counters cache.CounterStore,
	mailer TwoFactorMailer,
	security SecurityNotifier,
) *TwoFactorService {
	return &TwoFactorService{
		Codes:    codes,
		Devices:  devices,
		Counters: counters,
		Mailer:   mailer,
		Security: security,
	}
}

func sendCountKey(userID int) string { return fmt.Sprintf("2fa:send:%d", userID) }
func failCountKey(userID int) string { return fmt.Sprintf("2fa:fail:%d", userID) }
func lockoutKey(userID int) string   { return fmt.Sprintf("2fa:lock:%d", userID) }

// GenerateAndSendCode issues a fresh 6-digit code, superseding any code
// still valid for the user, and emails it. Email dispatch is off the
// critical path; a delivery failure is logged, never returned.
func (s *TwoFactorService) GenerateAndSendCode(ctx context.Context, user *models.User) (*TwoFactorResult, error) {
	exceeded, err := s.hasExceededEmailRateLimit(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if exceeded {
		return &TwoFactorResult{
			Success: false,
			Message: "Too many email requests. Please try again later.",
		}, nil
	}

	if remaining, locked, err := s.lockoutRemaining(ctx, user.ID); err != nil {
		return nil, err
	} else if locked {
		return &TwoFactorResult{
			Success: false,
			Message: fmt.Sprintf("Account temporarily locked. Please try again in %d minutes.", remaining),
		}, nil
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	// bcrypt, not a fast digest: the 6-digit space is small, so a leaked
	// table should still cost something to brute force
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt generate: %w", err)
	}

	if _, err := s.Codes.Create(user.ID, string(codeHash), time.Now().Add(codeExpiry)); err != nil {
		return nil, err
	}

	go func(email, name, plain string) {
		if err := s.Mailer.SendTwoFactorCodeEmail(email, name, plain); err != nil {
			log.Printf("[2fa][mail][err] user_id=%d err=%v", user.ID, err)
		}
	}(user.Email, user.Name, code)

	if _, err := s.Counters.Incr(ctx, sendCountKey(user.ID), sendWindow); err != nil {
		return nil, err
	}

	log.Printf("[2fa][send] user_id=%d expires_in=%dm", user.ID, int(codeExpiry.Minutes()))
	return &TwoFactorResult{
		Success:          true,
		Message:          "Verification code sent to your email.",
		ExpiresInMinutes: int(codeExpiry.Minutes()),
	}, nil
}

// VerifyCode checks the submitted code against the single valid code row.
// The 5th consecutive failure trips the lockout and answers with the
// lockout message rather than the generic mismatch message.
func (s *TwoFactorService) VerifyCode(ctx context.Context, user *models.User, code string) (*TwoFactorResult, error) {
	if remaining, locked, err := s.lockoutRemaining(ctx, user.ID); err != nil {
		return nil, err
	} else if locked {
		return &TwoFactorResult{
			Success: false,
			Message: fmt.Sprintf("Account temporarily locked. Please try again in %d minutes.", remaining),
		}, nil
	}

	current, err := s.Codes.GetLatestValidByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		if _, err := s.Counters.Incr(ctx, failCountKey(user.ID), lockoutDuration); err != nil {
			return nil, err
		}
		return &TwoFactorResult{
			Success: false,
			Message: "Invalid or expired verification code.",
		}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(current.CodeHash), []byte(code)) != nil {
		attempts, err := s.Counters.Incr(ctx, failCountKey(user.ID), lockoutDuration)
		if err != nil {
			return nil, err
		}
		if attempts >= maxFailedAttempts {
			if err := s.lockout(ctx, user); err != nil {
				return nil, err
			}
			return &TwoFactorResult{
				Success: false,
				Message: fmt.Sprintf("Too many failed attempts. Account locked for %d minutes.", int(lockoutDuration.Minutes())),
			}, nil
		}
		return &TwoFactorResult{
			Success: false,
			Message: "Invalid verification code.",
		}, nil
	}

	if err := s.Codes.MarkConsumed(current.ID); err != nil {
		return nil, err
	}
	if err := s.Counters.Del(ctx, failCountKey(user.ID)); err != nil {
		return nil, err
	}

	log.Printf("[2fa][verify] OK user_id=%d", user.ID)
	return &TwoFactorResult{
		Success: true,
		Message: "Two-factor authentication successful.",
	}, nil
}

// CreateTrustedDevice stores a sha256 hash of a fresh 32-byte token and
// returns the plaintext exactly once, for the caller to set as a cookie.
func (s *TwoFactorService) CreateTrustedDevice(user *models.User, ip, userAgent string) (string, error) {
	plainToken, err := utils.NewSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("device token: %w", err)
	}

	if userAgent == "" {
		userAgent = "Unknown"
	}

	// advisory only: recorded for future tightening, not checked on lookup
	fingerprint := sha256.Sum256([]byte(userAgent + ip))

	if err := s.Devices.DeleteExpiredForUser(user.ID); err != nil {
		return "", err
	}

	now := time.Now()
	device := &models.TrustedDevice{
		UserID:      user.ID,
		TokenHash:   utils.HashToken(plainToken),
		DeviceName:  DeviceNameFromUserAgent(userAgent),
		Fingerprint: hex.EncodeToString(fingerprint[:]),
		IPAddress:   ip,
		UserAgent:   userAgent,
		LastUsedAt:  now,
		ExpiresAt:   now.Add(trustedDeviceTTL),
	}
	if err := s.Devices.Create(device); err != nil {
		return "", err
	}

	if s.Security != nil {
		s.Security.TrustedDeviceAdded(user, device)
	}

	log.Printf("[2fa][trust] device added user_id=%d name=%q", user.ID, device.DeviceName)
	return plainToken, nil
}

// IsTrustedDevice reports whether the token matches an active device, and
// refreshes last_used_at as a side effect. Storage errors are logged and
// treated as "not trusted" so the caller falls back to code verification.
func (s *TwoFactorService) IsTrustedDevice(user *models.User, plainToken string) bool {
	if plainToken == "" {
		return false
	}

	device, err := s.Devices.GetActiveByUserAndTokenHash(user.ID, utils.HashToken(plainToken))
	if err != nil {
		log.Printf("[2fa][trust][err] lookup user_id=%d err=%v", user.ID, err)
		return false
	}
	if device == nil {
		return false
	}

	if err := s.Devices.TouchLastUsed(device.ID); err != nil {
		log.Printf("[2fa][trust][err] touch device_id=%d err=%v", device.ID, err)
	}
	return true
}

func (s *TwoFactorService) ListTrustedDevices(user *models.User) ([]*models.TrustedDevice, error) {
	return s.Devices.ListActiveByUserID(user.ID)
}

func (s *TwoFactorService) RevokeTrustedDevice(user *models.User, deviceID int64) (bool, error) {
	return s.Devices.DeleteByIDForUser(user.ID, deviceID)
}

func (s *TwoFactorService) RevokeAllTrustedDevices(user *models.User) (int64, error) {
	return s.Devices.DeleteAllForUser(user.ID)
}

func (s *TwoFactorService) hasExceededEmailRateLimit(ctx context.Context, userID int) (bool, error) {
	v, ok, err := s.Counters.Get(ctx, sendCountKey(userID))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	count, err := strconv.Atoi(v)
	if err != nil {
		return false, fmt.Errorf("send counter format %q: %w", v, err)
	}
	return count >= maxEmailsPerHour, nil
}

// lockoutRemaining returns the remaining whole minutes, floored at 1 while
// any time is left.
func (s *TwoFactorService) lockoutRemaining(ctx context.Context, userID int) (int, bool, error) {
	v, ok, err := s.Counters.Get(ctx, lockoutKey(userID))
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	expiresAt, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, false, fmt.Errorf("lockout value %q: %w", v, err)
	}
	left := time.Until(expiresAt)
	if left <= 0 {
		return 0, false, nil
	}
	minutes := int(left.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return minutes, true, nil
}

// lockout sets the lock and resets the failed-attempt counter, so a fresh
// window starts at zero once the lock expires.
func (s *TwoFactorService) lockout(ctx context.Context, user *models.User) error {
	expiresAt := time.Now().Add(lockoutDuration)
	if err := s.Counters.Set(ctx, lockoutKey(user.ID), expiresAt.Format(time.RFC3339), lockoutDuration); err != nil {
		return err
	}
	if err := s.Counters.Del(ctx, failCountKey(user.ID)); err != nil {
		return err
	}

	if s.Security != nil {
		s.Security.AccountLocked(user, int(lockoutDuration.Minutes()))
	}

	log.Printf("[2fa][lockout] user_id=%d until=%s", user.ID, expiresAt.Format(time.RFC3339))
	return nil
}

// generateCode draws a uniformly random value in [0, 10^6) and zero-pads it.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
