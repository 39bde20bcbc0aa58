package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"aitoolshub/internal/cache"
	"aitoolshub/internal/models"
)

// ---- fakes

type fakeCodeStore struct {
	codes  []*models.TwoFactorCode
	nextID int64
}

func (s *fakeCodeStore) Create(userID int, codeHash string, expiresAt time.Time) (int64, error) {
	now := time.Now()
	// supersede: consume whatever is still valid for this user
	for _, c := range s.codes {
		if c.UserID == userID && c.ConsumedAt == nil && c.ExpiresAt.After(now) {
			t := now
			c.ConsumedAt = &t
		}
	}
	s.nextID++
	s.codes = append(s.codes, &models.TwoFactorCode{
		ID:        s.nextID,
		UserID:    userID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
	return s.nextID, nil
}

func (s *fakeCodeStore) GetLatestValidByUserID(userID int) (*models.TwoFactorCode, error) {
	now := time.Now()
	var latest *models.TwoFactorCode
	for _, c := range s.codes {
		if c.UserID != userID || c.ConsumedAt != nil || !c.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (s *fakeCodeStore) MarkConsumed(id int64) error {
	for _, c := range s.codes {
		if c.ID == id && c.ConsumedAt == nil {
			t := time.Now()
			c.ConsumedAt = &t
		}
	}
	return nil
}

type fakeDeviceStore struct {
	devices []*models.TrustedDevice
	nextID  int64
}

func (s *fakeDeviceStore) Create(d *models.TrustedDevice) error {
	s.nextID++
	d.ID = s.nextID
	d.CreatedAt = time.Now()
	s.devices = append(s.devices, d)
	return nil
}

func (s *fakeDeviceStore) GetActiveByUserAndTokenHash(userID int, tokenHash string) (*models.TrustedDevice, error) {
	for _, d := range s.devices {
		if d.UserID == userID && d.TokenHash == tokenHash && !d.IsExpired() {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeDeviceStore) TouchLastUsed(id int64) error {
	for _, d := range s.devices {
		if d.ID == id {
			d.LastUsedAt = time.Now()
		}
	}
	return nil
}

func (s *fakeDeviceStore) ListActiveByUserID(userID int) ([]*models.TrustedDevice, error) {
	var out []*models.TrustedDevice
	for _, d := range s.devices {
		if d.UserID == userID && !d.IsExpired() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeDeviceStore) DeleteByIDForUser(userID int, id int64) (bool, error) {
	for i, d := range s.devices {
		if d.ID == id && d.UserID == userID {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeDeviceStore) DeleteAllForUser(userID int) (int64, error) {
	var kept []*models.TrustedDevice
	var removed int64
	for _, d := range s.devices {
		if d.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.devices = kept
	return removed, nil
}

func (s *fakeDeviceStore) DeleteExpiredForUser(userID int) error {
	var kept []*models.TrustedDevice
	for _, d := range s.devices {
		if d.UserID == userID && d.IsExpired() {
			continue
		}
		kept = append(kept, d)
	}
	s.devices = kept
	return nil
}

type fakeMailer struct {
	sent chan string // plaintext codes
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan string, 16)}
}

func (m *fakeMailer) SendTwoFactorCodeEmail(email, name, code string) error {
	m.sent <- code
	return nil
}

func (m *fakeMailer) waitForCode(t *testing.T) string {
	t.Helper()
	select {
	case code := <-m.sent:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("no code email arrived")
		return ""
	}
}

type fakeNotifier struct {
	lockedMinutes []int
	devicesAdded  []*models.TrustedDevice
}

func (n *fakeNotifier) AccountLocked(user *models.User, minutes int) {
	n.lockedMinutes = append(n.lockedMinutes, minutes)
}

func (n *fakeNotifier) TrustedDeviceAdded(user *models.User, device *models.TrustedDevice) {
	n.devicesAdded = append(n.devicesAdded, device)
}

// ---- harness

type twoFactorFixture struct {
	svc      *TwoFactorService
	codes    *fakeCodeStore
	devices  *fakeDeviceStore
	mailer   *fakeMailer
	notifier *fakeNotifier
	redis    *miniredis.Miniredis
	user     *models.User
}

func newTwoFactorFixture(t *testing.T) *twoFactorFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &twoFactorFixture{
		codes:    &fakeCodeStore{},
		devices:  &fakeDeviceStore{},
		mailer:   newFakeMailer(),
		notifier: &fakeNotifier{},
		redis:    mr,
		user:     &models.User{ID: 7, Name: "Dana", Email: "dana@example.com"},
	}
	f.svc = NewTwoFactorService(f.codes, f.devices, cache.NewRedisCounterStore(client), f.mailer, f.notifier)
	return f
}

// sendAndGetCode runs a full send and returns the plaintext code the
// mailer saw.
func (f *twoFactorFixture) sendAndGetCode(t *testing.T) string {
	t.Helper()
	res, err := f.svc.GenerateAndSendCode(context.Background(), f.user)
	if err != nil {
		t.Fatalf("GenerateAndSendCode: %v", err)
	}
	if !res.Success {
		t.Fatalf("send failed: %s", res.Message)
	}
	return f.mailer.waitForCode(t)
}

// ---- send

func TestGenerateAndSendCode(t *testing.T) {
	f := newTwoFactorFixture(t)

	res, err := f.svc.GenerateAndSendCode(context.Background(), f.user)
	if err != nil {
		t.Fatalf("GenerateAndSendCode: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Message != "Verification code sent to your email." {
		t.Errorf("unexpected message %q", res.Message)
	}
	if res.ExpiresInMinutes != 10 {
		t.Errorf("expires_in_minutes = %d, want 10", res.ExpiresInMinutes)
	}

	code := f.mailer.waitForCode(t)
	if len(code) != 6 {
		t.Fatalf("code %q is not 6 digits", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q contains non-digit", code)
		}
	}
}

func TestGenerateAndSendCode_SupersedesPreviousCode(t *testing.T) {
	f := newTwoFactorFixture(t)

	first := f.sendAndGetCode(t)
	second := f.sendAndGetCode(t)

	res, err := f.svc.VerifyCode(context.Background(), f.user, first)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.Success {
		t.Error("superseded code must not verify")
	}

	res, err = f.svc.VerifyCode(context.Background(), f.user, second)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !res.Success {
		t.Errorf("latest code should verify, got %q", res.Message)
	}
}

func TestGenerateAndSendCode_EmailRateLimit(t *testing.T) {
	f := newTwoFactorFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := f.svc.GenerateAndSendCode(ctx, f.user)
		if err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
		if !res.Success {
			t.Fatalf("send %d should pass, got %q", i+1, res.Message)
		}
	}

	res, err := f.svc.GenerateAndSendCode(ctx, f.user)
	if err != nil {
		t.Fatalf("6th send: %v", err)
	}
	if res.Success {
		t.Fatal("6th send within the hour must be rejected")
	}
	if res.Message != "Too many email requests. Please try again later." {
		t.Errorf("unexpected message %q", res.Message)
	}

	// a fresh window opens once the counter expires
	f.redis.FastForward(time.Hour + time.Second)
	res, err = f.svc.GenerateAndSendCode(ctx, f.user)
	if err != nil {
		t.Fatalf("send after window: %v", err)
	}
	if !res.Success {
		t.Errorf("send after window should pass, got %q", res.Message)
	}
}

// ---- verify

func TestVerifyCode_ConsumesCode(t *testing.T) {
	f := newTwoFactorFixture(t)
	ctx := context.Background()
	code := f.sendAndGetCode(t)

	res, err := f.svc.VerifyCode(ctx, f.user, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Message != "Two-factor authentication successful." {
		t.Errorf("unexpected message %q", res.Message)
	}

	// replaying the same code must fail
	res, err = f.svc.VerifyCode(ctx, f.user, code)
	if err != nil {
		t.Fatalf("VerifyCode replay: %v", err)
	}
	if res.Success {
		t.Error("consumed code must not verify twice")
	}
	if res.Message != "Invalid or expired verification code." {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestVerifyCode_WrongCode(t *testing.T) {
	f := newTwoFactorFixture(t)
	code := f.sendAndGetCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	res, err := f.svc.VerifyCode(context.Background(), f.user, wrong)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.Success {
		t.Fatal("wrong code must not verify")
	}
	if res.Message != "Invalid verification code." {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestVerifyCode_NoActiveCode(t *testing.T) {
	f := newTwoFactorFixture(t)

	res, err := f.svc.VerifyCode(context.Background(), f.user, "123456")
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.Success {
		t.Fatal("verify without a code must fail")
	}
	if res.Message != "Invalid or expired verification code." {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestVerifyCode_LockoutAfterFiveFailures(t *testing.T) {
	f := newTwoFactorFixture(t)
	ctx := context.Background()
	code := f.sendAndGetCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 4; i++ {
		res, err := f.svc.VerifyCode(ctx, f.user, wrong)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if res.Message != "Invalid verification code." {
			t.Fatalf("attempt %d: unexpected message %q", i+1, res.Message)
		}
	}

	// 5th failure trips the lock
	res, err := f.svc.VerifyCode(ctx, f.user, wrong)
	if err != nil {
		t.Fatalf("5th attempt: %v", err)
	}
	if res.Message != "Too many failed attempts. Account locked for 10 minutes." {
		t.Errorf("unexpected lockout message %q", res.Message)
	}
	if len(f.notifier.lockedMinutes) != 1 || f.notifier.lockedMinutes[0] != 10 {
		t.Errorf("expected one AccountLocked(10) event, got %v", f.notifier.lockedMinutes)
	}

	// even the correct code is rejected while locked
	res, err = f.svc.VerifyCode(ctx, f.user, code)
	if err != nil {
		t.Fatalf("verify while locked: %v", err)
	}
	if res.Success {
		t.Fatal("correct code must not pass during lockout")
	}
	if !strings.HasPrefix(res.Message, "Account temporarily locked.") {
		t.Errorf("unexpected message %q", res.Message)
	}

	// sends are rejected too
	res, err = f.svc.GenerateAndSendCode(ctx, f.user)
	if err != nil {
		t.Fatalf("send while locked: %v", err)
	}
	if res.Success {
		t.Fatal("send must not pass during lockout")
	}
	if !strings.HasPrefix(res.Message, "Account temporarily locked.") {
		t.Errorf("unexpected message %q", res.Message)
	}

	// lock expires, counter was reset, the code still works
	f.redis.FastForward(10*time.Minute + time.Second)
	res, err = f.svc.VerifyCode(ctx, f.user, code)
	if err != nil {
		t.Fatalf("verify after lock: %v", err)
	}
	if !res.Success {
		t.Errorf("verify after lock expiry should pass, got %q", res.Message)
	}
}

func TestVerifyCode_SuccessResetsFailCounter(t *testing.T) {
	f := newTwoFactorFixture(t)
	ctx := context.Background()

	code := f.sendAndGetCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 3; i++ {
		if _, err := f.svc.VerifyCode(ctx, f.user, wrong); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if res, err := f.svc.VerifyCode(ctx, f.user, code); err != nil || !res.Success {
		t.Fatalf("verify: res=%+v err=%v", res, err)
	}

	// 4 more misses on a fresh code must not lock (3 old + 4 new would
	// lock if the counter survived the success)
	code = f.sendAndGetCode(t)
	if wrong == code {
		wrong = "999999"
	}
	for i := 0; i < 4; i++ {
		res, err := f.svc.VerifyCode(ctx, f.user, wrong)
		if err != nil {
			t.Fatalf("fresh attempt %d: %v", i+1, err)
		}
		if res.Message != "Invalid verification code." {
			t.Fatalf("fresh attempt %d: unexpected message %q", i+1, res.Message)
		}
	}
}

func TestVerifyCode_ExpiredCode(t *testing.T) {
	f := newTwoFactorFixture(t)

	// plant an already expired row directly
	f.codes.nextID++
	expired := time.Now().Add(-time.Minute)
	f.codes.codes = append(f.codes.codes, &models.TwoFactorCode{
		ID:        f.codes.nextID,
		UserID:    f.user.ID,
		CodeHash:  "$2a$10$irrelevant",
		ExpiresAt: expired,
		CreatedAt: time.Now().Add(-11 * time.Minute),
	})

	res, err := f.svc.VerifyCode(context.Background(), f.user, "123456")
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.Success {
		t.Fatal("expired code must not verify")
	}
	if res.Message != "Invalid or expired verification code." {
		t.Errorf("unexpected message %q", res.Message)
	}
}

// ---- trusted devices

func TestTrustedDevice_RoundTrip(t *testing.T) {
	f := newTwoFactorFixture(t)

	token, err := f.svc.CreateTrustedDevice(f.user, "203.0.113.9", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0")
	if err != nil {
		t.Fatalf("CreateTrustedDevice: %v", err)
	}
	if len(token) != 64 { // 32 bytes hex
		t.Fatalf("token length %d, want 64", len(token))
	}

	if !f.svc.IsTrustedDevice(f.user, token) {
		t.Error("freshly created device should be trusted")
	}
	if f.svc.IsTrustedDevice(f.user, "deadbeef") {
		t.Error("unknown token must not be trusted")
	}
	if f.svc.IsTrustedDevice(&models.User{ID: 99}, token) {
		t.Error("token must not be valid for another user")
	}
	if f.svc.IsTrustedDevice(f.user, "") {
		t.Error("empty token must not be trusted")
	}

	devices, err := f.svc.ListTrustedDevices(f.user)
	if err != nil {
		t.Fatalf("ListTrustedDevices: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("device count = %d, want 1", len(devices))
	}
	if devices[0].DeviceName != "Chrome on Windows" {
		t.Errorf("device name = %q", devices[0].DeviceName)
	}
	if len(f.notifier.devicesAdded) != 1 {
		t.Errorf("expected one TrustedDeviceAdded event, got %d", len(f.notifier.devicesAdded))
	}
}

func TestTrustedDevice_Expired(t *testing.T) {
	f := newTwoFactorFixture(t)

	token, err := f.svc.CreateTrustedDevice(f.user, "203.0.113.9", "test-agent")
	if err != nil {
		t.Fatalf("CreateTrustedDevice: %v", err)
	}
	f.devices.devices[0].ExpiresAt = time.Now().Add(-time.Hour)

	if f.svc.IsTrustedDevice(f.user, token) {
		t.Error("expired device must not be trusted")
	}
}

func TestRevokeTrustedDevice(t *testing.T) {
	f := newTwoFactorFixture(t)

	token, err := f.svc.CreateTrustedDevice(f.user, "203.0.113.9", "test-agent")
	if err != nil {
		t.Fatalf("CreateTrustedDevice: %v", err)
	}
	deviceID := f.devices.devices[0].ID

	// another user cannot revoke it
	revoked, err := f.svc.RevokeTrustedDevice(&models.User{ID: 99}, deviceID)
	if err != nil {
		t.Fatalf("RevokeTrustedDevice: %v", err)
	}
	if revoked {
		t.Fatal("revoke must be scoped to the owner")
	}

	revoked, err = f.svc.RevokeTrustedDevice(f.user, deviceID)
	if err != nil {
		t.Fatalf("RevokeTrustedDevice: %v", err)
	}
	if !revoked {
		t.Fatal("owner revoke should succeed")
	}
	if f.svc.IsTrustedDevice(f.user, token) {
		t.Error("revoked device must not be trusted")
	}
}

func TestRevokeAllTrustedDevices(t *testing.T) {
	f := newTwoFactorFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.CreateTrustedDevice(f.user, fmt.Sprintf("203.0.113.%d", i), "test-agent"); err != nil {
			t.Fatalf("CreateTrustedDevice %d: %v", i, err)
		}
	}
	other := &models.User{ID: 99, Name: "Sam", Email: "sam@example.com"}
	otherToken, err := f.svc.CreateTrustedDevice(other, "198.51.100.1", "test-agent")
	if err != nil {
		t.Fatalf("CreateTrustedDevice other: %v", err)
	}

	count, err := f.svc.RevokeAllTrustedDevices(f.user)
	if err != nil {
		t.Fatalf("RevokeAllTrustedDevices: %v", err)
	}
	if count != 3 {
		t.Errorf("revoked %d devices, want 3", count)
	}
	if !f.svc.IsTrustedDevice(other, otherToken) {
		t.Error("other user's device must survive")
	}
}

// ---- helpers

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("50 draws produced a single value, generator looks broken")
	}
}
