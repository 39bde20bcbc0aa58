package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"aitoolshub/internal/cache"
	"aitoolshub/internal/middleware"
	"aitoolshub/internal/models"
	"aitoolshub/internal/services"
)

type stubUserService struct {
	users      map[int]*models.User
	verifiedAt map[int]time.Time
}

func (s *stubUserService) GetUserByID(id int) (*models.User, error) { return s.users[id], nil }
func (s *stubUserService) GetUserByEmail(string) (*models.User, error) { return nil, nil }
func (s *stubUserService) ListUsers(int, int) ([]*models.User, error) { return nil, nil }
func (s *stubUserService) GetUserCount() (int, error) { return 0, nil }
func (s *stubUserService) GetUserCountByRole(int) (int, error) { return 0, nil }
func (s *stubUserService) AssignRole(int, int) error { return nil }
func (s *stubUserService) UpdateRefresh(int, string, time.Time) error { return nil }
func (s *stubUserService) GetByRefreshToken(string) (*models.User, error) { return nil, nil }
func (s *stubUserService) ClearRefresh(int) error { return nil }

func (s *stubUserService) MarkTwoFactorVerified(id int, at time.Time) error {
	if s.verifiedAt == nil {
		s.verifiedAt = map[int]time.Time{}
	}
	s.verifiedAt[id] = at
	return nil
}

type stubCodeStore struct {
	codes  []*models.TwoFactorCode
	nextID int64
}

func (s *stubCodeStore) Create(userID int, codeHash string, expiresAt time.Time) (int64, error) {
	now := time.Now()
	for _, c := range s.codes {
		if c.UserID == userID && c.ConsumedAt == nil && c.ExpiresAt.After(now) {
			t := now
			c.ConsumedAt = &t
		}
	}
	s.nextID++
	s.codes = append(s.codes, &models.TwoFactorCode{
		ID: s.nextID, UserID: userID, CodeHash: codeHash, ExpiresAt: expiresAt, CreatedAt: now,
	})
	return s.nextID, nil
}

func (s *stubCodeStore) GetLatestValidByUserID(userID int) (*models.TwoFactorCode, error) {
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

func (s *stubCodeStore) MarkConsumed(id int64) error {
	for _, c := range s.codes {
		if c.ID == id && c.ConsumedAt == nil {
			t := time.Now()
			c.ConsumedAt = &t
		}
	}
	return nil
}

type stubDeviceStore struct {
	devices []*models.TrustedDevice
	nextID  int64
}

func (s *stubDeviceStore) Create(d *models.TrustedDevice) error {
	s.nextID++
	d.ID = s.nextID
	s.devices = append(s.devices, d)
	return nil
}

func (s *stubDeviceStore) GetActiveByUserAndTokenHash(userID int, tokenHash string) (*models.TrustedDevice, error) {
	for _, d := range s.devices {
		if d.UserID == userID && d.TokenHash == tokenHash && !d.IsExpired() {
			return d, nil
		}
	}
	return nil, nil
}

func (s *stubDeviceStore) TouchLastUsed(int64) error { return nil }

func (s *stubDeviceStore) ListActiveByUserID(userID int) ([]*models.TrustedDevice, error) {
	var out []*models.TrustedDevice
	for _, d := range s.devices {
		if d.UserID == userID && !d.IsExpired() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *stubDeviceStore) DeleteByIDForUser(userID int, id int64) (bool, error) {
	for i, d := range s.devices {
		if d.ID == id && d.UserID == userID {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubDeviceStore) DeleteAllForUser(userID int) (int64, error) {
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

func (s *stubDeviceStore) DeleteExpiredForUser(int) error { return nil }

type stubMailer struct {
	sent chan string
}

func (m *stubMailer) SendTwoFactorCodeEmail(email, name, code string) error {
	m.sent <- code
	return nil
}

type stubAuditStore struct {
	actions []string
}

func (s *stubAuditStore) Create(entry *models.AuditLog) error {
	s.actions = append(s.actions, entry.Action)
	return nil
}
func (s *stubAuditStore) List(models.AuditLogFilter) ([]*models.AuditLog, error) { return nil, nil }
func (s *stubAuditStore) DistinctActions() ([]string, error) { return nil, nil }
func (s *stubAuditStore) CountByAction() ([]models.AuditActionCount, error) { return nil, nil }

type handlerFixture struct {
	router *gin.Engine
	users  *stubUserService
	mailer *stubMailer
	audit  *stubAuditStore
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &handlerFixture{
		users:  &stubUserService{users: map[int]*models.User{1: {ID: 1, Name: "Dana", Email: "dana@example.com"}}},
		mailer: &stubMailer{sent: make(chan string, 16)},
		audit:  &stubAuditStore{},
	}
	twoFactor := services.NewTwoFactorService(
		&stubCodeStore{}, &stubDeviceStore{},
		cache.NewRedisCounterStore(client), f.mailer, nil,
	)
	h := NewTwoFactorHandler(twoFactor, f.users, services.NewAuditService(f.audit), false)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	})
	r.POST("/2fa/send", h.SendCode)
	r.POST("/2fa/verify", h.VerifyCode)
	r.GET("/2fa/status", h.Status)
	r.GET("/2fa/trusted-devices", h.ListDevices)
	r.DELETE("/2fa/trusted-devices", h.RevokeAllDevices)
	r.DELETE("/2fa/trusted-devices/:id", h.RevokeDevice)
	f.router = r
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(b)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) sendAndGetCode(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/2fa/send", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("send status = %d (body %s)", w.Code, w.Body.String())
	}
	select {
	case code := <-f.mailer.sent:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("no code email arrived")
		return ""
	}
}

func TestSendCode_RateLimited(t *testing.T) {
	f := newHandlerFixture(t)

	for i := 0; i < 5; i++ {
		if w := f.do(t, http.MethodPost, "/2fa/send", nil); w.Code != http.StatusOK {
			t.Fatalf("send %d: status = %d", i+1, w.Code)
		}
	}
	w := f.do(t, http.MethodPost, "/2fa/send", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th send: status = %d, want 429", w.Code)
	}

	// only the successful sends are audited
	count := 0
	for _, a := range f.audit.actions {
		if a == models.AuditOtpSent {
			count++
		}
	}
	if count != 5 {
		t.Errorf("otp_sent audit entries = %d, want 5", count)
	}
}

func TestVerifyCode_WrongCodeGets422(t *testing.T) {
	f := newHandlerFixture(t)
	code := f.sendAndGetCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	w := f.do(t, http.MethodPost, "/2fa/verify", gin.H{"code": wrong})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", w.Code, w.Body.String())
	}

	var body services.TwoFactorResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Message != "Invalid verification code." {
		t.Errorf("message = %q", body.Message)
	}

	found := false
	for _, a := range f.audit.actions {
		if a == models.AuditOtpFailed {
			found = true
		}
	}
	if !found {
		t.Error("expected otp_failed audit entry")
	}
}

func TestVerifyCode_SuccessSetsTrustedDeviceCookie(t *testing.T) {
	f := newHandlerFixture(t)
	code := f.sendAndGetCode(t)

	w := f.do(t, http.MethodPost, "/2fa/verify", gin.H{"code": code, "trust_device": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}

	var body struct {
		Success       bool   `json:"success"`
		Message       string `json:"message"`
		DeviceTrusted bool   `json:"device_trusted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !body.Success || !body.DeviceTrusted {
		t.Errorf("body = %+v", body)
	}
	if body.Message != "Two-factor authentication successful." {
		t.Errorf("message = %q", body.Message)
	}

	var deviceCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TrustedDeviceCookie {
			deviceCookie = c
		}
	}
	if deviceCookie == nil {
		t.Fatal("trusted device cookie not set")
	}
	if !deviceCookie.HttpOnly {
		t.Error("device cookie must be HttpOnly")
	}
	if deviceCookie.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
		t.Errorf("device cookie max-age = %d", deviceCookie.MaxAge)
	}

	if _, ok := f.users.verifiedAt[1]; !ok {
		t.Error("two_factor_verified_at was not stamped")
	}

	// the cookie now satisfies the status endpoint
	w = f.do(t, http.MethodGet, "/2fa/status", nil, &http.Cookie{
		Name:  middleware.TrustedDeviceCookie,
		Value: deviceCookie.Value,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint: %d", w.Code)
	}
	var status struct {
		Verified      bool `json:"verified"`
		TrustedDevice bool `json:"trusted_device"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("bad status body: %v", err)
	}
	if !status.Verified || !status.TrustedDevice {
		t.Errorf("status = %+v", status)
	}
}

func TestVerifyCode_WithoutTrustLeavesNoCookie(t *testing.T) {
	f := newHandlerFixture(t)
	code := f.sendAndGetCode(t)

	w := f.do(t, http.MethodPost, "/2fa/verify", gin.H{"code": code})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TrustedDeviceCookie {
			t.Fatal("cookie must not be set without trust_device")
		}
	}
}

func TestRevokeDevice_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodDelete, "/2fa/trusted-devices/42", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Message != "Device not found." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRevokeAllDevices(t *testing.T) {
	f := newHandlerFixture(t)

	// trust two devices through the real flow
	for i := 0; i < 2; i++ {
		code := f.sendAndGetCode(t)
		w := f.do(t, http.MethodPost, "/2fa/verify", gin.H{"code": code, "trust_device": true})
		if w.Code != http.StatusOK {
			t.Fatalf("verify %d: status = %d", i+1, w.Code)
		}
	}

	w := f.do(t, http.MethodDelete, "/2fa/trusted-devices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if body.Message != fmt.Sprintf("Successfully revoked %d trusted device(s).", 2) {
		t.Errorf("message = %q", body.Message)
	}

	w = f.do(t, http.MethodGet, "/2fa/trusted-devices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Devices []*models.TrustedDevice `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if len(list.Devices) != 0 {
		t.Errorf("devices left = %d, want 0", len(list.Devices))
	}
}
