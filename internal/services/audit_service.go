package services

import (
	"encoding/json"
	"log"
	"strconv"

	"aitoolshub/internal/models"
)

type AuditLogStore interface {
	Create(entry *models.AuditLog) error
	List(f models.AuditLogFilter) ([]*models.AuditLog, error)
	DistinctActions() ([]string, error)
	CountByAction() ([]models.AuditActionCount, error)
}

// AuditService is a fire-and-forget sink: callers never handle its errors,
// a failed insert is logged and dropped. Queries back the admin screens.
type AuditService struct {
	Repo AuditLogStore
}

func NewAuditService(repo AuditLogStore) *AuditService {
	return &AuditService{Repo: repo}
}

// Log records an action. meta may be nil.
func (s *AuditService) Log(action string, userID *int, entityType, entityID string, meta map[string]any, ip, userAgent string) {
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IP:         ip,
		UserAgent:  userAgent,
	}
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			log.Printf("[audit][err] marshal meta action=%s err=%v", action, err)
		} else {
			entry.Meta = b
		}
	}
	if err := s.Repo.Create(entry); err != nil {
		log.Printf("[audit][err] write action=%s err=%v", action, err)
	}
}

func (s *AuditService) LogLogin(user *models.User, ip, userAgent string) {
	s.Log(models.AuditLoginSuccess, &user.ID, "User", strconv.Itoa(user.ID), map[string]any{"email": user.Email}, ip, userAgent)
}

func (s *AuditService) LogLogout(user *models.User, ip, userAgent string) {
	s.Log(models.AuditLogout, &user.ID, "User", strconv.Itoa(user.ID), nil, ip, userAgent)
}

func (s *AuditService) LogOtpSent(user *models.User, ip, userAgent string) {
	s.Log(models.AuditOtpSent, &user.ID, "User", strconv.Itoa(user.ID), map[string]any{"email": user.Email}, ip, userAgent)
}

func (s *AuditService) LogOtpVerified(user *models.User, ip, userAgent string) {
	s.Log(models.AuditOtpVerified, &user.ID, "User", strconv.Itoa(user.ID), nil, ip, userAgent)
}

func (s *AuditService) LogOtpFailed(user *models.User, ip, userAgent string) {
	s.Log(models.AuditOtpFailed, &user.ID, "User", strconv.Itoa(user.ID), nil, ip, userAgent)
}

func (s *AuditService) List(f models.AuditLogFilter) ([]*models.AuditLog, error) {
	return s.Repo.List(f)
}

func (s *AuditService) Actions() ([]string, error) {
	return s.Repo.DistinctActions()
}

func (s *AuditService) Summary() ([]models.AuditActionCount, error) {
	return s.Repo.CountByAction()
}
