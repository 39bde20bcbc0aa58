package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"aitoolshub/internal/authz"
	"aitoolshub/internal/models"
	"aitoolshub/internal/repositories"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrNotToolOwner  = errors.New("not the tool owner")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

type ToolService struct {
	Repo          *repositories.ToolRepository
	Ratings       *repositories.RatingRepository
	Notifications *NotificationService
	Audit         *AuditService
}

func NewToolService(
	repo *repositories.ToolRepository,
	ratings *repositories.RatingRepository,
	notifications *NotificationService,
	audit *AuditService,
) *ToolService {
	return &ToolService{
		Repo:          repo,
		Ratings:       ratings,
		Notifications: notifications,
		Audit:         audit,
	}
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases, collapses runs of non-alphanumerics to single dashes
// and trims dangling dashes.
func Slugify(name string) string {
	s := slugStripRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// uniqueSlug appends -1, -2, ... until the slug is free.
func (s *ToolService) uniqueSlug(name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "tool"
	}
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.Repo.SlugExists(slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// Submit creates a pending tool and notifies the admins.
func (s *ToolService) Submit(t *models.Tool, submitter *models.User) error {
	slug, err := s.uniqueSlug(t.Name)
	if err != nil {
		return err
	}
	t.Slug = slug
	t.UserID = submitter.ID
	t.Status = models.ToolStatusPending

	if err := s.Repo.Create(t); err != nil {
		return err
	}

	s.Notifications.ToolSubmitted(t, submitter)
	log.Printf("[tools][submit] id=%d slug=%s user_id=%d", t.ID, t.Slug, submitter.ID)
	return nil
}

func (s *ToolService) GetByID(id int64, countView bool) (*models.Tool, error) {
	t, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrToolNotFound
	}
	if countView {
		if err := s.Repo.IncrementViews(t.ID); err != nil {
			log.Printf("[tools][views][err] id=%d err=%v", t.ID, err)
		} else {
			t.ViewsCount++
		}
	}
	return t, nil
}

func (s *ToolService) List(f models.ToolFilter) ([]*models.Tool, error) {
	return s.Repo.List(f)
}

// Update is restricted to the owner; moderators go through the moderation
// endpoints instead.
func (s *ToolService) Update(t *models.Tool, actor *models.User) error {
	existing, err := s.Repo.GetByID(t.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrToolNotFound
	}
	if existing.UserID != actor.ID {
		return ErrNotToolOwner
	}
	return s.Repo.Update(t)
}

func (s *ToolService) Delete(id int64, actor *models.User) error {
	existing, err := s.Repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrToolNotFound
	}
	if existing.UserID != actor.ID && !authz.IsModeratorOrAdmin(actor.RoleID) {
		return ErrNotToolOwner
	}
	return s.Repo.Delete(id)
}

func (s *ToolService) Approve(id int64, reviewer *models.User) (*models.Tool, error) {
	return s.review(id, reviewer, models.ToolStatusApproved)
}

func (s *ToolService) Reject(id int64, reviewer *models.User) (*models.Tool, error) {
	return s.review(id, reviewer, models.ToolStatusRejected)
}

func (s *ToolService) Archive(id int64, reviewer *models.User) (*models.Tool, error) {
	return s.review(id, reviewer, models.ToolStatusArchived)
}

func (s *ToolService) review(id int64, reviewer *models.User, status string) (*models.Tool, error) {
	t, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrToolNotFound
	}

	if err := s.Repo.SetStatus(id, status, reviewer.ID); err != nil {
		return nil, err
	}
	t.Status = status
	t.ApprovedBy = &reviewer.ID

	switch status {
	case models.ToolStatusApproved:
		s.Notifications.ToolApproved(t, reviewer)
		s.Audit.Log(models.AuditToolApproved, &reviewer.ID, "Tool", fmt.Sprint(t.ID),
			map[string]any{"tool_name": t.Name}, "", "")
	case models.ToolStatusRejected:
		s.Notifications.ToolRejected(t, reviewer)
		s.Audit.Log(models.AuditToolRejected, &reviewer.ID, "Tool", fmt.Sprint(t.ID),
			map[string]any{"tool_name": t.Name}, "", "")
	}

	log.Printf("[tools][review] id=%d status=%s by=%d", id, status, reviewer.ID)
	return t, nil
}

func (s *ToolService) SetFeatured(id int64, featured bool) (*models.Tool, error) {
	t, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrToolNotFound
	}
	if err := s.Repo.SetFeatured(id, featured); err != nil {
		return nil, err
	}
	t.IsFeatured = featured
	return t, nil
}

// Rate upserts the caller's rating and refreshes the tool aggregates.
func (s *ToolService) Rate(toolID int64, user *models.User, value int) (*models.Rating, error) {
	if value < 1 || value > 5 {
		return nil, ErrInvalidRating
	}
	t, err := s.Repo.GetByID(toolID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrToolNotFound
	}

	rating := &models.Rating{ToolID: toolID, UserID: user.ID, Value: value}
	if err := s.Ratings.Upsert(rating); err != nil {
		return nil, err
	}
	if err := s.Repo.RefreshRatingAggregates(toolID); err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *ToolService) GetUserRating(toolID int64, userID int) (*models.Rating, error) {
	return s.Ratings.GetByToolAndUser(toolID, userID)
}

func (s *ToolService) DeleteRating(ratingID int64, user *models.User) (bool, error) {
	rating, err := s.Ratings.GetByID(ratingID)
	if err != nil {
		return false, err
	}
	if rating == nil {
		return false, nil
	}
	deleted, err := s.Ratings.DeleteByIDForUser(ratingID, user.ID)
	if err != nil {
		return false, err
	}
	if deleted {
		if err := s.Repo.RefreshRatingAggregates(rating.ToolID); err != nil {
			return true, err
		}
	}
	return deleted, nil
}

func (s *ToolService) Statistics() (map[string]int, error) {
	return s.Repo.CountByStatus()
}
