package services

import (
	"fmt"
	"strings"
	"time"

	"aitoolshub/internal/models"
	"aitoolshub/internal/repositories"
)

type UserService interface {
	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers(limit, offset int) ([]*models.User, error)
	GetUserCount() (int, error)
	GetUserCountByRole(roleID int) (int, error)
	AssignRole(userID, roleID int) error

	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	GetByRefreshToken(token string) (*models.User, error)
	ClearRefresh(userID int) error

	MarkTwoFactorVerified(userID int, at time.Time) error
}

type userService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(strings.TrimSpace(email))
}

func (s *userService) ListUsers(limit, offset int) ([]*models.User, error) {
	return s.repo.List(limit, offset)
}

func (s *userService) GetUserCount() (int, error) {
	return s.repo.GetCount()
}

func (s *userService) GetUserCountByRole(roleID int) (int, error) {
	return s.repo.GetCountByRole(roleID)
}

func (s *userService) AssignRole(userID, roleID int) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d not found", userID)
	}
	return s.repo.UpdateRole(userID, roleID)
}

func (s *userService) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(userID, token, expiresAt)
}

func (s *userService) GetByRefreshToken(token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(token)
}

func (s *userService) ClearRefresh(userID int) error {
	return s.repo.ClearRefresh(userID)
}

func (s *userService) MarkTwoFactorVerified(userID int, at time.Time) error {
	return s.repo.SetTwoFactorVerifiedAt(userID, at)
}
