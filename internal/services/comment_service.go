package services

import (
	"errors"

	"aitoolshub/internal/authz"
	"aitoolshub/internal/models"
	"aitoolshub/internal/repositories"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("not the comment author")
)

type CommentService struct {
	Repo          *repositories.CommentRepository
	Tools         *repositories.ToolRepository
	Notifications *NotificationService
}

func NewCommentService(
	repo *repositories.CommentRepository,
	tools *repositories.ToolRepository,
	notifications *NotificationService,
) *CommentService {
	return &CommentService{Repo: repo, Tools: tools, Notifications: notifications}
}

func (s *CommentService) ListForTool(toolID int64) ([]*models.Comment, error) {
	return s.Repo.ListByToolID(toolID)
}

func (s *CommentService) Create(toolID int64, author *models.User, body string, parentID *int64) (*models.Comment, error) {
	tool, err := s.Tools.GetByID(toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, ErrToolNotFound
	}

	var parent *models.Comment
	if parentID != nil {
		parent, err = s.Repo.GetByID(*parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ToolID != toolID {
			return nil, ErrCommentNotFound
		}
	}

	c := &models.Comment{
		ToolID:   toolID,
		UserID:   author.ID,
		ParentID: parentID,
		Body:     body,
	}
	if err := s.Repo.Create(c); err != nil {
		return nil, err
	}

	if parent != nil {
		s.Notifications.NewReply(tool, parent, c, author)
	} else {
		s.Notifications.NewComment(tool, c, author)
	}
	return c, nil
}

func (s *CommentService) Update(id int64, actor *models.User, body string) (*models.Comment, error) {
	c, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCommentNotFound
	}
	if c.UserID != actor.ID {
		return nil, ErrNotCommentOwner
	}
	if err := s.Repo.Update(id, body); err != nil {
		return nil, err
	}
	c.Body = body
	return c, nil
}

// Delete allows the author or a moderator/admin.
func (s *CommentService) Delete(id int64, actor *models.User) error {
	c, err := s.Repo.GetByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCommentNotFound
	}
	if c.UserID != actor.ID && !authz.IsModeratorOrAdmin(actor.RoleID) {
		return ErrNotCommentOwner
	}
	return s.Repo.Delete(id)
}
