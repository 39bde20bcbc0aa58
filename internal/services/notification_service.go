package services

import (
	"encoding/json"
	"fmt"
	"log"

	"aitoolshub/internal/authz"
	"aitoolshub/internal/models"
	"aitoolshub/internal/repositories"
)

// NotificationService writes in-app notifications. Like the audit sink it
// is fire-and-forget: failures are logged, never returned to the flow that
// triggered them.
type NotificationService struct {
	Repo  *repositories.NotificationRepository
	Users repositories.UserRepository
}

func NewNotificationService(repo *repositories.NotificationRepository, users repositories.UserRepository) *NotificationService {
	return &NotificationService{Repo: repo, Users: users}
}

func (s *NotificationService) create(n *models.Notification) {
	if err := s.Repo.Create(n); err != nil {
		log.Printf("[notify][err] type=%s user_id=%d err=%v", n.Type, n.UserID, err)
	}
}

func marshalData(data map[string]any) json.RawMessage {
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("[notify][err] marshal data: %v", err)
		return nil
	}
	return b
}

// ToolSubmitted notifies every admin except the submitter.
func (s *NotificationService) ToolSubmitted(tool *models.Tool, submitter *models.User) {
	admins, err := s.Users.ListByRole(authz.RoleAdmin)
	if err != nil {
		log.Printf("[notify][err] list admins: %v", err)
		return
	}
	for _, admin := range admins {
		if admin.ID == submitter.ID {
			continue
		}
		s.create(&models.Notification{
			UserID:    admin.ID,
			Type:      models.NotificationToolSubmitted,
			Message:   fmt.Sprintf("%s submitted a new tool: '%s'", submitter.Name, tool.Name),
			ActionURL: "/admin/tools",
			Data: marshalData(map[string]any{
				"tool_id":        tool.ID,
				"tool_name":      tool.Name,
				"tool_slug":      tool.Slug,
				"submitter_id":   submitter.ID,
				"submitter_name": submitter.Name,
			}),
		})
	}
}

func (s *NotificationService) ToolApproved(tool *models.Tool, approver *models.User) {
	s.create(&models.Notification{
		UserID:    tool.UserID,
		Type:      models.NotificationToolApproved,
		Message:   fmt.Sprintf("Your tool '%s' has been approved!", tool.Name),
		ActionURL: "/tools/" + tool.Slug,
		Data: marshalData(map[string]any{
			"tool_id":   tool.ID,
			"tool_name": tool.Name,
			"tool_slug": tool.Slug,
		}),
	})
}

func (s *NotificationService) ToolRejected(tool *models.Tool, rejector *models.User) {
	s.create(&models.Notification{
		UserID:    tool.UserID,
		Type:      models.NotificationToolRejected,
		Message:   fmt.Sprintf("Your tool '%s' has been rejected.", tool.Name),
		ActionURL: "/tools/" + tool.Slug,
		Data: marshalData(map[string]any{
			"tool_id":   tool.ID,
			"tool_name": tool.Name,
			"tool_slug": tool.Slug,
		}),
	})
}

// NewComment notifies the tool owner, unless they commented themselves.
func (s *NotificationService) NewComment(tool *models.Tool, comment *models.Comment, commenter *models.User) {
	if tool.UserID == commenter.ID {
		return
	}
	s.create(&models.Notification{
		UserID:    tool.UserID,
		Type:      models.NotificationNewComment,
		Message:   fmt.Sprintf("%s commented on your tool '%s'", commenter.Name, tool.Name),
		ActionURL: "/tools/" + tool.Slug + "#comments",
		Data: marshalData(map[string]any{
			"tool_id":    tool.ID,
			"comment_id": comment.ID,
		}),
	})
}

// NewReply notifies the parent comment's author, unless they replied to
// themselves.
func (s *NotificationService) NewReply(tool *models.Tool, parent, reply *models.Comment, replier *models.User) {
	if parent.UserID == replier.ID {
		return
	}
	s.create(&models.Notification{
		UserID:    parent.UserID,
		Type:      models.NotificationNewReply,
		Message:   fmt.Sprintf("%s replied to your comment on '%s'", replier.Name, tool.Name),
		ActionURL: fmt.Sprintf("/tools/%s#comment-%d", tool.Slug, parent.ID),
		Data: marshalData(map[string]any{
			"tool_id":    tool.ID,
			"comment_id": reply.ID,
			"parent_id":  parent.ID,
		}),
	})
}

func (s *NotificationService) TrustedDeviceAdded(user *models.User, device *models.TrustedDevice) {
	s.create(&models.Notification{
		UserID:    user.ID,
		Type:      models.NotificationDeviceTrusted,
		Message:   fmt.Sprintf("New trusted device added: %s", device.DeviceName),
		ActionURL: "/settings/security",
		Data: marshalData(map[string]any{
			"device_id":   device.ID,
			"device_name": device.DeviceName,
			"ip_address":  device.IPAddress,
		}),
	})
}

func (s *NotificationService) AccountLocked(user *models.User, minutes int) {
	s.create(&models.Notification{
		UserID:    user.ID,
		Type:      models.NotificationAccountLocked,
		Message:   fmt.Sprintf("Your account was temporarily locked for %d minutes after repeated failed verification attempts.", minutes),
		ActionURL: "/settings/security",
	})
}

func (s *NotificationService) List(userID, limit, offset int) ([]*models.Notification, error) {
	return s.Repo.ListByUserID(userID, limit, offset)
}

func (s *NotificationService) UnreadCount(userID int) (int, error) {
	return s.Repo.CountUnread(userID)
}

func (s *NotificationService) MarkRead(id int64, userID int) (bool, error) {
	return s.Repo.MarkRead(id, userID)
}

func (s *NotificationService) MarkAllRead(userID int) (int64, error) {
	return s.Repo.MarkAllRead(userID)
}
