package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/authz"
	"aitoolshub/internal/models"
	"aitoolshub/internal/services"
)

// AdminHandler covers user administration and moderation of submitted
// tools. Everything here sits behind RequireRoles.
type AdminHandler struct {
	userService services.UserService
	toolService *services.ToolService
	audit       *services.AuditService
}

func NewAdminHandler(userService services.UserService, toolService *services.ToolService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{userService: userService, toolService: toolService, audit: audit}
}

func (h *AdminHandler) reviewer(c *gin.Context) *models.User {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return nil
	}
	return user
}

// @Summary      List users
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Page size"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		log.Printf("[admin][users][err] list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// @Summary      User statistics
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int
// @Router       /admin/users/statistics [get]
func (h *AdminHandler) UserStatistics(c *gin.Context) {
	total, err := h.userService.GetUserCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}
	admins, err := h.userService.GetUserCountByRole(authz.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}
	moderators, err := h.userService.GetUserCountByRole(authz.RoleModerator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"admins":     admins,
		"moderators": moderators,
	})
}

// @Summary      Assign a role
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id}/role [post]
func (h *AdminHandler) AssignRole(c *gin.Context) {
	actor := h.reviewer(c)
	if actor == nil {
		return
	}
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	var req struct {
		RoleID int `json:"role_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.RoleID {
	case authz.RoleUser, authz.RoleModerator, authz.RoleAdmin:
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Unknown role."})
		return
	}

	if err := h.userService.AssignRole(userID, req.RoleID); err != nil {
		log.Printf("[admin][users][err] assign role user_id=%d role_id=%d: %v", userID, req.RoleID, err)
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}

	h.audit.Log(models.AuditRoleAssigned, &actor.ID, "User", strconv.Itoa(userID),
		map[string]any{"role_id": req.RoleID}, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"message": "Role assigned."})
}

// @Summary      List tools for moderation
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Status filter (default pending)"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/tools [get]
func (h *AdminHandler) ListTools(c *gin.Context) {
	status := c.DefaultQuery("status", models.ToolStatusPending)
	tools, err := h.toolService.List(models.ToolFilter{
		Status: status,
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		log.Printf("[admin][tools][err] list status=%s: %v", status, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tools"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

// @Summary      Approve a tool
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Tool
// @Failure      404  {object}  map[string]string
// @Router       /admin/tools/{id}/approve [post]
func (h *AdminHandler) ApproveTool(c *gin.Context) {
	h.moderate(c, h.toolService.Approve)
}

// @Summary      Reject a tool
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Tool
// @Failure      404  {object}  map[string]string
// @Router       /admin/tools/{id}/reject [post]
func (h *AdminHandler) RejectTool(c *gin.Context) {
	h.moderate(c, h.toolService.Reject)
}

// @Summary      Archive a tool
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Tool
// @Failure      404  {object}  map[string]string
// @Router       /admin/tools/{id}/archive [post]
func (h *AdminHandler) ArchiveTool(c *gin.Context) {
	h.moderate(c, h.toolService.Archive)
}

func (h *AdminHandler) moderate(c *gin.Context, action func(int64, *models.User) (*models.Tool, error)) {
	reviewer := h.reviewer(c)
	if reviewer == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	tool, err := action(id, reviewer)
	if err != nil {
		if errors.Is(err, services.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
			return
		}
		log.Printf("[admin][tools][err] moderate id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tool"})
		return
	}
	c.JSON(http.StatusOK, tool)
}

// @Summary      Feature or unfeature a tool
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Tool
// @Failure      404  {object}  map[string]string
// @Router       /admin/tools/{id}/feature [post]
func (h *AdminHandler) FeatureTool(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	var req struct {
		Featured bool `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tool, err := h.toolService.SetFeatured(id, req.Featured)
	if err != nil {
		if errors.Is(err, services.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tool"})
		return
	}
	c.JSON(http.StatusOK, tool)
}

// @Summary      Tool statistics
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int
// @Router       /admin/tools/statistics [get]
func (h *AdminHandler) ToolStatistics(c *gin.Context) {
	stats, err := h.toolService.Statistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
