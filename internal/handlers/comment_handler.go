package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/models"
	"aitoolshub/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
	userService    services.UserService
}

func NewCommentHandler(commentService *services.CommentService, userService services.UserService) *CommentHandler {
	return &CommentHandler{commentService: commentService, userService: userService}
}

func (h *CommentHandler) actor(c *gin.Context) *models.User {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return nil
	}
	return user
}

// @Summary      List comments for a tool
// @Tags         Comments
// @Produce      json
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /tools/{id}/comments [get]
func (h *CommentHandler) ListForTool(c *gin.Context) {
	toolID, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	comments, err := h.commentService.ListForTool(toolID)
	if err != nil {
		log.Printf("[comments][list][err] tool_id=%d err=%v", toolID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// @Summary      Add a comment
// @Description  Adds a comment or a reply when parent_id is set
// @Tags         Comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      201  {object}  models.Comment
// @Failure      404  {object}  map[string]string
// @Router       /tools/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	toolID, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	var req struct {
		Body     string `json:"body" binding:"required"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Create(toolID, user, req.Body, req.ParentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrToolNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
		case errors.Is(err, services.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Parent comment not found."})
		default:
			log.Printf("[comments][create][err] tool_id=%d err=%v", toolID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		}
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// @Summary      Edit a comment
// @Tags         Comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Comment ID"
// @Success      200  {object}  models.Comment
// @Failure      403  {object}  map[string]string
// @Router       /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment id"})
		return
	}
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Update(id, user, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found."})
		case errors.Is(err, services.ErrNotCommentOwner):
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only edit your own comments."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		}
		return
	}
	c.JSON(http.StatusOK, comment)
}

// @Summary      Delete a comment
// @Tags         Comments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Comment ID"
// @Success      200  {object}  map[string]string
// @Router       /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment id"})
		return
	}
	if err := h.commentService.Delete(id, user); err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found."})
		case errors.Is(err, services.ErrNotCommentOwner):
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only delete your own comments."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted."})
}
