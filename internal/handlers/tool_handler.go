package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/models"
	"aitoolshub/internal/services"
)

type ToolHandler struct {
	toolService *services.ToolService
	userService services.UserService
}

func NewToolHandler(toolService *services.ToolService, userService services.UserService) *ToolHandler {
	return &ToolHandler{toolService: toolService, userService: userService}
}

type toolRequest struct {
	Name              string `json:"name" binding:"required"`
	Link              string `json:"link" binding:"required,url"`
	DocumentationLink string `json:"documentation_link" binding:"omitempty,url"`
	Description       string `json:"description" binding:"required"`
	HowToUse          string `json:"how_to_use"`
}

func (h *ToolHandler) actor(c *gin.Context) *models.User {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return nil
	}
	return user
}

// @Summary      Submit a tool
// @Description  Creates a tool in pending status awaiting moderation
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  models.Tool
// @Failure      400  {object}  map[string]string
// @Router       /tools [post]
func (h *ToolHandler) Create(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tool := &models.Tool{
		Name:              req.Name,
		Link:              req.Link,
		DocumentationLink: req.DocumentationLink,
		Description:       req.Description,
		HowToUse:          req.HowToUse,
	}
	if err := h.toolService.Submit(tool, user); err != nil {
		log.Printf("[tools][create][err] user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit tool"})
		return
	}
	c.JSON(http.StatusCreated, tool)
}

// @Summary      List tools
// @Description  Lists approved tools with optional filters
// @Tags         Tools
// @Produce      json
// @Param        search       query  string  false  "Search in name and description"
// @Param        category_id  query  int     false  "Category filter"
// @Param        tag_id       query  int     false  "Tag filter"
// @Param        featured     query  bool    false  "Featured only"
// @Param        limit        query  int     false  "Page size"
// @Param        offset       query  int     false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /tools [get]
func (h *ToolHandler) List(c *gin.Context) {
	f := models.ToolFilter{
		Status: models.ToolStatusApproved,
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if v := c.Query("category_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.CategoryID = id
		}
	}
	if v := c.Query("tag_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.TagID = id
		}
	}
	if c.Query("featured") == "true" {
		f.Featured = true
	}

	tools, err := h.toolService.List(f)
	if err != nil {
		log.Printf("[tools][list][err] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tools"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools, "limit": f.Limit, "offset": f.Offset})
}

// @Summary      Get a tool
// @Tags         Tools
// @Produce      json
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Tool
// @Failure      404  {object}  map[string]string
// @Router       /tools/{id} [get]
func (h *ToolHandler) GetByID(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	tool, err := h.toolService.GetByID(id, true)
	if err != nil {
		if errors.Is(err, services.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tool"})
		return
	}
	c.JSON(http.StatusOK, tool)
}

// @Summary      Update a tool
// @Description  Owner-only edit of the tool's editable fields
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Tool
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tools/{id} [put]
func (h *ToolHandler) Update(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tool := &models.Tool{
		ID:                id,
		Name:              req.Name,
		Link:              req.Link,
		DocumentationLink: req.DocumentationLink,
		Description:       req.Description,
		HowToUse:          req.HowToUse,
	}
	if err := h.toolService.Update(tool, user); err != nil {
		switch {
		case errors.Is(err, services.ErrToolNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
		case errors.Is(err, services.ErrNotToolOwner):
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only edit your own tools."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tool"})
		}
		return
	}
	c.JSON(http.StatusOK, tool)
}

// @Summary      Delete a tool
// @Tags         Tools
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  map[string]string
// @Router       /tools/{id} [delete]
func (h *ToolHandler) Delete(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	if err := h.toolService.Delete(id, user); err != nil {
		switch {
		case errors.Is(err, services.ErrToolNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
		case errors.Is(err, services.ErrNotToolOwner):
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only delete your own tools."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tool"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tool deleted."})
}

// @Summary      Rate a tool
// @Description  Creates or replaces the caller's 1-5 star rating
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Rating
// @Failure      422  {object}  map[string]string
// @Router       /tools/{id}/rate [post]
func (h *ToolHandler) Rate(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	var req struct {
		Value int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating, err := h.toolService.Rate(id, user, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRating):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Rating must be between 1 and 5."})
		case errors.Is(err, services.ErrToolNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Tool not found."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rate tool"})
		}
		return
	}
	c.JSON(http.StatusOK, rating)
}

// @Summary      Caller's rating of a tool
// @Tags         Tools
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Tool ID"
// @Success      200  {object}  models.Rating
// @Failure      404  {object}  map[string]string
// @Router       /tools/{id}/rating [get]
func (h *ToolHandler) GetMyRating(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool id"})
		return
	}
	rating, err := h.toolService.GetUserRating(id, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rating"})
		return
	}
	if rating == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Rating not found."})
		return
	}
	c.JSON(http.StatusOK, rating)
}

// @Summary      Delete a rating
// @Tags         Tools
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Rating ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ratings/{id} [delete]
func (h *ToolHandler) DeleteRating(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating id"})
		return
	}
	deleted, err := h.toolService.DeleteRating(id, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rating"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "Rating not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted."})
}

// @Summary      Tools of the current user
// @Tags         Tools
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /my/tools [get]
func (h *ToolHandler) ListMine(c *gin.Context) {
	user := h.actor(c)
	if user == nil {
		return
	}
	f := models.ToolFilter{
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	f.OwnerID = user.ID
	tools, err := h.toolService.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tools"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}
