package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/models"
	"aitoolshub/internal/repositories"
	"aitoolshub/internal/services"
)

// TaxonomyHandler serves the category and tag directories. Both are
// read-only for regular users; editing goes through migrations or the
// admin tooling.
type TaxonomyHandler struct {
	categories *repositories.CategoryRepository
	tags       *repositories.TagRepository
}

func NewTaxonomyHandler(categories *repositories.CategoryRepository, tags *repositories.TagRepository) *TaxonomyHandler {
	return &TaxonomyHandler{categories: categories, tags: tags}
}

// @Summary      List categories
// @Tags         Taxonomy
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /categories [get]
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List()
	if err != nil {
		log.Printf("[taxonomy][categories][err] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// @Summary      Get a category
// @Tags         Taxonomy
// @Produce      json
// @Param        id  path  int  true  "Category ID"
// @Success      200  {object}  models.Category
// @Failure      404  {object}  map[string]string
// @Router       /categories/{id} [get]
func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
		return
	}
	category, err := h.categories.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load category"})
		return
	}
	if category == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found."})
		return
	}
	c.JSON(http.StatusOK, category)
}

// @Summary      List tags
// @Tags         Taxonomy
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /tags [get]
func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List()
	if err != nil {
		log.Printf("[taxonomy][tags][err] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// @Summary      Create a tag
// @Description  Adds a tag to the directory; existing slugs are returned as-is
// @Tags         Taxonomy
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  models.Tag
// @Failure      400  {object}  map[string]string
// @Router       /tags [post]
func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := services.Slugify(req.Name)
	if slug == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Tag name must contain letters or digits."})
		return
	}
	existing, err := h.tags.GetBySlug(slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	tag := &models.Tag{Name: strings.TrimSpace(req.Name), Slug: slug}
	if err := h.tags.Create(tag); err != nil {
		log.Printf("[taxonomy][tags][err] create slug=%s: %v", slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// @Summary      Get a tag
// @Tags         Taxonomy
// @Produce      json
// @Param        id  path  int  true  "Tag ID"
// @Success      200  {object}  models.Tag
// @Failure      404  {object}  map[string]string
// @Router       /tags/{id} [get]
func (h *TaxonomyHandler) GetTag(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag id"})
		return
	}
	tag, err := h.tags.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tag"})
		return
	}
	if tag == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Tag not found."})
		return
	}
	c.JSON(http.StatusOK, tag)
}
