package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/models"
	"aitoolshub/internal/pdf"
	"aitoolshub/internal/services"
)

type AuditHandler struct {
	audit   *services.AuditService
	reports pdf.Generator
}

func NewAuditHandler(audit *services.AuditService, reports pdf.Generator) *AuditHandler {
	return &AuditHandler{audit: audit, reports: reports}
}

func auditFilterFromQuery(c *gin.Context) models.AuditLogFilter {
	f := models.AuditLogFilter{
		UserID: queryInt(c, "user_id", 0),
		Action: c.Query("action"),
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	return f
}

// @Summary      List audit log entries
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query  int     false  "User filter"
// @Param        action   query  string  false  "Action filter"
// @Param        from     query  string  false  "RFC3339 lower bound"
// @Param        to       query  string  false  "RFC3339 upper bound"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	entries, err := h.audit.List(auditFilterFromQuery(c))
	if err != nil {
		log.Printf("[audit][list][err] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// @Summary      Distinct audit actions
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/audit-logs/actions [get]
func (h *AuditHandler) Actions(c *gin.Context) {
	actions, err := h.audit.Actions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list actions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

// @Summary      Audit actions summary
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/audit-logs/summary [get]
func (h *AuditHandler) Summary(c *gin.Context) {
	summary, err := h.audit.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// @Summary      Export audit log as PDF
// @Tags         Admin
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200  {file}  binary
// @Router       /admin/audit-logs/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	entries, err := h.audit.List(auditFilterFromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit logs"})
		return
	}
	summary, err := h.audit.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load summary"})
		return
	}

	now := time.Now()
	data, err := h.reports.AuditReport(pdf.AuditReportData{
		GeneratedAt: now,
		Entries:     entries,
		Summary:     summary,
	})
	if err != nil {
		log.Printf("[audit][export][err] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	filename := fmt.Sprintf("audit_report_%s.pdf", now.Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
