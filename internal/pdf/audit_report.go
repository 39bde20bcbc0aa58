package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"aitoolshub/internal/models"
)

// Generator renders admin exports (mockable in tests).
type Generator interface {
	AuditReport(data AuditReportData) ([]byte, error)
}

type ReportGenerator struct {
	AppName string
}

type AuditReportData struct {
	Title       string
	GeneratedAt time.Time
	Entries     []*models.AuditLog
	Summary     []models.AuditActionCount
}

func NewReportGenerator(appName string) *ReportGenerator {
	return &ReportGenerator{AppName: appName}
}

func (g *ReportGenerator) AuditReport(data AuditReportData) ([]byte, error) {
	title := data.Title
	if title == "" {
		title = "Audit Log Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor(g.AppName, false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  generated %s",
		g.AppName, data.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	g.hr(pdf)

	if len(data.Summary) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Actions summary", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range data.Summary {
			pdf.CellFormat(90, 6, row.Action, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, fmt.Sprintf("%d", row.Count), "", 1, "R", false, 0, "")
		}
		g.hr(pdf)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Entries", "", 1, "L", false, 0, "")

	// column header
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(32, 7, "Time", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, "Action", "1", 0, "L", true, 0, "")
	pdf.CellFormat(18, 7, "User", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Entity", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 7, "IP", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range data.Entries {
		userID := "-"
		if e.UserID != nil {
			userID = fmt.Sprintf("%d", *e.UserID)
		}
		entity := e.EntityType
		if e.EntityID != "" {
			entity += " #" + e.EntityID
		}
		pdf.CellFormat(32, 6, e.CreatedAt.Format("01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, e.Action, "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, userID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, entity, "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, e.IP, "1", 1, "L", false, 0, "")
	}
	if len(data.Entries) == 0 {
		pdf.CellFormat(0, 6, "No entries for the selected filter.", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	pdf.Ln(2)
	x, y := pdf.GetXY()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(left, y, pageW-right, y)
	pdf.SetXY(x, y+3)
}
