package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// GeneratePDF renders a session's final summary and per-chunk notes into
// a printable document.
func (s *PDFService) GeneratePDF(sess domain.Session, notes []domain.Note, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure pdf directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Session %s", sess.ID), false)
	pdf.SetAuthor("Handriti", false)
	pdf.AddPage()

	title := sess.Name
	if strings.TrimSpace(title) == "" {
		title = "Session"
	}

	createdAt := time.UnixMilli(sess.CreatedAt).Local()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, fmt.Sprintf("Profile: %s", sess.Profile))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Recorded: %s", createdAt.Format("02/01/2006 15:04")))
	pdf.Ln(12)

	s.writeSection(pdf, "Final summary", sess.FinalSummary, false)
	pdf.Ln(8)

	var lines []string
	for _, note := range notes {
		lines = append(lines, note.Content)
	}
	s.writeSection(pdf, "Notes", strings.Join(lines, "\n"), false)

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}

func (s *PDFService) writeSection(pdf *gofpdf.Fpdf, title, content string, bullet bool) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		pdf.MultiCell(0, 6, "(empty)", "", "L", false)
		return
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		text := line
		if bullet {
			text = fmt.Sprintf("• %s", line)
		}
		pdf.MultiCell(0, 6, text, "", "L", false)
	}
}
