package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

const (
	EmptyCellLabel = "[Empty]"
	qrImageName    = "calendar-qr"
)

// LayoutPDFOptions configures the bed layout PDF
type LayoutPDFOptions struct {
	Title string
	// CalendarURL is encoded into the QR code; no QR is drawn when empty
	CalendarURL string
}

func newDocument() (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetCreator("garden-planner", true)
	// Core fonts are cp1252; translate en dashes and bullets
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

// LayoutRowLine renders a bed row with " | " between cells
func LayoutRowLine(row []string) string {
	cells := make([]string, len(row))
	for i, c := range row {
		if c == "" {
			c = EmptyCellLabel
		}
		cells[i] = c
	}
	return strings.Join(cells, " | ")
}

// WriteLayoutPDF writes the bed layout with per-plant care notes and a QR
// code pointing at the hosted task calendar
func WriteLayoutPDF(w io.Writer, l *garden.Layout, c *garden.Catalog, opts LayoutPDFOptions) error {
	pdf, tr := newDocument()
	pdf.SetTitle(opts.Title, true)
	pdf.AddPage()

	if opts.Title != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 10, "Garden Bed Layout", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, row := range l.Grid() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 8, tr(LayoutRowLine(row)), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)

		for _, crop := range row {
			if crop == "" {
				continue
			}
			pdf.MultiCell(0, 6, tr(crop), "", "L", false)
			for _, line := range careNotes(c, crop) {
				pdf.MultiCell(0, 6, tr("  "+line), "", "L", false)
			}
		}
	}

	if opts.CalendarURL != "" {
		png, err := QRCodePNG(opts.CalendarURL, DefaultQRSize)
		if err != nil {
			return err
		}
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 8, "Scan to import garden calendar:", "", 1, "L", false, 0, "")

		imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageName, imgOpts, bytes.NewReader(png))
		pdf.ImageOptions(qrImageName, 80, pdf.GetY(), 50, 0, true, imgOpts, 0, "")
	}

	return output(pdf, w)
}

// careNotes returns the first two tasks, the first recurring rule and the
// companion plants of a variety. Unknown names have no notes.
func careNotes(c *garden.Catalog, name string) []string {
	v, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	var lines []string
	for i, t := range v.Tasks {
		if i == 2 {
			break
		}
		lines = append(lines, "• "+t)
	}
	if len(v.Recurring) > 0 {
		lines = append(lines, "Ongoing: "+v.Recurring[0])
	}
	if len(v.Companions) > 0 {
		lines = append(lines, "Companion Plants: "+strings.Join(v.Companions, ", "))
	}
	return lines
}

// WriteVarietyPDF writes the printable variety guide
func WriteVarietyPDF(w io.Writer, varieties []garden.Variety, title string, generated time.Time) error {
	pdf, tr := newDocument()
	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-20)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 10, "Generated on "+generated.Format("January 02, 2006"), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 10, "Seasonal Variety Guide", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if len(varieties) == 0 {
		pdf.MultiCell(0, 10, "No varieties match the selected filters.", "", "L", false)
	}
	for _, v := range varieties {
		row := VarietyRow(v)
		line := fmt.Sprintf("%s (%s) - %s | Level: %s | Organic: %s", row[0], row[1], row[2], row[3], row[4])
		pdf.MultiCell(0, 10, tr(line), "", "L", false)
	}

	return output(pdf, w)
}

func output(pdf *fpdf.Fpdf, w io.Writer) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
