package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Paper is a printable document: a heading block followed by numbered items.
type Paper struct {
	Title    string
	Subtitle []string
	Items    []PaperItem
}

// PaperItem is one numbered entry. Options are printed as a lettered list, Notes in italics below.
type PaperItem struct {
	Heading string
	Body    string
	Options []string
	Notes   []string
}

// PDFExporter renders papers with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out the paper on A4 pages with a page counter in the footer.
func (e *PDFExporter) Render(paper Paper) ([]byte, error) {
	if strings.TrimSpace(paper.Title) == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.MultiCell(0, 8, tr(paper.Title), "", "C", false)
	pdf.SetFont("Arial", "", 10)
	for _, line := range paper.Subtitle {
		pdf.CellFormat(0, 6, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	for i, item := range paper.Items {
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, item.Heading)), "", "L", false)
		if item.Body != "" {
			pdf.SetFont("Arial", "", 11)
			pdf.MultiCell(0, 6, tr(item.Body), "", "L", false)
		}
		pdf.SetFont("Arial", "", 10)
		for j, option := range item.Options {
			pdf.SetX(22)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%c) %s", 'A'+j, option)), "", "L", false)
		}
		if len(item.Notes) > 0 {
			pdf.SetFont("Arial", "I", 9)
			for _, note := range item.Notes {
				pdf.SetX(22)
				pdf.MultiCell(0, 5, tr(note), "", "L", false)
			}
		}
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
