// Package export renders the final resume as downloadable files.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	TextFileName = "enhanced_resume.txt"
	PDFFileName  = "enhanced_resume.pdf"

	TextContentType = "text/plain; charset=utf-8"
	PDFContentType  = "application/pdf"
)

// Page geometry in points on US Letter.
const (
	pageWidth    = 612.0
	pageHeight   = 792.0
	marginLeft   = 50.0
	firstLineTop = 40.0
	marginBottom = 50.0
	lineHeight   = 14.0
	fontSize     = 10.0
)

// LinesPerPage is how many lines fit between the first baseline and the bottom margin.
const LinesPerPage = 51

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "txt", "text" and "pdf"; empty means text.
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "txt", "text":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", v)
	}
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Pages       int
}

// Render produces the download for format.
func Render(final string, format Format) (File, error) {
	switch format {
	case FormatText:
		return File{Name: TextFileName, ContentType: TextContentType, Data: Text(final)}, nil
	case FormatPDF:
		data, pages, err := RenderPDF(final)
		if err != nil {
			return File{}, err
		}
		return File{Name: PDFFileName, ContentType: PDFContentType, Data: data, Pages: pages}, nil
	default:
		return File{}, fmt.Errorf("unsupported export format %q", format)
	}
}

// Text returns the resume bytes unchanged.
func Text(final string) []byte {
	return []byte(final)
}

// PageCount is the number of pages RenderPDF produces for text.
func PageCount(text string) int {
	lines := len(strings.Split(text, "\n"))
	return (lines + LinesPerPage - 1) / LinesPerPage
}

// RenderPDF writes each line of text at a fixed position in Helvetica 10.
// Lines are not wrapped; long lines run off the right edge.
func RenderPDF(text string) ([]byte, int, error) {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", fontSize)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	y := firstLineTop
	for _, line := range strings.Split(text, "\n") {
		if y > pageHeight-marginBottom {
			doc.AddPage()
			y = firstLineTop
		}
		if line != "" {
			doc.Text(marginLeft, y, tr(line))
		}
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), doc.PageCount(), nil
}
