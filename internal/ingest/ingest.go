// Package ingest turns uploaded resume files into plain text.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrUnreadable  = errors.New("file could not be read")
	ErrEmpty       = errors.New("no text found in file")
)

// Document is the result of a successful ingestion.
type Document struct {
	Text     string
	MimeType string
}

// Extract detects the file type from its content, name and the client supplied
// mime type, and returns the text. Plain text is returned byte for byte.
func Extract(ctx context.Context, data []byte, fileName, mimeHint string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, ErrEmpty
	}

	mime := DetectMimeType(data, fileName, mimeHint)
	var (
		text string
		err  error
	)
	switch mime {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	case MimeText:
		text, err = extractText(data)
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, mime, err)
	}
	if mime != MimeText {
		// Parsers can emit NUL padding, which Postgres refuses in JSONB.
		text = strings.ReplaceAll(text, "\x00", "")
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, ErrEmpty
	}
	return Document{Text: text, MimeType: mime}, nil
}

// DetectMimeType sniffs data and falls back on the hint and file extension for
// containers such as zip that sniffing cannot tell apart. UTF-8 text the client
// declares as plain text stays plain text even when it sniffs as markup.
func DetectMimeType(data []byte, fileName, hint string) string {
	sniffed := cleanMime(http.DetectContentType(data))
	switch sniffed {
	case MimePDF:
		return MimePDF
	case "application/zip":
		if isDOCX(data) {
			return MimeDOCX
		}
		return sniffed
	case MimeText:
		return MimeText
	}

	hint = cleanMime(hint)
	ext := strings.ToLower(filepath.Ext(fileName))
	textual := sniffed == "application/octet-stream" || strings.HasPrefix(sniffed, "text/")
	if textual && utf8.Valid(data) && (hint == MimeText || ext == ".txt" || ext == ".md") {
		return MimeText
	}
	return sniffed
}

func cleanMime(v string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(v, ";")[0]))
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text is not valid UTF-8")
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", errors.New("text contains NUL bytes")
	}
	return string(data), nil
}

func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML keeps character data and turns paragraph and break ends into newlines.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
