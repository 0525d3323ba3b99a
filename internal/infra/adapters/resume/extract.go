package resume

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "txt"
)

// DetectKind decides the document type from the file name, then the MIME type.
func DetectKind(f *model.ResumeFile) (Kind, error) {
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	case ".txt":
		return KindText, nil
	}
	switch {
	case strings.Contains(f.MIME, "pdf"):
		return KindPDF, nil
	case strings.Contains(f.MIME, "wordprocessingml"):
		return KindDOCX, nil
	case strings.HasPrefix(f.MIME, "text/plain"):
		return KindText, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, f.Name)
}

// ExtractText returns the plain text of an uploaded résumé.
func ExtractText(f *model.ResumeFile) (string, error) {
	if f.Empty() {
		return "", domain.ErrEmptyFile
	}
	kind, err := DetectKind(f)
	if err != nil {
		return "", err
	}
	switch kind {
	case KindPDF:
		return pdfText(f.Data)
	case KindDOCX:
		return docxText(f.Data)
	default:
		return string(f.Data), nil
	}
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("could not extract text from pdf")
	}
	return text, nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br[^>]*/>|<w:tab[^>]*/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = paragraphEnd.ReplaceAllStringFunc(content, func(tag string) string {
		if strings.HasPrefix(tag, "<w:tab") {
			return "\t"
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = blankLines.ReplaceAllString(content, "\n\n")
	text := strings.TrimSpace(content)
	if text == "" {
		return "", fmt.Errorf("could not extract text from docx")
	}
	return text, nil
}
