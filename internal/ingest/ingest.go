// Package ingest validates resume and job description files and extracts their
// plain text.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"resumescreen/internal/errors"
	"resumescreen/internal/utils"
)

// DefaultMinChars is the shortest extracted text accepted as a resume.
const DefaultMinChars = 30

var (
	xmlTags        = regexp.MustCompile(`<[^>]+>`)
	inlineSpace    = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
	markdownLink   = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	markdownHeader = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	markdownEmph   = strings.NewReplacer("**", "", "__", "", "`", "", "\\-", "-", "\\.", ".", "\\*", "*")
)

// Ingester extracts text from resume files.
type Ingester struct {
	maxSize  int64
	minChars int
	logger   *errors.Logger
}

// New creates an Ingester. maxSize <= 0 disables the size limit and minChars <= 0
// uses DefaultMinChars.
func New(maxSize int64, minChars int, logger *errors.Logger) *Ingester {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Ingester{maxSize: maxSize, minChars: minChars, logger: logger}
}

func ingestionError(message string, cause error) *errors.AppError {
	return errors.NewIOError(errors.ErrCodeIngestion, message, cause)
}

// ExtractFile reads a resume file and returns its normalised text.
func (in *Ingester) ExtractFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", ingestionError("File not found", err).WithContext("file", path)
	}
	ext := utils.GetFileExtension(path)
	if !utils.IsSupportedResume(path) {
		return "", ingestionError(fmt.Sprintf("Unsupported file format: %s", ext), nil).WithContext("file", path)
	}
	if err := utils.ValidateInputFile(path, in.maxSize); err != nil {
		return "", ingestionError("File validation failed", err).WithContext("file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", ingestionError("Text extraction failed", err).WithContext("file", path)
	}

	text, err := in.ExtractBytes(filepath.Base(path), data)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithContext("file", path)
		}
		return "", err
	}

	if in.logger != nil {
		in.logger.Debug("Extracted resume text", "file", path, "format", ext, "chars", len(text))
	}
	return text, nil
}

// ExtractBytes extracts text from in-memory file content; name selects the format.
func (in *Ingester) ExtractBytes(name string, data []byte) (string, error) {
	var raw string
	var err error
	switch ext := utils.GetFileExtension(name); {
	case ext == ".pdf":
		raw, err = extractPDF(data)
	case ext == ".docx":
		raw, err = extractDocx(data)
	case utils.IsHTMLFile(name):
		raw, err = htmlToText(string(data))
	case utils.IsTextFile(name):
		raw = string(data)
	default:
		return "", ingestionError(fmt.Sprintf("Unsupported file format: %s", ext), nil)
	}
	if err != nil {
		return "", ingestionError(fmt.Sprintf("Text extraction failed: %v", err), err)
	}

	if strings.TrimSpace(raw) == "" {
		return "", ingestionError("Resume contains no extractable text", nil)
	}
	text := Normalize(raw)
	if len([]rune(text)) < in.minChars {
		return "", ingestionError("Extracted text too short or unreadable", nil)
	}
	return text, nil
}

// Normalize applies NFC, collapses inline whitespace, keeps line breaks and trims.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		doc, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		xml := string(doc)
		xml = strings.ReplaceAll(xml, "</w:p>", "\n")
		xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
		xml = strings.ReplaceAll(xml, "<w:br/>", "\n")
		text := xmlTags.ReplaceAllString(xml, "")
		return unescapeXML(text), nil
	}
	return "", fmt.Errorf("no word/document.xml found in docx")
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", "\"", "&apos;", "'")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

// htmlToText converts HTML to markdown and strips the markdown decoration that
// would otherwise leak into sentences.
func htmlToText(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	md = markdownLink.ReplaceAllString(md, "$1")
	md = markdownHeader.ReplaceAllString(md, "")
	return markdownEmph.Replace(md), nil
}

// ReadJobDescription reads a job description from a text, markdown or HTML file.
func ReadJobDescription(path string, maxSize int64) (string, error) {
	if err := utils.ValidateInputFile(path, maxSize); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid job description file %s", path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	text := string(data)
	if utils.IsHTMLFile(path) {
		if text, err = htmlToText(text); err != nil {
			return "", errors.NewIOError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Cannot convert HTML job description: %s", path), err)
		}
	}
	return Normalize(text), nil
}
