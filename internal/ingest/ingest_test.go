package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreen/internal/errors"
)

const sampleResume = `Jane Doe
Software Engineer

Experience
Developed payment services in Go at Acme Inc from 2019 to 2023.`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?><w:document><w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractFile(t *testing.T) {
	in := New(1024*1024, 0, errors.NewDiscardLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		file     string
		data     []byte
		contains []string
		excludes []string
	}{
		{
			name:     "plain text",
			file:     "resume.txt",
			data:     []byte("  " + sampleResume + "\n\n\n\n"),
			contains: []string{"Jane Doe\nSoftware Engineer", "Acme Inc"},
		},
		{
			name:     "markdown",
			file:     "resume.md",
			data:     []byte(sampleResume),
			contains: []string{"Experience"},
		},
		{
			name:     "html",
			file:     "resume.html",
			data:     []byte(`<html><body><h1>Jane Doe</h1><p>Developed payment services in <b>Go</b> at Acme Inc.</p></body></html>`),
			contains: []string{"Jane Doe", "Developed payment services in Go at Acme Inc"},
			excludes: []string{"<p>", "<b>", "# Jane"},
		},
		{
			name:     "docx",
			file:     "resume.docx",
			data:     buildDocx(t, "Jane Doe", "Developed payment services &amp; APIs in Go at Acme Inc."),
			contains: []string{"Jane Doe\nDeveloped payment services & APIs"},
			excludes: []string{"<w:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			text, err := in.ExtractFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(text), text)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, text, unwanted)
			}
		})
	}
}

func TestExtractFileErrors(t *testing.T) {
	in := New(64, 0, errors.NewDiscardLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		message string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.pdf") },
			message: "File not found",
		},
		{
			name:    "unsupported extension",
			path:    func(t *testing.T) string { return writeFile(t, "resume.xlsx", []byte(sampleResume)) },
			message: "Unsupported file format: .xlsx",
		},
		{
			name:    "too large",
			path:    func(t *testing.T) string { return writeFile(t, "resume.txt", bytes.Repeat([]byte("a"), 65)) },
			message: "File validation failed",
		},
		{
			name:    "empty",
			path:    func(t *testing.T) string { return writeFile(t, "resume.txt", []byte(" \n\t ")) },
			message: "Resume contains no extractable text",
		},
		{
			name:    "too short",
			path:    func(t *testing.T) string { return writeFile(t, "resume.txt", []byte("Jane Doe, engineer")) },
			message: "Extracted text too short or unreadable",
		},
		{
			name:    "corrupt docx",
			path:    func(t *testing.T) string { return writeFile(t, "resume.docx", []byte("not a zip archive")) },
			message: "Text extraction failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.ExtractFile(ctx, tt.path(t))
			require.Error(t, err)
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeIngestion, appErr.Code)
			assert.Contains(t, appErr.Message, tt.message)
		})
	}
}

func TestExtractFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(0, 0, nil).ExtractFile(ctx, "resume.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	assert.Equal(t, "caf\u00e9 au lait\nnext", Normalize("  cafe\u0301   au\tlait \r\nnext  "))
	assert.Equal(t, "a\n\nb", Normalize("a\n\n\n\n\nb"))
}

func TestReadJobDescription(t *testing.T) {
	path := writeFile(t, "jd.html", []byte(`<h2>Requirements</h2><ul><li>Go</li><li>Kubernetes</li></ul>`))
	text, err := ReadJobDescription(path, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "Requirements")
	assert.Contains(t, text, "Kubernetes")
	assert.NotContains(t, text, "<li>")

	_, err = ReadJobDescription(filepath.Join(t.TempDir(), "missing.txt"), 0)
	assert.Error(t, err)
}
