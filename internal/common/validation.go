package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

// ValidateJDInput checks that a job description comes from exactly one of a
// file or inline text.
func ValidateJDInput(file, text string) error {
	hasText := strings.TrimSpace(text) != ""
	switch {
	case file == "" && !hasText:
		return fmt.Errorf("a job description is required: pass --jd or --jd-text")
	case file != "" && hasText:
		return fmt.Errorf("--jd and --jd-text are mutually exclusive")
	}
	return nil
}

// ValidateConcurrency rejects worker counts the pool cannot run with.
func ValidateConcurrency(n int) error {
	if n < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", n)
	}
	return nil
}
