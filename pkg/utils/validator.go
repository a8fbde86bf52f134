package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	unsafeName   = regexp.MustCompile(`[^\p{L}\p{N}._\- ]+`)
)

// SanitizeString removes control characters and surrounding whitespace.
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// ValidateEmployeeName checks a canonical employee name before it is stored.
func ValidateEmployeeName(name string) error {
	name = SanitizeString(name)
	if name == "" {
		return fmt.Errorf("employee name is empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("employee name is not valid UTF-8")
	}
	if utf8.RuneCountInString(name) > 200 {
		return fmt.Errorf("employee name is too long: %d characters", utf8.RuneCountInString(name))
	}
	return nil
}

// ValidateUploadName accepts PDF and image uploads only.
func ValidateUploadName(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return nil
	default:
		return fmt.Errorf("unsupported file type: %s", name)
	}
}

// SafeFileName strips directories and characters unsafe in a file name.
func SafeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeName.ReplaceAllString(base, "_")
	if base == "." || base == "" || base == ".." {
		return "upload"
	}
	return base
}
