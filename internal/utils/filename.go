package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Runs of whitespace collapse to a single separator
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// maxLabelLength leaves room for a timestamp and extension within 255 bytes.
const maxLabelLength = 100

// FileLabel makes an identifier safe to embed in a generated file name.
// Path separators and characters invalid on common filesystems are removed,
// whitespace becomes '_' and leading dots are trimmed, so the result always
// names a plain file in the target directory. An empty result yields fallback.
func FileLabel(s, fallback string) string {
	s = whitespaceRuns.ReplaceAllString(strings.TrimSpace(s), "_")
	s = invalidFilenameChars.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, ".")

	if len(s) > maxLabelLength {
		s = s[:maxLabelLength]
	}

	if s == "" {
		return fallback
	}
	return s
}
