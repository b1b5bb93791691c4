package rendering

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// maxFragmentLength keeps owner/company fragments short enough that the full
// filename stays portable across filesystems.
const maxFragmentLength = 40

// SanitizeFragment reduces arbitrary text (company names come from external
// data) to a safe filename fragment.
func SanitizeFragment(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "_-")
	if len(s) > maxFragmentLength {
		s = s[:maxFragmentLength]
	}
	if s == "" {
		return "document"
	}
	return s
}

// DocumentFilename builds a collision-resistant PDF filename from an owner
// fragment, the target company and a timestamp.
func DocumentFilename(owner, company string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s.pdf",
		SanitizeFragment(owner),
		SanitizeFragment(company),
		ts.Format("20060102T150405"),
	)
}
