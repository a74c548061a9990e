package validate

import (
	"regexp"
	"strings"
)

const emailPattern = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`

var (
	emailRe     = regexp.MustCompile(`(?i)\b` + emailPattern + `\b`)
	emailFullRe = regexp.MustCompile(`(?i)^\b` + emailPattern + `\b$`)
)

// imageSuffixes mark matches that are asset filenames (logo@2x.png) rather
// than mailboxes.
var imageSuffixes = []string{".png", ".jpg", ".jpeg", ".svg"}

// ExtractFirstEmail returns the first lower-cased email address in text that
// is not an image filename.
func ExtractFirstEmail(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, m := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if isImageName(lower) {
			continue
		}
		return lower, true
	}
	return "", false
}

// ExtractEmails returns every distinct email address in text, lower-cased and
// in order of first appearance, skipping image filenames.
func ExtractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if isImageName(lower) || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
	}
	return out
}

// IsValidEmail reports whether the trimmed value is an email address in its
// entirety, not merely one that contains an address.
func IsValidEmail(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	return emailFullRe.MatchString(value)
}

func isImageName(s string) bool {
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
