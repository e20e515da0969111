// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doi canonicalizes Digital Object Identifiers so that values taken
// from different sources compare equal.
package doi

import (
	"regexp"
	"strings"
)

// prefixes are stripped case-insensitively, first match only.
var prefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// pattern matches a bare DOI: "10.1145/1234567.1234568".
var pattern = regexp.MustCompile(`(?i)^10\.\d{4,}/.+$`)

// pubIDPattern matches Crossref depositor publication codes such as "J645505".
var pubIDPattern = regexp.MustCompile(`^[Jj]\d+$`)

// Normalize returns the canonical lowercase form of raw and true, or ""
// and false when raw cannot be brought into the form 10.<4+ digits>/<suffix>.
// Percent-encoding is decoded, surrounding whitespace trimmed, and a known
// URL or scheme prefix removed. Normalize is idempotent: decoding repeats
// until no escape sequence remains, so a canonical value never decodes further.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(unescape(raw))

	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.TrimSpace(s)

	if !pattern.MatchString(s) {
		return "", false
	}
	return strings.ToLower(s), true
}

// MustNormalize is Normalize for values known to be valid; it returns raw
// unchanged when normalization fails.
func MustNormalize(raw string) string {
	if d, ok := Normalize(raw); ok {
		return d
	}
	return raw
}

// IsDepositorPubID reports whether value looks like a Crossref depositor
// publication code ("J" followed by digits).
func IsDepositorPubID(value string) bool {
	return pubIDPattern.MatchString(strings.TrimSpace(value))
}

// Unique returns dois with duplicates removed, keeping first occurrences in order.
func Unique(dois []string) []string {
	seen := make(map[string]struct{}, len(dois))
	out := make([]string, 0, len(dois))
	for _, d := range dois {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// maxUnescapePasses bounds repeated decoding of nested escapes ("%252F").
const maxUnescapePasses = 8

// unescape decodes %XX sequences until the value stops changing.
func unescape(s string) string {
	for i := 0; i < maxUnescapePasses; i++ {
		next := unescapeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// unescapeOnce decodes valid %XX sequences and leaves malformed ones as-is.
func unescapeOnce(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
