package gatehouse

import (
	"path"
	"regexp"
	"strings"
)

var validUsernameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// IsValidUsername reports whether name may be registered: 1 to 64 characters
// from letters, digits, '.', '_' and '-', starting with a letter or digit.
func IsValidUsername(name string) bool {
	return validUsernameRegex.MatchString(name)
}

// SanitizeSegment keeps only ASCII letters, digits, '-' and '_'. The result
// may be empty, which callers must treat as a rejection.
func SanitizeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// SanitizeFilename sanitizes the stem and the extension of name separately
// and rejoins them with a single dot:
//
//	"Q1 report (final).pdf" -> "Q1reportfinal.pdf"
//	".bashrc"               -> ""
func SanitizeFilename(name string) string {
	ext := path.Ext(name)
	stem := SanitizeSegment(strings.TrimSuffix(name, ext))
	if stem == "" {
		return ""
	}

	ext = SanitizeSegment(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
