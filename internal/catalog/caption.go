package catalog

import (
	"regexp"
	"strings"
)

var (
	captionCodeRe = regexp.MustCompile(`(?i)\bcode\s*[:=]?\s*(\S+)`)
	captionNameRe = regexp.MustCompile(`(?i)\b(?:title|name)\s*[:=]?\s*(.+)`)
)

// ParseCaption extracts a labeled code and title from a media caption.
// Labels are matched per line, case-insensitive; the first match per
// label wins and the rest of the caption is ignored. The returned code
// is normalized, the name is trimmed with case preserved.
func ParseCaption(caption string) (code, name string) {
	for _, line := range strings.Split(caption, "\n") {
		if code == "" {
			if m := captionCodeRe.FindStringSubmatch(line); m != nil {
				code = NormalizeCode(m[1])
			}
		}
		if name == "" {
			if m := captionNameRe.FindStringSubmatch(line); m != nil {
				name = strings.TrimSpace(m[1])
			}
		}
	}
	return code, name
}
