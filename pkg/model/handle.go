package model

import (
	"regexp"
	"strings"
)

var (
	// profileURLPatterns are the accepted profile URL shapes. The host must start the string or
	// follow a scheme, a subdomain or a userinfo separator, so "box.com/alice" is not an x.com URL.
	profileURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|[/.@])twitter\.com/([^/?#\s]+)`),
		regexp.MustCompile(`(?i)(?:^|[/.@])x\.com/([^/?#\s]+)`),
	}

	bareHandlePattern = regexp.MustCompile(`^@?[A-Za-z0-9_]+$`)
)

// ExtractHandle returns the profile handle referenced by ref, keeping its original case.
// ref is either a profile URL or a bare handle. It returns "" when no handle can be found.
func ExtractHandle(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	for _, pattern := range profileURLPatterns {
		if match := pattern.FindStringSubmatch(ref); match != nil {
			return strings.TrimPrefix(match[1], "@")
		}
	}

	if bareHandlePattern.MatchString(ref) {
		return strings.TrimPrefix(ref, "@")
	}

	return ""
}

// DeriveID returns the memo ID for ref. An empty ID means ref is not a usable profile reference.
func DeriveID(ref string) MemoID {
	return MemoID(strings.ToLower(ExtractHandle(ref)))
}
