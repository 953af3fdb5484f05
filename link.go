package apiclient

import (
	"strings"
)

// parseLinkNext extracts the rel="next" target from a Link response header
// (GitHub style: `<https://api/...?page=2>; rel="next", <...>; rel="last"`).
// It returns "" when no next link is present.
func parseLinkNext(header string) string {
	if header == "" {
		return ""
	}

	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}

		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}

		for _, param := range segments[1:] {
			param = strings.TrimSpace(param)
			if rel, ok := strings.CutPrefix(param, "rel="); ok {
				rel = strings.Trim(rel, `"`)
				if rel == "next" {
					return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
				}
			}
		}
	}

	return ""
}
