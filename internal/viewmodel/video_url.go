package viewmodel

import "strings"

const videosPrefix = "videos/"

// NormalizeVideoURL turns the backend's vendor-relative video fragment into a
// playable URL under base + "/videos/". Empty input yields "".
//
// Normalization is idempotent: feeding an already normalized URL back in
// (with or without base) returns it unchanged.
func NormalizeVideoURL(base, raw string) string {
	if raw == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")

	p := strings.ReplaceAll(raw, `\`, "/")
	if base != "" && strings.HasPrefix(p, base) {
		if rest := p[len(base):]; rest == "" || rest[0] == '/' {
			p = rest
		}
	}

	for {
		trimmed := strings.TrimLeft(p, "/")
		trimmed = strings.TrimPrefix(trimmed, videosPrefix)
		if trimmed == p {
			break
		}
		p = trimmed
	}

	return base + "/" + videosPrefix + p
}

// videoURL is NormalizeVideoURL over the nullable backend field.
func videoURL(base string, raw *string) string {
	if raw == nil {
		return ""
	}
	return NormalizeVideoURL(base, *raw)
}
