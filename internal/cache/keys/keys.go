// Package keys builds cache and storage keys.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// bumped whenever the cached preview payload changes shape
const previewSchema = "v1"

// PreviewOptions are the request knobs that change a preview response.
type PreviewOptions struct {
	Format string
	Hexbin int // 0 disables hex-binning; otherwise resolution+1
}

// PreviewKey derives the cache key for a preview of body, which must be the
// canonical JSON encoding of the row set.
func PreviewKey(body []byte, o PreviewOptions) string {
	format := sanitize(strings.ToLower(strings.TrimSpace(o.Format)))
	if format == "" {
		format = "geojson"
	}
	return fmt.Sprintf("preview:%s:%s:h%d:%016x", previewSchema, format, o.Hexbin, xxhash.Sum64(body))
}

// SettingsKey is the storage key of the basemap settings document.
func SettingsKey(namespace string) string {
	ns := sanitize(strings.TrimSpace(namespace))
	if ns == "" {
		ns = "default"
	}
	return "basemaps:" + ns + ":settings"
}

// Fingerprint is a short stable hash for logging large payloads.
func Fingerprint(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// sanitize maps s onto [A-Za-z0-9_-], collapsing runs of replacements.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
