package downloader

import (
	"mime"
	"net/url"
	"path"
	"strings"
	"unicode"
)

const (
	// fallbackPrefix names files synthesized from the download_file query
	// parameter when the response offers nothing better.
	fallbackPrefix = "dan_carlin_episode_"
	queryParamKey  = "download_file"
	forcedExt      = ".mp3"
)

// responseMeta is everything filename resolution may look at. Redirects are
// already resolved; FinalURL is where the response actually came from.
type responseMeta struct {
	ContentDisposition string
	FinalURL           *url.URL
	SourceURL          *url.URL
}

// A resolverFunc derives a candidate filename from response metadata.
// Resolvers run in priority order; the first hit wins.
type resolverFunc func(meta responseMeta) (string, bool)

var resolvers = []resolverFunc{
	resolveContentDisposition,
	resolveURLBasename,
	resolveQueryParam,
}

// resolveFilename walks the resolver chain, then sanitizes the winner and
// enforces the forced extension.
func resolveFilename(meta responseMeta) string {
	for _, resolve := range resolvers {
		if name, ok := resolve(meta); ok {
			return ensureExt(sanitizeFilename(name))
		}
	}
	return ensureExt(fallbackPrefix + "unknown")
}

func resolveContentDisposition(meta responseMeta) (string, bool) {
	cd := meta.ContentDisposition
	if cd == "" || !strings.Contains(cd, "filename=") {
		return "", false
	}
	if _, params, err := mime.ParseMediaType(cd); err == nil {
		if name := params["filename"]; name != "" {
			return name, true
		}
	}
	// Malformed headers still carry a usable token after filename=.
	raw := cd[strings.LastIndex(cd, "filename=")+len("filename="):]
	name := strings.Trim(strings.TrimSpace(raw), `"'`)
	return name, name != ""
}

func resolveURLBasename(meta responseMeta) (string, bool) {
	if meta.FinalURL == nil || meta.FinalURL.Path == "" {
		return "", false
	}
	base := path.Base(meta.FinalURL.Path)
	// A bare "download" endpoint basename carries no episode identity.
	if base == "" || base == "." || base == "/" || base == "download" {
		return "", false
	}
	return base, true
}

func resolveQueryParam(meta responseMeta) (string, bool) {
	for _, u := range []*url.URL{meta.FinalURL, meta.SourceURL} {
		if u == nil {
			continue
		}
		if value := u.Query().Get(queryParamKey); value != "" {
			return fallbackPrefix + value, true
		}
	}
	return "", false
}

// sanitizeFilename keeps letters, digits, space, hyphen, underscore, and
// period; everything else is dropped. Idempotent by construction.
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ensureExt appends the forced extension unless it is already the suffix.
func ensureExt(name string) string {
	if strings.HasSuffix(name, forcedExt) {
		return name
	}
	return name + forcedExt
}
