package integrity

import (
	"path"
	"strings"
)

// DefaultKeyPrefix namespaces integrity entries in a shared
// store.
const DefaultKeyPrefix = "Integrity-"

// Normalize strips at most one leading "~" and then at most
// one leading "/" so that "~/js/app.js", "/js/app.js" and
// "js/app.js" all name the same asset.
func Normalize(assetPath string) string {
	assetPath = strings.TrimPrefix(assetPath, "~")

	return strings.TrimPrefix(assetPath, "/")
}

// CacheKey builds the store key for a normalized path. The
// algorithm is part of the key so one path can be cached
// under several algorithms.
func CacheKey(
	prefix string,
	alg Algorithm,
	normalized string,
) string {
	return prefix + alg.String() + ":" + normalized
}

// Variants returns normalized followed by its minified or
// unminified counterpart: "app.js" gives "app.min.js" and
// "app.min.js" gives "app.js". Only the file name is
// considered. Paths without an extension have no
// counterpart.
func Variants(normalized string) []string {
	dir, base := path.Split(normalized)

	if strings.Contains(base, ".min.") {
		return []string{
			normalized,
			dir + strings.Replace(base, ".min.", ".", 1),
		}
	}

	ext := path.Ext(base)
	if ext == "" {
		return []string{normalized}
	}

	return []string{
		normalized,
		dir + strings.TrimSuffix(base, ext) + ".min" + ext,
	}
}

// isRemote reports whether src points off-site: a scheme
// ("https:", "data:") or a protocol-relative "//host/...".
func isRemote(src string) bool {
	if strings.HasPrefix(src, "//") {
		return true
	}

	colon := strings.IndexByte(src, ':')
	if colon <= 0 {
		return false
	}

	slash := strings.IndexAny(src, "/?#")

	return slash < 0 || colon < slash
}

// stripQuery drops any "?query" or "#fragment" suffix.
func stripQuery(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		return src[:i]
	}

	return src
}
