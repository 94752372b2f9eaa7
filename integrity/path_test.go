package integrity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byte4ever/taghelpers/integrity"
)

func TestNormalize_same_key(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"~/js/app.js", "/js/app.js", "js/app.js"} {
		assert.Equal(t, "js/app.js", integrity.Normalize(in), in)
	}
}

func TestNormalize_strips_at_most_one_of_each(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "~/js/app.js", integrity.Normalize("~~/js/app.js"))
	assert.Equal(t, "/js/app.js", integrity.Normalize("//js/app.js"))
	assert.Equal(t, "js/~app.js", integrity.Normalize("js/~app.js"))
	assert.Equal(t, "", integrity.Normalize("~/"))
}

func TestCacheKey_includes_algorithm(t *testing.T) {
	t.Parallel()

	k256 := integrity.CacheKey(
		integrity.DefaultKeyPrefix, integrity.SHA256, "js/app.js",
	)
	k512 := integrity.CacheKey(
		integrity.DefaultKeyPrefix, integrity.SHA512, "js/app.js",
	)

	assert.Equal(t, "Integrity-sha256:js/app.js", k256)
	assert.NotEqual(t, k256, k512)
}

func TestVariants(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"js/app.js":      {"js/app.js", "js/app.min.js"},
		"js/app.min.js":  {"js/app.min.js", "js/app.js"},
		"css/site.css":   {"css/site.css", "css/site.min.css"},
		"lib/LICENSE":    {"lib/LICENSE"},
		"v1.2/bundle.js": {"v1.2/bundle.js", "v1.2/bundle.min.js"},
		"lib/x.min.d/app.js": {
			"lib/x.min.d/app.js", "lib/x.min.d/app.min.js",
		},
		"lib/x.min.d/app.min.js": {
			"lib/x.min.d/app.min.js", "lib/x.min.d/app.js",
		},
		"lib/x.min.d/LICENSE": {"lib/x.min.d/LICENSE"},
		"app.min.js":          {"app.min.js", "app.js"},
	}

	for in, want := range tests {
		assert.Equal(t, want, integrity.Variants(in), in)
	}
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	remote := []string{
		"https://cdn.example.com/app.js",
		"http://x/y.css",
		"//cdn.example.com/app.js",
		"data:text/javascript,alert(1)",
	}
	local := []string{
		"/js/app.js",
		"~/js/app.js",
		"js/app.js",
		"js/app.js?v=a:b",
	}

	for _, in := range remote {
		assert.True(t, integrity.IsRemoteForTest(in), in)
	}

	for _, in := range local {
		assert.False(t, integrity.IsRemoteForTest(in), in)
	}
}

func TestStripQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/js/app.js", integrity.StripQueryForTest("/js/app.js?v=3"))
	assert.Equal(t, "/js/app.js", integrity.StripQueryForTest("/js/app.js#top"))
	assert.Equal(t, "/js/app.js", integrity.StripQueryForTest("/js/app.js"))
}
