package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Config holds the collaborators of a Resolver. Either
// WebRoot or Locate must be set.
type Config struct {
	// WebRoot is the directory site-relative asset paths
	// are resolved against.
	WebRoot string

	// Locate maps a normalized asset path to the on-disk
	// path to read. Defaults to joining onto WebRoot.
	Locate func(normalized string) string

	// ReadFile reads an asset. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)

	// Store caches computed values. Defaults to a new
	// MemoryStore owned by the Resolver.
	Store Store

	// KeyPrefix namespaces cache keys. Defaults to
	// DefaultKeyPrefix.
	KeyPrefix string

	// IncludeVariants also hashes the minified or
	// unminified counterpart of each asset.
	IncludeVariants bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Resolver fills integrity attributes. It is safe for
// concurrent use.
type Resolver struct {
	locate   func(string) string
	readFile func(string) ([]byte, error)
	store    Store
	prefix   string
	variants bool
	logger   *slog.Logger
	group    singleflight.Group
}

// NewResolver validates cfg and applies its defaults.
func NewResolver(cfg Config) (*Resolver, error) {
	const errCtx = "creating integrity resolver"

	if cfg.WebRoot == "" && cfg.Locate == nil {
		return nil, fmt.Errorf(
			"%s: web root or locate func must be set", errCtx,
		)
	}

	re := &Resolver{
		locate:   cfg.Locate,
		readFile: cfg.ReadFile,
		store:    cfg.Store,
		prefix:   cfg.KeyPrefix,
		variants: cfg.IncludeVariants,
		logger:   cfg.Logger,
	}

	if re.locate == nil {
		root := cfg.WebRoot
		re.locate = func(normalized string) string {
			return filepath.Join(root, filepath.FromSlash(normalized))
		}
	}

	if re.readFile == nil {
		re.readFile = os.ReadFile
	}

	if re.store == nil {
		re.store = NewMemoryStore()
	}

	if re.prefix == "" {
		re.prefix = DefaultKeyPrefix
	}

	if re.logger == nil {
		re.logger = slog.Default()
	}

	return re, nil
}

// Resolve computes the new integrity attribute value for an
// element whose authored integrity is raw and whose src or
// href is assetPath.
//
// It reports changed=false when raw is not an algorithm
// selector; the attribute must then be left as authored.
// Otherwise value holds the space-separated digests, which
// is empty when no asset could be hashed.
func (re *Resolver) Resolve(
	ctx context.Context,
	raw string,
	assetPath string,
) (value string, changed bool) {
	selector := raw
	if strings.TrimSpace(selector) == "" {
		selector = DefaultAlgorithm.String()
	}

	alg, ok := ParseAlgorithm(selector)
	if !ok {
		return raw, false
	}

	if strings.TrimSpace(assetPath) == "" {
		re.logger.Warn(
			"no integrity digests for asset",
			"asset", assetPath,
			"algorithm", alg.String(),
		)

		return "", true
	}

	if isRemote(assetPath) {
		re.logger.Debug(
			"skipping remote asset",
			"asset", assetPath,
		)

		return "", true
	}

	normalized := Normalize(stripQuery(assetPath))

	paths := []string{normalized}
	if re.variants {
		paths = Variants(normalized)
	}

	values := make([]string, 0, len(paths))

	for _, pa := range paths {
		if val, ok := re.digest(ctx, alg, pa); ok {
			values = append(values, val)
		}
	}

	if len(values) == 0 {
		re.logger.Warn(
			"no integrity digest produced",
			"asset", assetPath,
			"algorithm", alg.String(),
		)
	}

	return strings.Join(values, " "), true
}

// Clear drops every cached digest when the store supports
// it. This is the only way to pick up changed assets
// without restarting.
func (re *Resolver) Clear(ctx context.Context) error {
	const errCtx = "clearing integrity cache"

	cl, ok := re.store.(Clearer)
	if !ok {
		return fmt.Errorf(
			"%s: store %T cannot be cleared", errCtx, re.store,
		)
	}

	if err := cl.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// digest returns the serialized digest for one normalized
// path, from the store when possible.
func (re *Resolver) digest(
	ctx context.Context,
	alg Algorithm,
	normalized string,
) (string, bool) {
	key := CacheKey(re.prefix, alg, normalized)

	val, ok, err := re.store.Get(ctx, key)

	switch {
	case err != nil:
		re.logger.Warn(
			"integrity store unavailable, hashing directly",
			"key", key,
			"error", err,
		)
	case ok:
		return val, true
	}

	// Concurrent misses on one key share a single read.
	res, err, _ := re.group.Do(key, func() (any, error) {
		dg, err := re.compute(alg, normalized)
		if err != nil {
			return "", err
		}

		str := dg.String()

		if err := re.store.Set(ctx, key, str); err != nil {
			re.logger.Warn(
				"caching integrity digest failed",
				"key", key,
				"error", err,
			)
		}

		return str, nil
	})
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			re.logger.Debug(
				"asset not found",
				"asset", normalized,
			)
		} else {
			re.logger.Warn(
				"hashing asset failed",
				"asset", normalized,
				"error", err,
			)
		}

		return "", false
	}

	str, _ := res.(string)

	return str, true
}

func (re *Resolver) compute(
	alg Algorithm,
	normalized string,
) (Digest, error) {
	const errCtx = "computing digest"

	if !filepath.IsLocal(filepath.FromSlash(normalized)) {
		return Digest{}, fmt.Errorf(
			"%s: %q escapes the web root: %w",
			errCtx, normalized, ErrAssetNotFound,
		)
	}

	return hashWith(re.readFile, re.locate(normalized), alg)
}
