package manifest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/byte4ever/taghelpers/integrity"
)

// Manifest maps normalized asset paths to their integrity
// values, all computed with one algorithm.
type Manifest struct {
	Algorithm string            `json:"algorithm" yaml:"algorithm"`
	Entries   map[string]string `json:"entries"   yaml:"entries"`
}

// Paths returns the asset paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Entries))
	for pa := range m.Entries {
		paths = append(paths, pa)
	}

	sort.Strings(paths)

	return paths
}

// Validate checks the algorithm and that every value is an
// SRI string for it.
func (m *Manifest) Validate() error {
	const errCtx = "validating manifest"

	alg, ok := integrity.ParseAlgorithm(m.Algorithm)
	if !ok {
		return fmt.Errorf(
			"%s: unknown algorithm %q", errCtx, m.Algorithm,
		)
	}

	prefix := alg.String() + "-"

	for _, pa := range m.Paths() {
		if !strings.HasPrefix(m.Entries[pa], prefix) {
			return fmt.Errorf(
				"%s: %s: value %q is not a %s digest",
				errCtx, pa, m.Entries[pa], alg,
			)
		}
	}

	return nil
}

// Seed writes every entry into store under the key a
// Resolver with the given key prefix looks up. It returns
// the number of entries written.
func Seed(
	ctx context.Context,
	store integrity.Store,
	prefix string,
	m *Manifest,
) (int, error) {
	const errCtx = "seeding store"

	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	alg, _ := integrity.ParseAlgorithm(m.Algorithm)

	count := 0

	for _, pa := range m.Paths() {
		key := integrity.CacheKey(prefix, alg, integrity.Normalize(pa))

		if err := store.Set(ctx, key, m.Entries[pa]); err != nil {
			return count, fmt.Errorf("%s: %w", errCtx, err)
		}

		count++
	}

	return count, nil
}
