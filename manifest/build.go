package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/byte4ever/taghelpers/integrity"
)

// BuildConfig holds the settings for Build.
type BuildConfig struct {
	// WebRoot is the directory to walk.
	WebRoot string

	// Algorithm used for every entry. The zero value is
	// integrity.DefaultAlgorithm.
	Algorithm integrity.Algorithm

	// Extensions selects which files are hashed, matched
	// case-insensitively. Defaults to .js and .css.
	Extensions []string

	// Parallelism bounds the number of concurrent
	// hashing workers. Defaults to 4.
	Parallelism int

	// ReadFile reads an asset. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// Build hashes every matching asset under cfg.WebRoot.
func Build(ctx context.Context, cfg BuildConfig) (*Manifest, error) {
	const errCtx = "building manifest"

	paths, err := collect(cfg.WebRoot, cfg.Extensions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}

	readFile := cfg.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	slog.Info(
		"hashing assets",
		"root", cfg.WebRoot,
		"count", len(paths),
		"parallelism", parallelism,
	)

	m := &Manifest{
		Algorithm: cfg.Algorithm.String(),
		Entries:   make(map[string]string, len(paths)),
	}

	// Worker pool with bounded concurrency.
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	sem := make(chan struct{}, parallelism)

feed:
	for _, rel := range paths {
		// Check for context cancellation.
		if ctx.Err() != nil {
			mu.Lock()
			errs = append(errs, ctx.Err())
			mu.Unlock()

			break
		}

		// Wait for a free worker or cancellation.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			errs = append(errs, ctx.Err())
			mu.Unlock()

			break feed
		}

		wg.Add(1)

		go func(rel string) {
			defer wg.Done()
			defer func() { <-sem }()

			data, readErr := readFile(
				filepath.Join(cfg.WebRoot, filepath.FromSlash(rel)),
			)

			mu.Lock()
			defer mu.Unlock()

			if readErr != nil {
				errs = append(errs, fmt.Errorf(
					"hash %s: %w", rel, readErr,
				))

				return
			}

			m.Entries[rel] = integrity.Sum(cfg.Algorithm, data).String()
		}(rel)
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf(
			"%s: %d errors, first: %w",
			errCtx, len(errs), errs[0],
		)
	}

	return m, nil
}

// collect returns the slash-separated paths, relative to
// root, of regular files with one of exts.
func collect(root string, exts []string) ([]string, error) {
	const errCtx = "walking web root"

	if len(exts) == 0 {
		exts = []string{".js", ".css"}
	}

	var paths []string

	err := filepath.WalkDir(
		root,
		func(pa string, de fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !de.Type().IsRegular() || !hasExt(pa, exts) {
				return nil
			}

			rel, err := filepath.Rel(root, pa)
			if err != nil {
				return err
			}

			paths = append(paths, filepath.ToSlash(rel))

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return paths, nil
}

func hasExt(pa string, exts []string) bool {
	ext := filepath.Ext(pa)

	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}

	return false
}
