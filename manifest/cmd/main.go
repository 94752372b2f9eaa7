// Binary sri_manifest hashes every asset under a web root and
// writes an integrity manifest for render_page -manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/byte4ever/taghelpers/integrity"
	"github.com/byte4ever/taghelpers/manifest"
)

// sliceFlag implements flag.Value for repeated flags.
type sliceFlag []string

// String returns the flag value as a comma-separated
// string representation.
func (s *sliceFlag) String() string {
	if s == nil {
		return ""
	}

	return strings.Join(*s, ",")
}

// Set appends a value to the slice.
func (s *sliceFlag) Set(val string) error {
	*s = append(*s, val)

	return nil
}

func run() error {
	const errCtx = "sri_manifest"

	webRoot := flag.String(
		"web_root", "wwwroot",
		"Directory to hash",
	)
	algorithm := flag.String(
		"algorithm", integrity.DefaultAlgorithm.String(),
		"Hash algorithm: sha256, sha384 or sha512",
	)
	parallelism := flag.Int(
		"parallelism", 4,
		"Number of concurrent hashing workers",
	)
	output := flag.String(
		"output", "",
		"Manifest path, .json or .yaml (stdout JSON if empty)",
	)

	var exts sliceFlag

	flag.Var(
		&exts,
		"ext",
		"File extension to hash, e.g. .js (repeatable)",
	)

	flag.Parse()

	alg, ok := integrity.ParseAlgorithm(*algorithm)
	if !ok {
		return fmt.Errorf(
			"%s: unknown algorithm %q", errCtx, *algorithm,
		)
	}

	m, err := manifest.Build(context.Background(), manifest.BuildConfig{
		WebRoot:     *webRoot,
		Algorithm:   alg,
		Extensions:  exts,
		Parallelism: *parallelism,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if *output == "" {
		if err := manifest.Write(
			os.Stdout, m, manifest.FormatJSON,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		return nil
	}

	if err := manifest.WriteFile(*output, m); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"wrote manifest",
		"path", *output,
		"entries", len(m.Entries),
	)

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
