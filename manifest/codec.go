package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Format is a manifest serialization format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(pa string) (Format, error) {
	switch strings.ToLower(filepath.Ext(pa)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf(
			"unsupported manifest extension %q", filepath.Ext(pa),
		)
	}
}

// Write encodes m to w.
func Write(w io.Writer, m *Manifest, f Format) error {
	const errCtx = "writing manifest"

	var (
		data []byte
		err  error
	)

	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(m, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(m)
	default:
		return fmt.Errorf("%s: unknown format %q", errCtx, f)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Read decodes and validates a manifest from r.
func Read(r io.Reader, f Format) (*Manifest, error) {
	const errCtx = "reading manifest"

	var m Manifest

	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return nil, fmt.Errorf(
				"%s: decoding json: %w", errCtx, err,
			)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&m); err != nil {
			return nil, fmt.Errorf(
				"%s: decoding yaml: %w", errCtx, err,
			)
		}
	default:
		return nil, fmt.Errorf("%s: unknown format %q", errCtx, f)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &m, nil
}

// ReadFile reads the manifest at pa, picking the format
// from its extension.
func ReadFile(pa string) (*Manifest, error) {
	const errCtx = "reading manifest file"

	f, err := FormatFromPath(pa)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	fi, err := os.Open(pa) //nolint:gosec // path from CLI flag
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer fi.Close() //nolint:errcheck // read-only

	return Read(fi, f)
}

// WriteFile writes m to pa, picking the format from its
// extension.
func WriteFile(pa string, m *Manifest) (retErr error) {
	const errCtx = "writing manifest file"

	f, err := FormatFromPath(pa)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	fi, err := os.Create(pa) //nolint:gosec // path from CLI flag
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	return Write(fi, m, f)
}
