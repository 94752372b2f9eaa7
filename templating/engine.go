package templating

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/valyala/fasttemplate"
	"golang.org/x/net/html"

	"github.com/byte4ever/taghelpers/taghelper"
)

// Engine renders page templates.
type Engine struct {
	StartTag       string
	EndTag         string
	StampInfoFiles []string

	// EscapeVars HTML-escapes stamp and variable values.
	// Imports are partials and are never escaped.
	EscapeVars bool

	// Rewriter post-processes the expanded page. Nil
	// writes the expansion as is.
	Rewriter *taghelper.Rewriter
}

// Render reads the page template at tplPath, substitutes
// variables, applies the tag helpers and writes the page to
// outPath. Empty tplPath reads stdin; empty outPath writes
// stdout.
//
// Variables are resolved in this order:
//  1. Stamp files form the base context.
//  2. Each NAME=VALUE variable is expanded against stamps
//     with single-brace tags and stored as "NAME" and
//     "variables.NAME".
//  3. Each NAME=filename import is read, expanded against
//     the context with the configured tags, and stored as
//     "imports.NAME".
//  4. The page is expanded against the context.
func (en *Engine) Render(
	ctx context.Context,
	tplPath string,
	outPath string,
	vars []string,
	imports []string,
) error {
	const errCtx = "rendering page"

	tplContent, err := en.readTemplate(tplPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	data, err := en.context(vars, imports)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	out, closer, err := en.openOutput(outPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if closer != nil {
		defer closer()
	}

	if err := en.execute(ctx, string(tplContent), data, out); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// RenderString renders tpl against data, which takes
// precedence over stamp files.
func (en *Engine) RenderString(
	ctx context.Context,
	tpl string,
	data map[string]any,
) (string, error) {
	const errCtx = "rendering page"

	stamps, err := en.loadStamps()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	merged := make(map[string]any, len(stamps)+len(data))
	for key, val := range stamps {
		merged[key] = en.escape(val)
	}

	for key, val := range data {
		merged[key] = en.escape(val)
	}

	var sb strings.Builder

	if err := en.execute(ctx, tpl, merged, &sb); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sb.String(), nil
}

// execute expands tpl and pipes it through the rewriter.
func (en *Engine) execute(
	ctx context.Context,
	tpl string,
	data map[string]any,
	out io.Writer,
) error {
	startTag, endTag := en.tags()

	if en.Rewriter == nil {
		_, err := fasttemplate.ExecuteStd(tpl, startTag, endTag, out, data)

		return err //nolint:wrapcheck // wrapped by callers
	}

	var buf bytes.Buffer

	if _, err := fasttemplate.ExecuteStd(
		tpl, startTag, endTag, &buf, data,
	); err != nil {
		return err //nolint:wrapcheck // wrapped by callers
	}

	return en.Rewriter.Rewrite(ctx, &buf, out) //nolint:wrapcheck // wrapped by callers
}

// context builds the substitution map from stamps,
// variables and imports.
func (en *Engine) context(
	vars []string,
	imports []string,
) (map[string]any, error) {
	stamps, err := en.loadStamps()
	if err != nil {
		return nil, err
	}

	// Stamps form the base context; variables and
	// imports override them.
	data := make(map[string]any, len(stamps))
	for key, val := range stamps {
		data[key] = en.escape(val)
	}

	if err := en.resolveVars(vars, stamps, data); err != nil {
		return nil, err
	}

	if err := en.resolveImports(imports, data); err != nil {
		return nil, err
	}

	return data, nil
}

// tags returns the configured start/end tags, falling
// back to double-brace defaults.
func (en *Engine) tags() (string, string) {
	startTag := en.StartTag
	if startTag == "" {
		startTag = "{{"
	}

	endTag := en.EndTag
	if endTag == "" {
		endTag = "}}"
	}

	return startTag, endTag
}

func (en *Engine) escape(val any) any {
	str, ok := val.(string)
	if !ok || !en.EscapeVars {
		return val
	}

	return html.EscapeString(str)
}

// loadStamps reads all stamp info files and merges them
// into a single map. Each line is "KEY VALUE" with the
// first space as delimiter; blank lines and lines starting
// with '#' are skipped.
func (en *Engine) loadStamps() (map[string]any, error) {
	const errCtx = "loading stamps"

	stamps := make(map[string]any)

	for _, sf := range en.StampInfoFiles {
		content, err := os.ReadFile(sf) //nolint:gosec // paths from CLI flags
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.HasPrefix(line, "#") {
				continue
			}

			key, val, ok := strings.Cut(line, " ")
			if ok {
				stamps[key] = val
			}
		}
	}

	return stamps, nil
}

// resolveVars processes NAME=VALUE variables. Each value
// is expanded against stamps using single-brace tags, then
// stored as both "NAME" and "variables.NAME".
func (en *Engine) resolveVars(
	vars []string,
	stamps map[string]any,
	data map[string]any,
) error {
	const errCtx = "resolving variables"

	for _, vr := range vars {
		name, raw, ok := strings.Cut(vr, "=")
		if !ok {
			return fmt.Errorf(
				"%s: variable must be NAME=value, got %s",
				errCtx, vr,
			)
		}

		val := en.escape(
			fasttemplate.ExecuteStringStd(raw, "{", "}", stamps),
		)

		data[name] = val
		data["variables."+name] = val
	}

	return nil
}

// resolveImports processes NAME=filename imports. Each
// partial is expanded against data with the configured
// tags and stored as "imports.NAME".
func (en *Engine) resolveImports(
	imports []string,
	data map[string]any,
) error {
	const errCtx = "resolving imports"

	startTag, endTag := en.tags()

	for _, im := range imports {
		name, path, ok := strings.Cut(im, "=")
		if !ok {
			return fmt.Errorf(
				"%s: import must be NAME=filename, got %s",
				errCtx, im,
			)
		}

		content, err := os.ReadFile(path) //nolint:gosec // paths from CLI flags
		if err != nil {
			return fmt.Errorf(
				"%s: reading %s: %w", errCtx, path, err,
			)
		}

		data["imports."+name] = fasttemplate.ExecuteStringStd(
			string(content), startTag, endTag, data,
		)
	}

	return nil
}

// readTemplate reads the template from a file path. If
// tplPath is empty it reads from stdin.
func (en *Engine) readTemplate(tplPath string) ([]byte, error) {
	const errCtx = "reading template"

	if tplPath != "" {
		content, err := os.ReadFile(tplPath) //nolint:gosec // paths from CLI flags
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return content, nil
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("%s: reading stdin: %w", errCtx, err)
	}

	return content, nil
}

// openOutput returns a writer for the page. When outPath is
// empty it returns stdout. The returned closer must be
// called to finalize the file (nil for stdout).
func (en *Engine) openOutput(
	outPath string,
) (io.Writer, func(), error) {
	const errCtx = "opening output"

	if outPath == "" {
		return os.Stdout, nil, nil
	}

	fi, err := os.Create(outPath) //nolint:gosec // paths from CLI flags
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return fi, func() {
		_ = fi.Close() //nolint:errcheck // best-effort close
	}, nil
}
