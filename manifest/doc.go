// Package manifest precomputes integrity values for a whole web root.
//
// Build walks the web root and hashes every asset with a bounded worker
// pool. The resulting Manifest maps normalized asset paths to SRI strings
// and is stored as JSON or YAML. Seed loads a manifest into an
// integrity.Store so a freshly started process renders pages without
// touching the assets.
package manifest
