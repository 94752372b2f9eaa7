package integrity

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"
)

// Algorithm identifies one of the SRI hash functions.
type Algorithm int

// Supported algorithms.
const (
	SHA256 Algorithm = iota
	SHA384
	SHA512
)

// DefaultAlgorithm is used when an integrity attribute is
// present but empty.
const DefaultAlgorithm = SHA256

type algorithmSpec struct {
	name string
	new  func() hash.Hash
}

//nolint:gochecknoglobals // lookup table
var algorithms = [...]algorithmSpec{
	SHA256: {name: "sha256", new: sha256.New},
	SHA384: {name: "sha384", new: sha512.New384},
	SHA512: {name: "sha512", new: sha512.New},
}

// String returns the lowercase SRI token ("sha256").
func (a Algorithm) String() string {
	if !a.valid() {
		return "unknown"
	}

	return algorithms[a].name
}

// New returns a fresh hash for a.
func (a Algorithm) New() hash.Hash {
	return algorithms[a].new()
}

func (a Algorithm) valid() bool {
	return a >= SHA256 && int(a) < len(algorithms)
}

// ParseAlgorithm matches s against the recognized algorithm
// names, ignoring case and surrounding whitespace. Anything
// else reports false.
func ParseAlgorithm(s string) (Algorithm, bool) {
	s = strings.TrimSpace(s)

	for i, spec := range algorithms {
		if strings.EqualFold(s, spec.name) {
			return Algorithm(i), true
		}
	}

	return SHA256, false
}
