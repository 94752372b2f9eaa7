package integrity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrAssetNotFound is returned by HashFile when the asset
// does not exist on disk.
var ErrAssetNotFound = errors.New("asset not found")

// Digest is a computed SRI hash.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// String formats d as "<algorithm>-<base64>".
func (d Digest) String() string {
	return d.Algorithm.String() + "-" +
		base64.StdEncoding.EncodeToString(d.Sum)
}

// Sum hashes data with alg.
func Sum(alg Algorithm, data []byte) Digest {
	ha := alg.New()
	ha.Write(data) //nolint:errcheck // hash.Hash never fails

	return Digest{Algorithm: alg, Sum: ha.Sum(nil)}
}

// HashFile computes the digest of the file at path.
func HashFile(path string, alg Algorithm) (Digest, error) {
	return hashWith(os.ReadFile, path, alg)
}

func hashWith(
	readFile func(string) ([]byte, error),
	path string,
	alg Algorithm,
) (Digest, error) {
	const errCtx = "hashing asset"

	data, err := readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Digest{}, fmt.Errorf(
			"%s: %s: %w", errCtx, path, ErrAssetNotFound,
		)
	}

	if err != nil {
		return Digest{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return Sum(alg, data), nil
}
