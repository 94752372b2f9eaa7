package integrity_test

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/taghelpers/integrity"
)

func TestSum_matches_crypto(t *testing.T) {
	t.Parallel()

	data := []byte("body{}")

	s256 := sha256.Sum256(data)
	s384 := sha512.Sum384(data)
	s512 := sha512.Sum512(data)

	assert.Equal(
		t,
		"sha256-"+base64.StdEncoding.EncodeToString(s256[:]),
		integrity.Sum(integrity.SHA256, data).String(),
	)
	assert.Equal(
		t,
		"sha384-"+base64.StdEncoding.EncodeToString(s384[:]),
		integrity.Sum(integrity.SHA384, data).String(),
	)
	assert.Equal(
		t,
		"sha512-"+base64.StdEncoding.EncodeToString(s512[:]),
		integrity.Sum(integrity.SHA512, data).String(),
	)
}

func TestSum_empty_input(t *testing.T) {
	t.Parallel()

	// sha256("") in base64
	assert.Equal(
		t,
		"sha256-47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=",
		integrity.Sum(integrity.SHA256, nil).String(),
	)
}

func TestHashFile_reads_file(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(pa, []byte("body{}"), 0o600))

	got, err := integrity.HashFile(pa, integrity.SHA512)

	require.NoError(t, err)
	assert.Equal(
		t,
		integrity.Sum(integrity.SHA512, []byte("body{}")),
		got,
	)
}

func TestHashFile_missing_file(t *testing.T) {
	t.Parallel()

	_, err := integrity.HashFile(
		filepath.Join(t.TempDir(), "nope.js"),
		integrity.SHA256,
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, integrity.ErrAssetNotFound)
}

func TestHashFile_directory_is_not_not_found(t *testing.T) {
	t.Parallel()

	_, err := integrity.HashFile(t.TempDir(), integrity.SHA256)

	require.Error(t, err)
	assert.NotErrorIs(t, err, integrity.ErrAssetNotFound)
	assert.Contains(t, err.Error(), "hashing asset")
}

func FuzzSum(f *testing.F) {
	f.Add([]byte("body{}"), 0)
	f.Add([]byte(""), 1)
	f.Add([]byte("\x00\xff"), 2)

	f.Fuzz(func(t *testing.T, data []byte, sel int) {
		alg := integrity.Algorithm((sel%3 + 3) % 3)

		got := integrity.Sum(alg, data).String()

		prefix := alg.String() + "-"
		require.True(t, strings.HasPrefix(got, prefix))

		raw, err := base64.StdEncoding.DecodeString(
			strings.TrimPrefix(got, prefix),
		)
		require.NoError(t, err)
		assert.Len(t, raw, alg.New().Size())
	})
}
