package configmap_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/byte4ever/taghelpers/integrity"
	"github.com/byte4ever/taghelpers/integrity/configmap"
)

const (
	testNamespace = "web"
	testName      = "sri-cache"
)

func newStore(
	tb testing.TB,
) (*configmap.Store, *fake.Clientset) {
	tb.Helper()

	cs := fake.NewClientset()

	st, err := configmap.NewStore(configmap.Config{
		Client:    cs,
		Namespace: testNamespace,
		Name:      testName,
	})
	require.NoError(tb, err)

	return st, cs
}

func TestNewStore_validates(t *testing.T) {
	t.Parallel()

	cs := fake.NewClientset()

	tests := map[string]configmap.Config{
		"client":    {Namespace: "ns", Name: "n"},
		"namespace": {Client: cs, Name: "n"},
		"name":      {Client: cs, Namespace: "ns"},
	}

	for field, cfg := range tests {
		_, err := configmap.NewStore(cfg)

		require.Error(t, err, field)
		assert.Contains(t, err.Error(), field+" must be set")
	}
}

func TestStore_Get_missing_configmap_is_miss(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)

	_, ok, err := st.Get(context.Background(), "Integrity-sha256:js/app.js")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Set_creates_then_updates(t *testing.T) {
	t.Parallel()

	st, cs := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "Integrity-sha256:js/app.js", "sha256-a"))
	require.NoError(t, st.Set(ctx, "Integrity-sha256:css/site.css", "sha256-b"))

	got, ok, err := st.Get(ctx, "Integrity-sha256:js/app.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sha256-a", got)

	cm, err := cs.CoreV1().
		ConfigMaps(testNamespace).
		Get(ctx, testName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Len(t, cm.Data, 2)
	assert.Equal(
		t,
		"taghelpers",
		cm.Labels["app.kubernetes.io/managed-by"],
	)
}

func TestStore_Set_retries_on_conflict(t *testing.T) {
	t.Parallel()

	st, cs := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k1", "v1"))

	conflicts := 0

	cs.PrependReactor(
		"update", "configmaps",
		func(k8stesting.Action) (bool, runtime.Object, error) {
			if conflicts > 0 {
				return false, nil, nil
			}

			conflicts++

			return true, nil, apierrors.NewConflict(
				schema.GroupResource{Resource: "configmaps"},
				testName,
				errors.New("stale resource version"),
			)
		},
	)

	require.NoError(t, st.Set(ctx, "k2", "v2"))
	assert.Equal(t, 1, conflicts)

	got, ok, err := st.Get(ctx, "k2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestStore_Get_api_failure(t *testing.T) {
	t.Parallel()

	st, cs := newStore(t)

	cs.PrependReactor(
		"get", "configmaps",
		func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New("api server unreachable")
		},
	)

	_, _, err := st.Get(context.Background(), "k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading configmap store")
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Clear(ctx))
	require.NoError(t, st.Set(ctx, "k", "v"))
	require.NoError(t, st.Clear(ctx))

	_, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_backs_resolver(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)
	near := integrity.NewMemoryStore()

	var reads int

	re, err := integrity.NewResolver(integrity.Config{
		Locate: func(string) string { return "app.js" },
		ReadFile: func(string) ([]byte, error) {
			reads++

			return []byte("x"), nil
		},
		Store: integrity.Tiered{Near: near, Far: st},
	})
	require.NoError(t, err)

	want := integrity.Sum(integrity.SHA256, []byte("x")).String()

	got, _ := re.Resolve(context.Background(), "", "/js/app.js")
	assert.Equal(t, want, got)

	// A second replica with its own memory tier reads the
	// shared value without hashing.
	other, err := integrity.NewResolver(integrity.Config{
		Locate: func(string) string { return "app.js" },
		ReadFile: func(string) ([]byte, error) {
			reads++

			return nil, errors.New("must not read")
		},
		Store: integrity.Tiered{Near: integrity.NewMemoryStore(), Far: st},
	})
	require.NoError(t, err)

	got, _ = other.Resolve(context.Background(), "", "/js/app.js")
	assert.Equal(t, want, got)
	assert.Equal(t, 1, reads)
}

//nolint:gochecknoglobals // test fixture
var validKey = regexp.MustCompile(`^[-._a-zA-Z0-9]+$`)

func TestEncodeKey_valid_alphabet(t *testing.T) {
	t.Parallel()

	for _, key := range []string{
		"Integrity-sha256:js/app.js",
		"Integrity-sha512:css/ü ñ.css",
		"Integrity-sha256:" + strings.Repeat("deep/", 80) + "x.js",
	} {
		enc := configmap.EncodeKey(key)

		assert.Regexp(t, validKey, enc, key)
		assert.LessOrEqual(t, len(enc), 253, key)
	}
}

func TestEncodeKey_distinct(t *testing.T) {
	t.Parallel()

	assert.NotEqual(
		t,
		configmap.EncodeKey("Integrity-sha256:a.js"),
		configmap.EncodeKey("Integrity-sha384:a.js"),
	)
}
