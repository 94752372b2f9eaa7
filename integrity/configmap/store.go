package configmap

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"log/slog"

	v1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"
)

// maxKeyLen is the longest ConfigMap data key the API
// server accepts.
const maxKeyLen = 253

//nolint:gochecknoglobals // stateless encoder
var keyEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// Config holds the settings for a ConfigMap store.
type Config struct {
	// Client talks to the API server.
	Client kubernetes.Interface
	// Namespace holding the ConfigMap.
	Namespace string
	// Name of the ConfigMap. It is created on first
	// write.
	Name string
}

// Store keeps integrity values in one ConfigMap. Store
// implements integrity.Store and integrity.Clearer.
type Store struct {
	client    kubernetes.Interface
	namespace string
	name      string
}

// NewStore validates cfg and returns a Store.
func NewStore(cfg Config) (*Store, error) {
	const errCtx = "creating configmap store"

	if cfg.Client == nil {
		return nil, fmt.Errorf(
			"%s: client must be set", errCtx,
		)
	}

	if cfg.Namespace == "" {
		return nil, fmt.Errorf(
			"%s: namespace must be set", errCtx,
		)
	}

	if cfg.Name == "" {
		return nil, fmt.Errorf(
			"%s: name must be set", errCtx,
		)
	}

	return &Store{
		client:    cfg.Client,
		namespace: cfg.Namespace,
		name:      cfg.Name,
	}, nil
}

// Get implements integrity.Store. A missing ConfigMap is a
// miss, not an error.
func (st *Store) Get(
	ctx context.Context,
	key string,
) (string, bool, error) {
	const errCtx = "reading configmap store"

	cm, err := st.client.CoreV1().
		ConfigMaps(st.namespace).
		Get(ctx, st.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("%s: %w", errCtx, err)
	}

	val, ok := cm.Data[EncodeKey(key)]

	return val, ok, nil
}

// Set implements integrity.Store. Concurrent writers from
// other replicas are handled by retrying on conflict.
func (st *Store) Set(
	ctx context.Context,
	key string,
	value string,
) error {
	const errCtx = "writing configmap store"

	dataKey := EncodeKey(key)
	cms := st.client.CoreV1().ConfigMaps(st.namespace)

	err := retry.OnError(
		retry.DefaultRetry,
		func(err error) bool {
			return apierrors.IsConflict(err) ||
				apierrors.IsAlreadyExists(err)
		},
		func() error {
			cm, err := cms.Get(ctx, st.name, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				_, err = cms.Create(
					ctx,
					st.newConfigMap(dataKey, value),
					metav1.CreateOptions{},
				)

				return err
			}

			if err != nil {
				return err
			}

			if cur, ok := cm.Data[dataKey]; ok && cur == value {
				return nil
			}

			if cm.Data == nil {
				cm.Data = make(map[string]string)
			}

			cm.Data[dataKey] = value

			_, err = cms.Update(ctx, cm, metav1.UpdateOptions{})

			return err
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Clear implements integrity.Clearer by deleting the
// ConfigMap.
func (st *Store) Clear(ctx context.Context) error {
	const errCtx = "clearing configmap store"

	slog.Info(
		"deleting integrity configmap",
		"namespace", st.namespace,
		"name", st.name,
	)

	err := st.client.CoreV1().
		ConfigMaps(st.namespace).
		Delete(ctx, st.name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func (st *Store) newConfigMap(
	dataKey string,
	value string,
) *v1.ConfigMap {
	return &v1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      st.name,
			Namespace: st.namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "taghelpers",
			},
		},
		Data: map[string]string{dataKey: value},
	}
}

// EncodeKey maps an arbitrary cache key onto the ConfigMap
// key alphabet [-._a-zA-Z0-9]. Keys are base32hex encoded;
// ones that would exceed the API limit are replaced by
// their SHA-256.
func EncodeKey(key string) string {
	enc := keyEncoding.EncodeToString([]byte(key))
	if len(enc) <= maxKeyLen {
		return enc
	}

	sum := sha256.Sum256([]byte(key))

	return "sha256." + hex.EncodeToString(sum[:])
}
