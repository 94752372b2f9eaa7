package integrity

import (
	"context"
	"fmt"
	"sync"
)

// Store is the key-value cache behind a Resolver. It may be
// in-process or a remote service; implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value string) error
}

// Clearer is implemented by stores that can drop all of
// their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// MemoryStore is an unbounded in-process Store. Entries live
// until Clear or process exit. The zero value is ready to
// use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store. It never fails.
func (ms *MemoryStore) Get(
	_ context.Context,
	key string,
) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	val, ok := ms.entries[key]

	return val, ok, nil
}

// Set implements Store. It never fails.
func (ms *MemoryStore) Set(
	_ context.Context,
	key string,
	value string,
) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.entries == nil {
		ms.entries = make(map[string]string)
	}

	ms.entries[key] = value

	return nil
}

// Clear implements Clearer.
func (ms *MemoryStore) Clear(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries = nil

	return nil
}

// Len returns the number of cached entries.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return len(ms.entries)
}

// Tiered puts a fast Near store in front of a shared Far
// store. Reads go to Near first; Far hits are copied into
// Near. Writes go to both.
type Tiered struct {
	Near Store
	Far  Store
}

// Get implements Store. A Far failure is returned only when
// Near missed.
func (ti Tiered) Get(
	ctx context.Context,
	key string,
) (string, bool, error) {
	const errCtx = "reading tiered store"

	if val, ok, err := ti.Near.Get(ctx, key); err == nil && ok {
		return val, true, nil
	}

	val, ok, err := ti.Far.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !ok {
		return "", false, nil
	}

	// Near is best-effort; the value is still good.
	_ = ti.Near.Set(ctx, key, val) //nolint:errcheck // best-effort fill

	return val, true, nil
}

// Set implements Store. Near is always written, even when
// Far fails.
func (ti Tiered) Set(
	ctx context.Context,
	key string,
	value string,
) error {
	const errCtx = "writing tiered store"

	if err := ti.Near.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%s: near: %w", errCtx, err)
	}

	if err := ti.Far.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%s: far: %w", errCtx, err)
	}

	return nil
}

// Clear implements Clearer for whichever tiers support it.
func (ti Tiered) Clear(ctx context.Context) error {
	const errCtx = "clearing tiered store"

	for _, st := range []Store{ti.Near, ti.Far} {
		cl, ok := st.(Clearer)
		if !ok {
			continue
		}

		if err := cl.Clear(ctx); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}
