// Package store persists form schemas as opaque serialized blobs keyed by a
// numeric form id. Backends only see bytes; decoding and validation happen
// above them.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// ErrInvalidID is returned when a caller passes a non-positive form id.
var ErrInvalidID = errors.New("store: form id must be positive")

// Store loads and saves form schemas.
type Store interface {
	// Load returns the schema stored under id. The boolean is false when no
	// schema exists yet; that is not an error.
	Load(ctx context.Context, id int64) (schema.Schema, bool, error)
	// Save replaces the schema stored under id.
	Save(ctx context.Context, id int64, form schema.Schema) error
}

// Lister is implemented by stores that can enumerate their ids.
type Lister interface {
	IDs(ctx context.Context) ([]int64, error)
}

// Marshal encodes a schema into the blob persisted by backends.
func Marshal(form schema.Schema) ([]byte, error) {
	blob, err := schema.Encode(form, schema.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("store: encode schema: %w", err)
	}
	return blob, nil
}

// Unmarshal decodes a persisted blob.
func Unmarshal(blob []byte) (schema.Schema, error) {
	form, err := schema.DecodeFormat(blob, schema.FormatJSON)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("store: decode schema: %w", err)
	}
	return form, nil
}

// CheckID validates a form id.
func CheckID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

// Memory is an in-process Store. It keeps encoded blobs so callers never
// share mutable schema state with it.
type Memory struct {
	mu    sync.RWMutex
	blobs map[int64][]byte
}

var (
	_ Store  = (*Memory)(nil)
	_ Lister = (*Memory)(nil)
)

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[int64][]byte)}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, id int64) (schema.Schema, bool, error) {
	if err := ctx.Err(); err != nil {
		return schema.Schema{}, false, err
	}
	if err := CheckID(id); err != nil {
		return schema.Schema{}, false, err
	}

	m.mu.RLock()
	blob, ok := m.blobs[id]
	m.mu.RUnlock()
	if !ok {
		return schema.Schema{}, false, nil
	}
	form, err := Unmarshal(blob)
	if err != nil {
		return schema.Schema{}, false, err
	}
	return form, true, nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, id int64, form schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckID(id); err != nil {
		return err
	}
	blob, err := Marshal(form)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.blobs[id] = blob
	m.mu.Unlock()
	return nil
}

// IDs implements Lister.
func (m *Memory) IDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ids := make([]int64, 0, len(m.blobs))
	for id := range m.blobs {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Seed saves every library entry that carries a numeric id. Entries without
// one are skipped and reported by name.
func Seed(ctx context.Context, dst Store, lib *schema.Library) ([]string, error) {
	var skipped []string
	for _, entry := range lib.Entries() {
		if entry.ID <= 0 {
			skipped = append(skipped, entry.Name)
			continue
		}
		if err := dst.Save(ctx, entry.ID, entry.Schema); err != nil {
			return skipped, fmt.Errorf("store: seed %s: %w", entry.Location, err)
		}
	}
	return skipped, nil
}
