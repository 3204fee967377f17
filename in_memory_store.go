package devjson

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
)

type inMemoryStore struct {
	entries map[string][]byte
	l       sync.Mutex
}

// NewInMemoryStore provides a Persist that keeps documents in a map, usually for testing.
func NewInMemoryStore() Persist {
	return &inMemoryStore{}
}

func (ims *inMemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ims.l.Lock()
	_, ok := ims.entries[key]
	ims.l.Unlock()
	return ok, nil
}

func (ims *inMemoryStore) Store(ctx context.Context, key string, value []byte) error {
	copied := append([]byte(nil), value...)
	ims.l.Lock()
	if ims.entries == nil {
		ims.entries = map[string][]byte{key: copied}
	} else {
		ims.entries[key] = copied
	}
	ims.l.Unlock()
	return nil
}

func (ims *inMemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	ims.l.Lock()
	value, ok := ims.entries[key]
	ims.l.Unlock()
	if !ok {
		return nil, fmt.Errorf("inMemoryStore entry %s: %w", key, fs.ErrNotExist)
	}
	return append([]byte(nil), value...), nil
}
