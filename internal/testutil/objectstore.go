package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"encore/internal/storage"
)

// FakeObjectStore is an in-memory ObjectStore.
type FakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string]int64
	presigned []string
	// PresignErr, when set, fails every PresignPut.
	PresignErr error
	HeadErr    error
	HeadCalls  int
}

// NewFakeObjectStore returns an empty store.
func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{objects: make(map[string]int64)}
}

// Put simulates a client upload.
func (f *FakeObjectStore) Put(key string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = size
}

// Presigned returns every key a URL was issued for.
func (f *FakeObjectStore) Presigned() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.presigned...)
}

func (f *FakeObjectStore) PresignPut(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PresignErr != nil {
		return "", f.PresignErr
	}
	f.presigned = append(f.presigned, key)
	return fmt.Sprintf("https://store.test/upload/%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (f *FakeObjectStore) Head(_ context.Context, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HeadCalls++
	if f.HeadErr != nil {
		return 0, false, f.HeadErr
	}
	size, ok := f.objects[key]
	return size, ok, nil
}

func (f *FakeObjectStore) PublicURL(key string) string {
	return storage.JoinPublicURL("https://cdn.test", key)
}
