package providers

import (
	"context"

	"github.com/provideplatform/counter/store/providers/badger"
	"github.com/provideplatform/counter/store/providers/memory"
	"github.com/provideplatform/counter/store/providers/redis"
)

// StoreProviderBadger durable on-disk storage provider
const StoreProviderBadger = "badger"

// StoreProviderMemory ephemeral storage provider, mirrored to browser local storage when available
const StoreProviderMemory = "memory"

// StoreProviderRedis shared storage provider
const StoreProviderRedis = "redis"

// StoreProvider provides a common interface to interact with private state storage facilities;
// Get returns nil without error when the key is absent
type StoreProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// InitBadgerStoreProvider opens a durable store at the given path; an empty path opens an in-memory instance
func InitBadgerStoreProvider(path string) (*badger.Store, error) {
	return badger.Open(path)
}

// InitMemoryStoreProvider initializes an ephemeral store mirrored to the runtime's local storage, if any
func InitMemoryStoreProvider() *memory.Store {
	return memory.NewStore(memory.DefaultLocalStorage())
}

// InitRedisStoreProvider connects to the redis instance at the given url
func InitRedisStoreProvider(url string) (*redis.Store, error) {
	return redis.Open(url)
}
