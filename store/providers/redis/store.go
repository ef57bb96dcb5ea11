package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/provideplatform/counter/common"
	goredis "github.com/redis/go-redis/v9"
)

// Store is a key-value store shared between processes through redis
type Store struct {
	client *goredis.Client
}

// Open connects to the redis instance at url (redis://[user:pass@]host:port/db)
func Open(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url; %s", err.Error())
	}
	return NewStore(goredis.NewClient(opts)), nil
}

// NewStore wraps an existing redis client
func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

// Get returns the value at key, or nil if absent
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	} else if err != nil {
		common.Log.Warningf("failed to read %s from redis; %s", key, err.Error())
		return nil, fmt.Errorf("failed to read %s; %s", key, err.Error())
	}
	return val, nil
}

// Set writes val at key without expiry
func (s *Store) Set(ctx context.Context, key string, val []byte) error {
	if err := s.client.Set(ctx, key, val, 0).Err(); err != nil {
		common.Log.Warningf("failed to write %s to redis; %s", key, err.Error())
		return fmt.Errorf("failed to write %s; %s", key, err.Error())
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s; %s", key, err.Error())
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// scanPattern matches every key starting with prefix; glob metacharacters in prefix match literally
func scanPattern(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}

// Keys lists every key with the given prefix
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, scanPattern(prefix), 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys with prefix %s; %s", prefix, err.Error())
	}
	return keys, nil
}

// Close closes the client connection pool
func (s *Store) Close() error {
	return s.client.Close()
}
