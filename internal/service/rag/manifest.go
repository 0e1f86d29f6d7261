package rag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// DefaultManifestKey is the Redis hash holding the manifest.
const DefaultManifestKey = "medrecords:rag:manifest"

type memoryManifest struct {
	entries *cache.Cache
}

// NewMemoryManifest keeps the manifest in process memory. It is lost on
// restart, which makes the next sync reindex everything.
func NewMemoryManifest() ManifestStore {
	return &memoryManifest{entries: cache.New(cache.NoExpiration, 0)}
}

func (m *memoryManifest) Load(ctx context.Context) (map[string]ManifestEntry, error) {
	items := m.entries.Items()
	out := make(map[string]ManifestEntry, len(items))
	for path, item := range items {
		out[path] = item.Object.(ManifestEntry)
	}
	return out, nil
}

func (m *memoryManifest) Put(ctx context.Context, path string, entry ManifestEntry) error {
	m.entries.Set(path, entry, cache.NoExpiration)
	return nil
}

func (m *memoryManifest) Delete(ctx context.Context, path string) error {
	m.entries.Delete(path)
	return nil
}

type redisManifest struct {
	client *redis.Client
	key    string
}

// NewRedisManifest stores the manifest as a Redis hash of path to JSON entry,
// shared by the API and the index worker.
func NewRedisManifest(client *redis.Client, key string) ManifestStore {
	if key == "" {
		key = DefaultManifestKey
	}
	return &redisManifest{client: client, key: key}
}

func (m *redisManifest) Load(ctx context.Context) (map[string]ManifestEntry, error) {
	raw, err := m.client.HGetAll(ctx, m.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	out := make(map[string]ManifestEntry, len(raw))
	for path, v := range raw {
		var entry ManifestEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("decode manifest entry %s: %w", path, err)
		}
		out[path] = entry
	}
	return out, nil
}

func (m *redisManifest) Put(ctx context.Context, path string, entry ManifestEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := m.client.HSet(ctx, m.key, path, b).Err(); err != nil {
		return fmt.Errorf("store manifest entry: %w", err)
	}
	return nil
}

func (m *redisManifest) Delete(ctx context.Context, path string) error {
	if err := m.client.HDel(ctx, m.key, path).Err(); err != nil {
		return fmt.Errorf("delete manifest entry: %w", err)
	}
	return nil
}
