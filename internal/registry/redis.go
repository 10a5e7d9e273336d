package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	rdb "github.com/redis/go-redis/v9"
)

// Redis implementa Registry sobre un hash por namespace. HSETNX da el
// check-and-record atómico server-side: exactamente un writer gana la carrera.
type Redis struct {
	client *rdb.Client
	prefix string
}

// NewRedis crea un registry sobre un cliente redis existente.
func NewRedis(client *rdb.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "cryptoqr:reg:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) nsKey(namespaceID string) string { return r.prefix + "ns:" + namespaceID }
func (r *Redis) indexKey() string                { return r.prefix + "namespaces" }

func (r *Redis) CheckAndRecord(ctx context.Context, namespaceID, contentHash string, rec Record) (Record, bool, error) {
	val, err := json.Marshal(rec)
	if err != nil {
		return Record{}, false, err
	}

	won, err := r.client.HSetNX(ctx, r.nsKey(namespaceID), contentHash, val).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("registry hsetnx: %w", err)
	}
	if won {
		// índice de namespaces para Overview; SADD es idempotente
		if err := r.client.SAdd(ctx, r.indexKey(), namespaceID).Err(); err != nil {
			return Record{}, false, fmt.Errorf("registry sadd: %w", err)
		}
		return rec, false, nil
	}

	// perdimos la carrera (o ya existía): leer el registro del ganador
	raw, err := r.client.HGet(ctx, r.nsKey(namespaceID), contentHash).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("registry hget: %w", err)
	}
	var existing Record
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return Record{}, false, fmt.Errorf("registry decode: %w", err)
	}
	return existing, true, nil
}

func (r *Redis) Stats(ctx context.Context, namespaceID string) (Stats, error) {
	all, err := r.client.HGetAll(ctx, r.nsKey(namespaceID)).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("registry hgetall: %w", err)
	}
	var s Stats
	for _, raw := range all {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		s.Total++
		if s.First == "" || rec.Timestamp < s.First {
			s.First = rec.Timestamp
		}
		if rec.Timestamp > s.Last {
			s.Last = rec.Timestamp
		}
	}
	return s, nil
}

func (r *Redis) Overview(ctx context.Context) ([]NamespaceCount, error) {
	names, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("registry smembers: %w", err)
	}
	sort.Strings(names)
	out := make([]NamespaceCount, 0, len(names))
	for _, ns := range names {
		n, err := r.client.HLen(ctx, r.nsKey(ns)).Result()
		if err != nil {
			return nil, fmt.Errorf("registry hlen: %w", err)
		}
		out = append(out, NamespaceCount{NamespaceID: ns, Total: n})
	}
	return out, nil
}

func (r *Redis) List(ctx context.Context, namespaceID string) (map[string]Record, error) {
	all, err := r.client.HGetAll(ctx, r.nsKey(namespaceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("registry hgetall: %w", err)
	}
	out := make(map[string]Record, len(all))
	for hash, raw := range all {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out[hash] = rec
	}
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.client.Close() }
