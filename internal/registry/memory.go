package registry

import (
	"context"
	"sort"
	"sync"
)

// Memory es la implementación de referencia en memoria de proceso.
// Un solo mutex alcanza: las operaciones son lookups/inserts de microsegundos.
type Memory struct {
	mu sync.Mutex
	// namespace -> content_hash -> primer registro
	namespaces map[string]map[string]Record
}

// NewMemory crea un registry en memoria vacío.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]Record)}
}

func (m *Memory) CheckAndRecord(_ context.Context, namespaceID, contentHash string, rec Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespaceID]
	if !ok {
		ns = make(map[string]Record)
		m.namespaces[namespaceID] = ns
	}
	if existing, dup := ns[contentHash]; dup {
		return existing, true, nil
	}
	ns[contentHash] = rec
	return rec, false, nil
}

func (m *Memory) Stats(_ context.Context, namespaceID string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	for _, rec := range m.namespaces[namespaceID] {
		s.Total++
		// RFC3339 UTC con el mismo formato ordena lexicográficamente
		if s.First == "" || rec.Timestamp < s.First {
			s.First = rec.Timestamp
		}
		if rec.Timestamp > s.Last {
			s.Last = rec.Timestamp
		}
	}
	return s, nil
}

func (m *Memory) Overview(_ context.Context) ([]NamespaceCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]NamespaceCount, 0, len(m.namespaces))
	for ns, recs := range m.namespaces {
		out = append(out, NamespaceCount{NamespaceID: ns, Total: int64(len(recs))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NamespaceID < out[j].NamespaceID })
	return out, nil
}

func (m *Memory) List(_ context.Context, namespaceID string) (map[string]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Record, len(m.namespaces[namespaceID]))
	for hash, rec := range m.namespaces[namespaceID] {
		out[hash] = rec
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }
