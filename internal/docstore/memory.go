package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents as JSON-shaped maps. Field names therefore
// follow the documents' json tags.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]map[string]any)}
}

func (m *MemoryStore) ListAll(_ context.Context, collection string, spec SortSpec, out any) error {
	m.mu.RLock()
	docs := make([]map[string]any, len(m.collections[collection]))
	copy(docs, m.collections[collection])
	m.mu.RUnlock()

	if spec.Field != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := compare(docs[i][spec.Field], docs[j][spec.Field])
			if spec.Descending {
				return c > 0
			}
			return c < 0
		})
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (m *MemoryStore) Insert(_ context.Context, collection string, doc any) (string, error) {
	fields, err := toFields(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	fields[IDField] = id

	m.mu.Lock()
	m.collections[collection] = append(m.collections[collection], fields)
	m.mu.Unlock()
	return id, nil
}

func (m *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	normalized, err := toFields(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, doc := range m.collections[collection] {
		if doc[IDField] != id {
			continue
		}
		updated := make(map[string]any, len(doc)+len(normalized))
		for k, v := range doc {
			updated[k] = v
		}
		for k, v := range normalized {
			updated[k] = v
		}
		m.collections[collection][i] = updated
		return nil
	}
	return ErrNotFound
}

func toFields(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return fields, nil
}

// compare orders JSON scalars: RFC 3339 timestamps chronologically, numbers
// numerically, everything else by its string form.
func compare(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		at, errA := time.Parse(time.RFC3339Nano, as)
		bt, errB := time.Parse(time.RFC3339Nano, bs)
		if errA == nil && errB == nil {
			return at.Compare(bt)
		}
	}
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}
