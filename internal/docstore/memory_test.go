package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID    string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Name  string    `json:"name" bson:"name"`
	When  time.Time `json:"when" bson:"when"`
	Flag  bool      `json:"flag" bson:"flag"`
	Count int       `json:"count" bson:"count"`
}

func TestMemoryStore_InsertListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Insert(ctx, "things", testDoc{Name: "old", When: base})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "things", testDoc{Name: "new", When: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "things", testDoc{Name: "mid", When: base.Add(500 * time.Millisecond)})
	require.NoError(t, err)

	var docs []testDoc
	require.NoError(t, s.ListAll(ctx, "things", SortSpec{Field: "when", Descending: true}, &docs))

	require.Len(t, docs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{docs[0].Name, docs[1].Name, docs[2].Name})
	for _, d := range docs {
		assert.NotEmpty(t, d.ID)
	}
}

func TestMemoryStore_ListEmptyCollection(t *testing.T) {
	var docs []testDoc
	require.NoError(t, NewMemoryStore().ListAll(context.Background(), "none", SortSpec{}, &docs))
	assert.Empty(t, docs)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.Insert(ctx, "things", testDoc{Name: "a", Count: 1})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "things", id, map[string]any{"flag": true}))

	var docs []testDoc
	require.NoError(t, s.ListAll(ctx, "things", SortSpec{}, &docs))
	require.Len(t, docs, 1)
	assert.True(t, docs[0].Flag)
	assert.Equal(t, 1, docs[0].Count)
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	err := NewMemoryStore().Update(context.Background(), "things", "nope", map[string]any{"flag": true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, compare(1.0, 2.0))
	assert.Equal(t, 1, compare("b", "a"))
	assert.Equal(t, 0, compare("2025-01-01T00:00:00Z", "2025-01-01T00:00:00.000Z"))
}
