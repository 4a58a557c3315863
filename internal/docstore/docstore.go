package docstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// IDField is the key every stored document is addressed by.
const IDField = "_id"

type SortSpec struct {
	Field      string
	Descending bool
}

// Store is the durable object store: named collections of documents with
// store-generated ids.
type Store interface {
	// ListAll decodes every document of collection, ordered by sort, into out
	// (a pointer to a slice).
	ListAll(ctx context.Context, collection string, sort SortSpec, out any) error
	Insert(ctx context.Context, collection string, doc any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
}
