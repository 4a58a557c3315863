package blob

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyObject = errors.New("object has no content")

// Store keeps uploaded files and hands out URLs a browser can fetch.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	PublicURL(ref string) string
}

func joinURL(base, ref string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
