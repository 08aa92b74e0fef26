package assets

import (
	"context"
	"errors"
	"io"
)

// Namespace separates the full-resolution originals from generated teasers.
// Both are keyed by the same image ref.
type Namespace string

const (
	Originals Namespace = "originals"
	Teasers   Namespace = "teasers"
)

var ErrAssetNotFound = errors.New("asset not found")

// Store is an opaque content store addressed by (namespace, ref).
type Store interface {
	// Open returns ErrAssetNotFound when the ref does not exist.
	Open(ctx context.Context, ns Namespace, ref string) (io.ReadCloser, error)
	Save(ctx context.Context, ns Namespace, ref string, body io.Reader, contentType string) error
	// List returns every ref stored in the namespace, sorted.
	List(ctx context.Context, ns Namespace) ([]string, error)
}
