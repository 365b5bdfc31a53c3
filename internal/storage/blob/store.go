package blob

import "context"

// Store abstracts the object store holding fetched case documents. The
// gateway only ever writes; reads and deletes exist for the surrounding
// system and for tests.
type Store interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
