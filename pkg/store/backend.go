// Package store persists recorded functions by name. Functions are wrapped in
// a versioned JSON document and written through a Backend that never
// overwrites an existing key.
package store

// Backend is a flat byte-blob namespace.
//
// Create must be exclusive: when key already exists it fails with an error
// matching fs.ErrExist. Get and Delete report missing keys with fs.ErrNotExist.
type Backend interface {
	Get(key string) ([]byte, error)
	Create(key string, data []byte) error
	Delete(key string) error
	Keys() ([]string, error)
}
