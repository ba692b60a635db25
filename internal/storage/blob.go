package storage

import "io"

// BlobStore holds enrollment document bytes; only metadata lives in
// the database.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
