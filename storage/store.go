// Package storage provides a flat key/value store for JSON documents. Keys
// are file names under a root directory and writes replace a file atomically,
// so a crash mid-write leaves either the previous document or the new one.
package storage

import "context"

// Entry is a stored document. Keys are plain file names; values are raw bytes.
type Entry struct {
	Key   string
	Value []byte
}

// Store translates between durable storage and raw document bytes.
// Implementations perform I/O on each call without caching.
type Store interface {
	// List returns the keys of all visible documents, sorted by name.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or replacing as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys return ErrKeyNotFound.
	Delete(ctx context.Context, keys ...string) error
	// Exists reports whether a document is stored under key.
	Exists(ctx context.Context, key string) bool
}
