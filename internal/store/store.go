package store

import (
	"context"
	"errors"
)

// Filter matches documents whose fields equal every listed value (AND).
type Filter map[string]any

// Fields names document fields to replace on update. Unlisted fields
// are left untouched.
type Fields map[string]any

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("store: document not found")
	// ErrDuplicateKey is returned by InsertOne when a unique index
	// rejects the document.
	ErrDuplicateKey = errors.New("store: duplicate key")
)

// Store is the minimal document-store contract the conversation
// repository is built on: equality filters only, no range queries, no
// server-side sort. Implementations must be safe for concurrent use.
type Store interface {
	InsertOne(ctx context.Context, collection string, doc any) (string, error)
	FindOne(ctx context.Context, collection string, filter Filter, out any) error
	FindMany(ctx context.Context, collection string, filter Filter, limit int64, out any) error
	UpdateOne(ctx context.Context, collection string, filter Filter, set Fields, upsert bool) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
}
