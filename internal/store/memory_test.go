package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type note struct {
	Key       string    `bson:"key"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"created_at"`
}

func TestMemoryInsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	id, err := s.InsertOne(ctx, "notes", note{Key: "a", Body: "first", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got note
	require.NoError(t, s.FindOne(ctx, "notes", Filter{"key": "a"}, &got))
	require.Equal(t, "first", got.Body)

	err = s.FindOne(ctx, "notes", Filter{"key": "missing"}, &got)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindManyKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for _, body := range []string{"one", "two", "three"} {
		_, err := s.InsertOne(ctx, "notes", note{Key: "k", Body: body})
		require.NoError(t, err)
	}

	var all []note
	require.NoError(t, s.FindMany(ctx, "notes", Filter{"key": "k"}, 0, &all))
	require.Len(t, all, 3)
	require.Equal(t, "one", all[0].Body)
	require.Equal(t, "three", all[2].Body)

	var limited []note
	require.NoError(t, s.FindMany(ctx, "notes", Filter{"key": "k"}, 2, &limited))
	require.Len(t, limited, 2)
}

func TestMemoryUpdateOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.InsertOne(ctx, "notes", note{Key: "a", Body: "old"})
	require.NoError(t, err)

	n, err := s.UpdateOne(ctx, "notes", Filter{"key": "a"}, Fields{"body": "new"}, false)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var got note
	require.NoError(t, s.FindOne(ctx, "notes", Filter{"key": "a"}, &got))
	require.Equal(t, "new", got.Body)

	// No match without upsert leaves the collection untouched.
	n, err = s.UpdateOne(ctx, "notes", Filter{"key": "x"}, Fields{"body": "created"}, false)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	// Upsert creates the document from filter plus set fields.
	n, err = s.UpdateOne(ctx, "notes", Filter{"key": "x"}, Fields{"body": "created"}, true)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, s.FindOne(ctx, "notes", Filter{"key": "x"}, &got))
	require.Equal(t, "created", got.Body)
}

func TestMemoryDeleteAndCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for i := 0; i < 3; i++ {
		_, err := s.InsertOne(ctx, "notes", note{Key: "k", Body: "b"})
		require.NoError(t, err)
	}
	_, err := s.InsertOne(ctx, "notes", note{Key: "other", Body: "b"})
	require.NoError(t, err)

	n, err := s.Count(ctx, "notes", Filter{"key": "k"})
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	deleted, err := s.DeleteOne(ctx, "notes", Filter{"key": "k"})
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = s.DeleteMany(ctx, "notes", Filter{"key": "k"})
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	n, err = s.Count(ctx, "notes", Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
