package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore is an in-process Store for tests and single-node runs
// without a database. Documents are kept in insertion order and are
// normalized through a bson round trip so filters and decoding behave
// the same as with the Mongo implementation.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
}

func NewMemory() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]bson.M)}
}

func (s *MemoryStore) InsertOne(_ context.Context, collection string, doc any) (string, error) {
	m, err := toDoc(doc)
	if err != nil {
		return "", err
	}
	id, ok := m["_id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		m["_id"] = id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], m)
	return id, nil
}

func (s *MemoryStore) FindOne(_ context.Context, collection string, filter Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			return decodeDoc(doc, out)
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) FindMany(_ context.Context, collection string, filter Filter, limit int64, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []bson.M
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			found = append(found, doc)
			if limit > 0 && int64(len(found)) == limit {
				break
			}
		}
	}
	return decodeDocs(found, out)
}

func (s *MemoryStore) UpdateOne(_ context.Context, collection string, filter Filter, set Fields, upsert bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			for k, v := range set {
				doc[k] = normalize(v)
			}
			return 1, nil
		}
	}
	if !upsert {
		return 0, nil
	}
	doc := bson.M{"_id": uuid.NewString()}
	for k, v := range filter {
		doc[k] = normalize(v)
	}
	for k, v := range set {
		doc[k] = normalize(v)
	}
	s.collections[collection] = append(s.collections[collection], doc)
	return 1, nil
}

func (s *MemoryStore) DeleteOne(_ context.Context, collection string, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			s.collections[collection] = append(docs[:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *MemoryStore) DeleteMany(_ context.Context, collection string, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []bson.M
	var deleted int64
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.collections[collection] = kept
	return deleted, nil
}

func (s *MemoryStore) Count(_ context.Context, collection string, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func matches(doc bson.M, filter Filter) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(doc[k], normalize(v)) {
			return false
		}
	}
	return true
}

// normalize round-trips a value through bson so it compares equal to
// the stored representation (e.g. time.Time vs bson.DateTime).
func normalize(v any) any {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return v
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return v
	}
	return m["v"]
}

func toDoc(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return m, nil
}

func decodeDoc(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func decodeDocs(docs []bson.M, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("decode results: out must be a pointer to a slice, got %T", out)
	}
	slice := reflect.MakeSlice(v.Elem().Type(), 0, len(docs))
	elemType := v.Elem().Type().Elem()
	for _, doc := range docs {
		ev := reflect.New(elemType)
		if err := decodeDoc(doc, ev.Interface()); err != nil {
			return err
		}
		slice = reflect.Append(slice, ev.Elem())
	}
	v.Elem().Set(slice)
	return nil
}
