package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkin-bot/internal/store"
)

const collection = "conversations"

// Repository enforces the conversation invariants over a document
// store. All writes for one conversation id are serialized through a
// per-id mutex, so the read-check-write in AddMessage and the
// find-then-insert in Initialize are atomic within this process. The
// unique index on conversation_id is the cross-process backstop.
type Repository struct {
	store store.Store
	log   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRepository(st store.Store, log *zap.Logger) *Repository {
	return &Repository{
		store: st,
		log:   log.Named("conversation"),
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *Repository) lock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.locks[id]
	if !ok {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	return m
}

// Initialize creates the conversation if it does not exist yet. It is
// idempotent: "already there" and "just created" both report true.
func (r *Repository) Initialize(ctx context.Context, id string, initial []Message) (bool, error) {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var existing Conversation
	err := r.store.FindOne(ctx, collection, store.Filter{"conversation_id": id}, &existing)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("lookup conversation %s: %w", id, err)
	}

	if initial == nil {
		initial = []Message{}
	}
	now := time.Now().UTC()
	conv := Conversation{ID: id, CreatedAt: now, UpdatedAt: now, Messages: initial}
	if _, err := r.store.InsertOne(ctx, collection, conv); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// Another process created it first; still success.
			return true, nil
		}
		return false, fmt.Errorf("create conversation %s: %w", id, err)
	}
	r.log.Info("started new conversation", zap.String("conversation_id", id))
	return true, nil
}

// AddMessage appends one message and returns the complete post-append
// list. A message whose MessageID already appears in the conversation
// makes the whole call a no-op reported as Duplicate.
func (r *Repository) AddMessage(ctx context.Context, id string, msg Message) (AppendResult, error) {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := r.find(ctx, id)
	if err != nil {
		return AppendResult{}, err
	}

	if msg.MessageID != "" {
		for _, existing := range conv.Messages {
			if existing.MessageID == msg.MessageID {
				r.log.Debug("duplicate message ignored",
					zap.String("conversation_id", id),
					zap.String("message_id", msg.MessageID))
				return AppendResult{Messages: conv.Messages, Duplicate: true}, nil
			}
		}
	}

	msgs := append(conv.Messages, msg)
	_, err = r.store.UpdateOne(ctx, collection, store.Filter{"conversation_id": id},
		store.Fields{"messages": msgs, "updated_at": time.Now().UTC()}, false)
	if err != nil {
		return AppendResult{}, fmt.Errorf("append message to %s: %w", id, err)
	}
	return AppendResult{Messages: msgs}, nil
}

// GetMessages returns the conversation's ordered message list.
func (r *Repository) GetMessages(ctx context.Context, id string) ([]Message, error) {
	conv, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

// FindMany returns every conversation record.
func (r *Repository) FindMany(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := r.store.FindMany(ctx, collection, store.Filter{}, 0, &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// UpdateLastGitHubCheck records when the conversation's GitHub activity
// was last inspected.
func (r *Repository) UpdateLastGitHubCheck(ctx context.Context, id string, at time.Time) error {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	if _, err := r.find(ctx, id); err != nil {
		return err
	}
	_, err := r.store.UpdateOne(ctx, collection, store.Filter{"conversation_id": id},
		store.Fields{"last_github_check": at.UTC(), "updated_at": time.Now().UTC()}, false)
	if err != nil {
		return fmt.Errorf("update last github check for %s: %w", id, err)
	}
	return nil
}

func (r *Repository) find(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := r.store.FindOne(ctx, collection, store.Filter{"conversation_id": id}, &conv)
	if errors.Is(err, store.ErrNotFound) {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("lookup conversation %s: %w", id, err)
	}
	return conv, nil
}
