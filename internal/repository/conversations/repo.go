package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pantrychef-io/pantrychef/internal/db"
	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/conversation"
)

const (
	convKeyPrefix     = domain.KeyPrefix + "conversation:"
	feedbackKeyPrefix = domain.KeyPrefix + "feedback:"

	positiveCountKey = domain.KeyPrefix + "feedback_count:positive"
	negativeCountKey = domain.KeyPrefix + "feedback_count:negative"
)

// store is the consumer interface for conversation persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
}

// Repo persists conversations and feedback as JSON values with a
// retention TTL, plus running feedback counters.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a conversation repository. ttl bounds record retention;
// zero means keep forever.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save persists a conversation. A missing ID gets a fresh UUID; the
// (possibly generated) ID is returned.
func (r *Repo) Save(ctx context.Context, conv *conversation.Conversation) (string, error) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(conv)
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}
	if err := r.put(ctx, convKeyPrefix+conv.ID, data); err != nil {
		return "", fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}
	return conv.ID, nil
}

// Get fetches a conversation by id.
func (r *Repo) Get(ctx context.Context, id string) (conversation.Conversation, error) {
	data, err := r.store.Get(ctx, convKeyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return conversation.Conversation{}, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return conversation.Conversation{}, fmt.Errorf("get conversation %s: %w", id, err)
	}

	var conv conversation.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return conversation.Conversation{}, fmt.Errorf("unmarshal conversation %s: %w", id, err)
	}
	return conv, nil
}

// SaveFeedback records feedback for an existing conversation and bumps
// the matching counter. Unknown conversation ids are rejected.
func (r *Repo) SaveFeedback(ctx context.Context, fb *conversation.Feedback) (string, error) {
	if _, err := r.Get(ctx, fb.ConversationID); err != nil {
		return "", err
	}

	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(fb)
	if err != nil {
		return "", fmt.Errorf("marshal feedback: %w", err)
	}
	if err := r.put(ctx, feedbackKeyPrefix+fb.ID, data); err != nil {
		return "", fmt.Errorf("save feedback %s: %w", fb.ID, err)
	}

	counterKey := positiveCountKey
	if !fb.Positive {
		counterKey = negativeCountKey
	}
	if err := r.store.IncrBy(ctx, counterKey, 1); err != nil {
		return "", fmt.Errorf("bump feedback counter: %w", err)
	}

	return fb.ID, nil
}

// FeedbackStats returns the running positive/negative feedback totals.
func (r *Repo) FeedbackStats(ctx context.Context) (positive, negative int64, err error) {
	positive, err = r.readCounter(ctx, positiveCountKey)
	if err != nil {
		return 0, 0, err
	}
	negative, err = r.readCounter(ctx, negativeCountKey)
	if err != nil {
		return 0, 0, err
	}
	return positive, negative, nil
}

func (r *Repo) readCounter(ctx context.Context, key string) (int64, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", key, err)
	}
	return n, nil
}

func (r *Repo) put(ctx context.Context, key string, data []byte) error {
	if r.ttl <= 0 {
		return r.store.Set(ctx, key, data)
	}
	return r.store.SetWithTTL(ctx, key, data, r.ttl)
}
