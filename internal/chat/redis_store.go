package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each conversation as a meta hash plus an append-only list
// of JSON messages. RPUSH preserves insertion order, which is the transcript
// ordering invariant.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func metaKey(sessionID string) string {
	return "chat:sess:" + sessionID + ":meta"
}

func messagesKey(sessionID string) string {
	return "chat:sess:" + sessionID + ":messages"
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Conversation, error) {
	meta, err := s.client.HGetAll(ctx, metaKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load conversation meta: %w", err)
	}
	if len(meta) == 0 {
		return nil, ErrConversationNotFound
	}

	patientID, err := strconv.ParseInt(meta["patient_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt conversation meta for %s: %w", sessionID, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, meta["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt conversation meta for %s: %w", sessionID, err)
	}

	raw, err := s.client.LRange(ctx, messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load conversation messages: %w", err)
	}

	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decode conversation message: %w", err)
		}
		msgs = append(msgs, m)
	}

	return &Conversation{
		SessionID: sessionID,
		PatientID: patientID,
		Messages:  msgs,
		CreatedAt: createdAt,
	}, nil
}

func (s *RedisStore) Create(ctx context.Context, sessionID string, patientID int64) (*Conversation, error) {
	now := time.Now()

	err := s.client.HSet(ctx, metaKey(sessionID), map[string]any{
		"patient_id": strconv.FormatInt(patientID, 10),
		"created_at": now.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return &Conversation{
		SessionID: sessionID,
		PatientID: patientID,
		CreatedAt: now,
	}, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	items := make([]any, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode conversation message: %w", err)
		}
		items = append(items, data)
	}

	if err := s.client.RPush(ctx, messagesKey(sessionID), items...).Err(); err != nil {
		return fmt.Errorf("append conversation messages: %w", err)
	}

	return nil
}
