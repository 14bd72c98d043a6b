// Package redis provides a transcript.Store backed by Redis lists, one list
// per session. Suited for sharing live transcripts across processes or
// keeping them beyond the orchestrator's lifetime.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/roundtable/core"
)

// Options configures the Redis connection and key layout.
type Options struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password authenticates the connection; empty for none.
	Password string
	// DB selects the Redis logical database.
	DB int
	// KeyPrefix namespaces the per-session list keys.
	KeyPrefix string
}

// Store persists each session's messages as a Redis list in append order.
type Store struct {
	client *redis.Client
	prefix string
}

// storedMessage is the JSON wire form of one message. Part order across
// kinds is not preserved: text is rebuilt first, then calls, then responses.
type storedMessage struct {
	ID        string                  `json:"id"`
	Seq       int                     `json:"seq"`
	Author    string                  `json:"author"`
	Timestamp time.Time               `json:"timestamp"`
	Role      string                  `json:"role"`
	Text      string                  `json:"text,omitempty"`
	Calls     []core.FunctionCall     `json:"calls,omitempty"`
	Responses []core.FunctionResponse `json:"responses,omitempty"`
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		Addr:      "localhost:6379",
		KeyPrefix: "roundtable:transcript:",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Store{client: client, prefix: opts.KeyPrefix}, nil
}

// Append implements transcript.Store.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...core.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	payloads := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(encode(msg))
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.ID, err)
		}
		payloads = append(payloads, data)
	}

	if err := s.client.RPush(ctx, s.key(sessionID), payloads...).Err(); err != nil {
		return fmt.Errorf("append transcript %s: %w", sessionID, err)
	}

	return nil
}

// Messages implements transcript.Store.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]core.Message, error) {
	entries, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", sessionID, err)
	}

	msgs := make([]core.Message, 0, len(entries))
	for _, entry := range entries {
		var stored storedMessage
		if err := json.Unmarshal([]byte(entry), &stored); err != nil {
			return nil, fmt.Errorf("decode transcript %s: %w", sessionID, err)
		}
		msgs = append(msgs, decode(stored))
	}

	return msgs, nil
}

// Delete implements transcript.Store.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete transcript %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func encode(msg core.Message) storedMessage {
	return storedMessage{
		ID:        msg.ID,
		Seq:       msg.Seq,
		Author:    msg.Author,
		Timestamp: msg.Timestamp,
		Role:      msg.Content.Role,
		Text:      msg.Text(),
		Calls:     msg.FunctionCalls(),
		Responses: msg.FunctionResponses(),
	}
}

func decode(stored storedMessage) core.Message {
	var parts []core.Part

	if stored.Text != "" {
		parts = append(parts, core.TextPart{Text: stored.Text})
	}
	for _, call := range stored.Calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: call})
	}
	for _, resp := range stored.Responses {
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: resp})
	}

	return core.Message{
		ID:        stored.ID,
		Seq:       stored.Seq,
		Author:    stored.Author,
		Timestamp: stored.Timestamp,
		Content:   core.Content{Role: stored.Role, Parts: parts},
	}
}
