package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/forkful/backend/internal/types"
)

// chatHistoryMax bounds the retained exchanges per user.
const chatHistoryMax = 100

// chatHistoryTTL expires idle histories.
const chatHistoryTTL = 30 * 24 * time.Hour

// ChatHistoryService keeps each user's recent advice exchanges in a
// redis list, oldest first. History is a convenience, not a record:
// losing it is acceptable, so writes are fire-and-forget from the
// caller's point of view.
type ChatHistoryService struct {
	redis *redis.Client
}

func NewChatHistoryService(redisClient *redis.Client) *ChatHistoryService {
	return &ChatHistoryService{redis: redisClient}
}

func chatHistoryKey(userID uuid.UUID) string {
	return "chat:history:" + userID.String()
}

// Append records one exchange and trims the list to the retention bound.
func (s *ChatHistoryService) Append(ctx context.Context, userID uuid.UUID, question, answer string) error {
	if s.redis == nil {
		return nil
	}
	exchange := struct {
		Question string    `json:"question"`
		Answer   string    `json:"answer"`
		AskedAt  time.Time `json:"asked_at"`
	}{Question: question, Answer: answer, AskedAt: time.Now().UTC()}

	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}

	key := chatHistoryKey(userID)
	pipe := s.redis.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -chatHistoryMax, -1)
	pipe.Expire(ctx, key, chatHistoryTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the user's retained exchanges, oldest first. Entries that
// no longer decode are skipped rather than failing the whole read.
func (s *ChatHistoryService) List(ctx context.Context, userID uuid.UUID) ([]types.ChatExchange, error) {
	if s.redis == nil {
		return []types.ChatExchange{}, nil
	}
	raw, err := s.redis.LRange(ctx, chatHistoryKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	exchanges := make([]types.ChatExchange, 0, len(raw))
	for _, item := range raw {
		var entry struct {
			Question string    `json:"question"`
			Answer   string    `json:"answer"`
			AskedAt  time.Time `json:"asked_at"`
		}
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		exchanges = append(exchanges, types.ChatExchange{
			UserID:   userID,
			Question: entry.Question,
			Answer:   entry.Answer,
			AskedAt:  entry.AskedAt,
		})
	}
	return exchanges, nil
}
