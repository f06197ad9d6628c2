package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// LessonChannel is the pub/sub channel carrying live events for one lesson.
func LessonChannel(lessonID string) string {
	return fmt.Sprintf("lesson:%s:events", lessonID)
}

// SnapshotChannel carries full code-store snapshots between processes that
// run the in-memory store backend.
const SnapshotChannel = "codes:snapshot"
