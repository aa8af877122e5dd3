// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package redisenv

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/amidgo/testboot"
	redis "github.com/redis/go-redis/v9"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
)

// Client couples the redis client with its container, Close releases
// both.
type Client struct {
	*redis.Client

	term func()
}

func (c *Client) Close() error {
	err := c.Client.Close()

	c.term()

	return err
}

func RunForTesting(t *testing.T, initial map[string]any) *redis.Client {
	testboot.SkipDisabled(t)

	client, err := Run(t.Context(), initial)
	if client != nil {
		t.Cleanup(func() { _ = client.Close() })
	}

	if err != nil {
		t.Fatalf("run redis environment, err: %s", err)

		return nil
	}

	return client.Client
}

func Run(ctx context.Context, initial map[string]any) (*Client, error) {
	redisImage := "redis:6"

	if img := os.Getenv("TESTBOOT_REDIS_IMAGE"); img != "" {
		redisImage = img
	}

	redisContainer, err := rediscontainer.Run(ctx, redisImage)
	if err != nil {
		return nil, fmt.Errorf("run redis container: %w", err)
	}

	term := func() {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			log.Printf("failed to terminate redis container: %s", err)
		}
	}

	addr, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		term()

		return nil, fmt.Errorf("get connection string, %w", err)
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		term()

		return nil, fmt.Errorf("parse url: %s, %w", addr, err)
	}

	redisClient := redis.NewClient(opts)

	client := &Client{Client: redisClient, term: term}

	err = redisClient.Ping(ctx).Err()
	if err != nil {
		return client, fmt.Errorf("ping client, %w", err)
	}

	err = initialize(ctx, redisClient, initial)
	if err != nil {
		return client, fmt.Errorf("initialize redis, %w", err)
	}

	return client, nil
}

func initialize(ctx context.Context, client *redis.Client, initial map[string]any) error {
	for key, value := range initial {
		err := client.Set(ctx, key, value, 0).Err()
		if err != nil {
			return fmt.Errorf("set, key: %s, value: %v, %w", key, value, err)
		}
	}

	return nil
}
