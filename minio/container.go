// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package minioenv

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/amidgo/testboot"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	miniocnt "github.com/testcontainers/testcontainers-go/modules/minio"
)

type Config struct {
	MinioImage string
	Username   string
	Password   string
	Timeout    time.Duration
}

func configMinioImage(cfg *Config) string {
	const defaultMinioImage = "minio/minio:RELEASE.2024-01-16T16-07-38Z"

	if cfg != nil && cfg.MinioImage != "" {
		return cfg.MinioImage
	}

	minioImage := os.Getenv("TESTBOOT_MINIO_IMAGE")
	if minioImage != "" {
		return minioImage
	}

	return defaultMinioImage
}

func configUsername(cfg *Config) string {
	const defaultUsername = "minioadmin"

	if cfg == nil || cfg.Username == "" {
		return defaultUsername
	}

	return cfg.Username
}

func configPassword(cfg *Config) string {
	const defaultPassword = "minioadmin"

	if cfg == nil || cfg.Password == "" {
		return defaultPassword
	}

	return cfg.Password
}

func configTimeout(cfg *Config) time.Duration {
	const defaultTimeout = time.Second * 3

	if cfg == nil || cfg.Timeout <= 0 {
		return defaultTimeout
	}

	return cfg.Timeout
}

// RunContainer provides an environment backed by a fresh minio
// container.
func RunContainer(cfg *Config) ProvideEnvironmentFunc {
	return func(ctx context.Context) (Environment, error) {
		runCtx, cancel := context.WithTimeout(ctx, configTimeout(cfg))
		defer cancel()

		minioContainer, err := miniocnt.Run(runCtx,
			configMinioImage(cfg),
			miniocnt.WithUsername(configUsername(cfg)),
			miniocnt.WithPassword(configPassword(cfg)),
		)
		if err != nil {
			return nil, fmt.Errorf("run minio container, %w", err)
		}

		return container{
			minioContainer: minioContainer,
		}, nil
	}
}

type container struct {
	minioContainer *miniocnt.MinioContainer
}

func (c container) Connect(ctx context.Context) (*minio.Client, error) {
	endpoint, err := c.minioContainer.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to minio container, get endpoint, %w", err)
	}

	opts := &minio.Options{
		Creds: credentials.NewStaticV4(c.minioContainer.Username, c.minioContainer.Password, ""),
	}

	minioClient, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client, %w", err)
	}

	return minioClient, nil
}

func (c container) Terminate(ctx context.Context) error {
	err := c.minioContainer.Terminate(ctx)
	if err != nil {
		return fmt.Errorf("terminate minio container: %w", err)
	}

	return nil
}

func Run(
	ctx context.Context,
	buckets ...Bucket,
) (*Client, error) {
	return RunConfig(ctx, nil, buckets...)
}

func RunConfig(
	ctx context.Context,
	cfg *Config,
	buckets ...Bucket,
) (*Client, error) {
	env, err := RunContainer(cfg)(ctx)
	if err != nil {
		return nil, fmt.Errorf("run container, %w", err)
	}

	return Init(ctx, env, buckets...)
}

func RunForTesting(
	t *testing.T,
	buckets ...Bucket,
) *minio.Client {
	return RunForTestingConfig(t, nil, buckets...)
}

func RunForTestingConfig(
	t *testing.T,
	cfg *Config,
	buckets ...Bucket,
) *minio.Client {
	testboot.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	client, err := RunConfig(ctx, cfg, buckets...)
	if client != nil {
		t.Cleanup(func() { _ = client.Close() })
	}

	if err != nil {
		t.Fatalf("run minio environment with config, %s", err)

		return nil
	}

	return client.Client
}
