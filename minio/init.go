// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package minioenv

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log"
	"path"

	"github.com/minio/minio-go/v7"
)

type Bucket struct {
	Name  string
	Files []File
}

type File struct {
	Name    string
	Content []byte
}

func MustFiles(fsys fs.FS) []File {
	files, err := Files(fsys)
	if err != nil {
		panic(err)
	}

	return files
}

// Files collects every regular file of fsys into bucket seed entries,
// directories are flattened to base names.
func Files(fsys fs.FS) ([]File, error) {
	files := make([]File, 0)

	err := fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("read file, %w", err)
		}

		_, name := path.Split(filePath)

		files = append(files, File{Name: name, Content: content})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk dir, %w", err)
	}

	return files, nil
}

// Client couples the minio client with its environment, Close
// terminates the environment.
type Client struct {
	*minio.Client

	env Environment
}

func (c *Client) Close() error {
	err := c.env.Terminate(context.Background())
	if err != nil {
		log.Printf("failed to terminate minio environment: %s", err)
	}

	return nil
}

// Init connects to the environment and seeds the given buckets.
// Whenever a non nil *Client is returned the caller owns its Close,
// even on a non nil error.
func Init(
	ctx context.Context,
	env Environment,
	buckets ...Bucket,
) (*Client, error) {
	minioClient, err := env.Connect(ctx)
	if err != nil {
		terminateErr := env.Terminate(ctx)
		if terminateErr != nil {
			log.Printf("failed to terminate minio environment: %s", terminateErr)
		}

		return nil, fmt.Errorf("connect to minio environment, %w", err)
	}

	client := &Client{Client: minioClient, env: env}

	err = insertBuckets(ctx, minioClient, buckets...)
	if err != nil {
		return client, err
	}

	return client, nil
}

func insertBuckets(ctx context.Context, minioClient *minio.Client, buckets ...Bucket) error {
	for _, bucket := range buckets {
		err := insertSingleBucket(ctx, minioClient, bucket)
		if err != nil {
			return err
		}
	}

	return nil
}

func insertSingleBucket(ctx context.Context, minioClient *minio.Client, bucket Bucket) error {
	err := minioClient.MakeBucket(ctx, bucket.Name, minio.MakeBucketOptions{})

	switch {
	case isBucketExistsError(err):
	case err != nil:
		return fmt.Errorf("create bucket %s, %w", bucket.Name, err)
	}

	for _, file := range bucket.Files {
		objectSize := int64(len(file.Content))

		_, err = minioClient.PutObject(ctx,
			bucket.Name,
			file.Name,
			bytes.NewBuffer(file.Content),
			objectSize,
			minio.PutObjectOptions{},
		)
		if err != nil {
			return fmt.Errorf("put file %s into bucket %s, %w", file.Name, bucket.Name, err)
		}
	}

	return nil
}

func isBucketExistsError(err error) bool {
	resp := minio.ToErrorResponse(err)

	return resp.Code == "BucketAlreadyOwnedByYou"
}
