// Package blobstore reads receipt blobs from the Azure storage account
// that fires the ingestion events.
package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/gofiber/fiber/v2/log"
)

// Config carries the storage account connection settings.
type Config struct {
	ConnectionString string `validate:"required"`
}

// Client wraps the blob service client for whole-blob downloads.
type Client struct {
	azClient *azblob.Client
}

// NewClient creates a client from the account connection string.
func NewClient(cfg Config) (*Client, error) {
	azClient, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob service client: %w", err)
	}

	log.Info("[BlobStore] Initialized blob service client")
	return &Client{azClient: azClient}, nil
}

// Fetch downloads a blob into memory. Receipt photos are a few megabytes
// at most, so no streaming is needed.
func (c *Client) Fetch(ctx context.Context, container, objectPath string) ([]byte, error) {
	resp, err := c.azClient.DownloadStream(ctx, container, objectPath, nil)
	if err != nil {
		return nil, fmt.Errorf("download blob %s/%s: %w", container, objectPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", container, objectPath, err)
	}

	log.Infof("[BlobStore] Downloaded %s/%s (%d bytes)", container, objectPath, len(data))
	return data, nil
}
