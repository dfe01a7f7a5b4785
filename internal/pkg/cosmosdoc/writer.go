// Package cosmosdoc persists receipt documents in the Cosmos DB container
// the reporting side reads from.
package cosmosdoc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/gofiber/fiber/v2/log"

	"github.com/facturave/reciboscan/app/models"
)

// Config carries the document store connection settings.
type Config struct {
	Endpoint      string `validate:"required,url"`
	Key           string `validate:"required"`
	DatabaseName  string `validate:"required"`
	ContainerName string `validate:"required"`
}

// Writer creates receipt documents, partitioned by owner.
type Writer struct {
	container *azcosmos.ContainerClient
}

// NewWriter builds the container client once at startup.
func NewWriter(cfg Config) (*Writer, error) {
	cred, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("build document store credential: %w", err)
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create document store client: %w", err)
	}
	container, err := client.NewContainer(cfg.DatabaseName, cfg.ContainerName)
	if err != nil {
		return nil, fmt.Errorf("open container %s/%s: %w", cfg.DatabaseName, cfg.ContainerName, err)
	}

	log.Infof("[CosmosDoc] Using container %s/%s", cfg.DatabaseName, cfg.ContainerName)
	return &Writer{container: container}, nil
}

// Write inserts the document. Every call creates a new item; nothing here
// deduplicates redelivered events.
func (w *Writer) Write(ctx context.Context, doc *models.ReceiptDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}

	pk := azcosmos.NewPartitionKeyString(doc.UserID)
	if _, err := w.container.CreateItem(ctx, pk, body, nil); err != nil {
		return fmt.Errorf("create document %s: %w", doc.ID, err)
	}

	log.Infof("[CosmosDoc] Stored document %s for owner %s", doc.ID, doc.UserID)
	return nil
}
