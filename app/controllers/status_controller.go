package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facturave/reciboscan/internal/pkg/status"
)

// HandleReceiptStatus reports where a blob sits in the pipeline. Entries
// expire after a day, so unknown just means nothing recent happened.
func HandleReceiptStatus(c *fiber.Ctx) error {
	blobKey := c.Query("path")
	if blobKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "path query parameter missing"})
	}

	state, documentID := status.Lookup(blobKey)
	resp := fiber.Map{"path": blobKey, "status": state}
	if documentID != "" {
		resp["document_id"] = documentID
	}
	if ts, err := status.LookupTimestamp(blobKey); err == nil {
		resp["updated_at"] = ts.Format(time.RFC3339)
	}
	return c.JSON(resp)
}
