package controllers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/facturave/reciboscan/internal/pkg/env"
	"github.com/facturave/reciboscan/internal/pkg/eventgrid"
	"github.com/facturave/reciboscan/internal/pkg/pipeline"
)

// ReceiptProcessor is the slice of the pipeline the webhook needs.
type ReceiptProcessor interface {
	Process(ctx context.Context, event eventgrid.Event) (pipeline.Outcome, error)
}

// EventController handles Event Grid webhook deliveries.
type EventController struct {
	processor ReceiptProcessor
}

func NewEventController(processor ReceiptProcessor) *EventController {
	return &EventController{processor: processor}
}

// HandleEventGrid accepts one delivery. Subscription handshakes are
// answered in-band; blob created events run the pipeline. A pipeline
// failure fails the whole delivery so the grid redelivers it later.
func (ec *EventController) HandleEventGrid(c *fiber.Ctx) error {
	events, err := eventgrid.ParseEvents(c.Body())
	if err != nil {
		log.Errorf("[Webhook] Rejecting unreadable delivery: %v", err)
		message := "unreadable event payload"
		if env.IsDev() {
			message = fmt.Sprintf("unreadable event payload: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": message})
	}

	for _, event := range events {
		validation, err := event.AsSubscriptionValidation()
		if err != nil {
			continue
		}
		log.Infof("[Webhook] Answering subscription validation for event %s", event.ID)
		return c.JSON(eventgrid.ValidationResponse{ValidationResponse: validation.ValidationCode})
	}

	// The pipeline runs on a background context: a dropped webhook
	// connection must not abort a half-done extraction.
	ctx := context.Background()
	for _, event := range events {
		outcome, err := ec.processor.Process(ctx, event)
		if err != nil {
			log.Errorf("[Webhook] Event %s failed with outcome %s: %v", event.ID, outcome, err)
			return c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}
