package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturave/reciboscan/app/controllers"
)

// WebhookRouter wires the push endpoints Event Grid talks to, plus the
// probe the container platform polls.
type WebhookRouter struct {
	events *controllers.EventController
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post("/webhooks/eventgrid", h.events.HandleEventGrid)
	app.Get("/up", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
}

func NewWebhookRouter(events *controllers.EventController) *WebhookRouter {
	return &WebhookRouter{events: events}
}
