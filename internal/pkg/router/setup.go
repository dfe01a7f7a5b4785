package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturave/reciboscan/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, events *controllers.EventController) {
	setup(app, NewWebhookRouter(events), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
