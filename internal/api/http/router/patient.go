package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lightit/patientreg/internal/api/http/handler"
)

func (r *Router) registerPatientRoutes(api fiber.Router, ph *handler.PatientHandler) {
	patients := api.Group("/patients")

	patients.Get("/", ph.List)
	patients.Post("/", ph.Create)

	p := patients.Group("/:id")
	p.Get("/", ph.Get)
	p.Put("/", ph.Update)
	p.Delete("/", ph.Delete)
}
