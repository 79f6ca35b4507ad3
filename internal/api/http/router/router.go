package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/lightit/patientreg/config"
	"github.com/lightit/patientreg/internal/api/http/handler"
	"github.com/lightit/patientreg/internal/service/patient"
	"github.com/lightit/patientreg/pkg/filestore"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg        *config.Config
	PatientSvc patient.Service
	Files      *filestore.Store
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	// uploaded document photos are served straight off disk
	app.Use(r.p.Cfg.Uploads.PublicPrefix, static.New(r.p.Cfg.Uploads.Dir))

	patientH := handler.NewPatientHandler(r.p.PatientSvc, r.p.Files)

	api := app.Group("/api/v1")
	r.registerPatientRoutes(api, patientH)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
