// Package routes wires the v1 handlers onto the fiber app.
package routes

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/veltra/genflow/internal/api/v1/handlers"
	apiroutes "github.com/veltra/genflow/pkg/api/v1/routes"
)

// Handlers bundles everything the v1 routes need.
type Handlers struct {
	Job      *handlers.JobHandler
	Callback *handlers.CallbackHandler
	Pipeline *handlers.PipelineHandler
}

// Register registers the health check and all v1 routes. Param routes go
// after their static siblings so fiber does not swallow static segments.
func Register(app *fiber.App, h Handlers) {
	app.Get(apiroutes.HealthPath, handlers.HealthCheck)

	v1 := app.Group(apiroutes.APIv1Prefix)

	jobs := v1.Group("/jobs")
	jobs.Get("/", h.Job.ListJobs)
	jobs.Post("/", h.Job.SubmitJob)
	jobs.Post("/poll", h.Job.SweepJobs)
	jobs.Get("/:id", h.Job.GetJob)
	jobs.Post("/:id/poll", h.Job.PollJob)

	v1.Post("/callbacks/:provider", h.Callback.HandleCallback)

	pipelines := v1.Group("/pipelines")
	pipelines.Post("/", h.Pipeline.StartPipeline)
	pipelines.Get("/:personaId", h.Pipeline.GetPipeline)
}
