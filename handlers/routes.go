package handlers

import (
	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/swaggo/fiber-swagger"
)

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
}

// Register mounts every route on app.
func Register(app *fiber.App, h *ApplicationHandler) {
	app.Get("/", Health)
	app.Post("/upload", h.UploadVideo)
	app.Get("/fetch-clips", h.FetchClips)
	app.Post("/auto-process", h.AutoProcess)
	app.Post("/process-video", h.ProcessVideo)

	app.Get("/swagger/*", fiberSwagger.WrapHandler)
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router / [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}
