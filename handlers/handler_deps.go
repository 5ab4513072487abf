package handlers

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/internal/pipeline"
)

// PipelineRunner is what the reel endpoints need from the pipeline.
// This allows for decoupling and easier testing.
type PipelineRunner interface {
	Fetch(ctx context.Context) (pipeline.FetchResult, error)
	Process(ctx context.Context, videoID string) (pipeline.ProcessResult, error)
	Auto(ctx context.Context) (pipeline.AutoResult, error)
}

// Uploader stores raw uploads.
type Uploader interface {
	Upload(objectPath string, data io.Reader) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Pipeline PipelineRunner
	Store    Uploader
	Logger   *logrus.Logger
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("videoid", func(fl validator.FieldLevel) bool {
		return pipeline.ValidVideoID(fl.Field().String())
	})
	return v
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(p PipelineRunner, store Uploader, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Pipeline: p,
		Store:    store,
		Logger:   logger,
	}
}
