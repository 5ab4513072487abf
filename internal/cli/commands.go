package cli

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"

	_ "videothingy/reel-pipeline/docs"
	"videothingy/reel-pipeline/handlers"
	"videothingy/reel-pipeline/middleware"
	"videothingy/reel-pipeline/utils"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			srv := newServer(a)
			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("addr", a.cfg.Addr()).Info("Starting reel pipeline API")
				errCh <- srv.Listen(a.cfg.Addr())
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.log.Info("Shutting down reel pipeline API")
			if err := srv.ShutdownWithTimeout(shutdownTimeout); err != nil {
				return err
			}
			a.log.Info("Reel pipeline API shut down gracefully")
			return nil
		},
	}
}

func newServer(a *app) *fiber.App {
	srv := fiber.New(fiber.Config{
		AppName:   "reel-pipeline",
		BodyLimit: a.cfg.BodyLimitMB * 1024 * 1024,
		// Anything escaping a handler is still reported in the body with a 200.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
				return c.Status(fe.Code).JSON(utils.ErrorEnvelope(err))
			}
			return utils.RespondWithError(c, err)
		},
	})

	srv.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "*",
	}))
	srv.Use(middleware.RequestLogger(a.log))

	handlers.Register(srv, handlers.NewApplicationHandler(a.pipeline, a.store, a.log))
	return srv
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Store the newest channel videos not already in the bucket",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app) (interface{}, error) {
			return a.pipeline.Fetch(ctx)
		}),
	}
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <video-id>",
		Short: "Cut reels from a video already stored under originals/",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) (interface{}, error) {
				return a.pipeline.Process(ctx, args[0])
			})(cmd, args)
		},
	}
}

func autoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Fetch the newest video and cut it into reels",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app) (interface{}, error) {
			return a.pipeline.Auto(ctx)
		}),
	}
}

type removeResult struct {
	Removed []string `json:"removed"`
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>...",
		Short: "Delete objects from the bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(_ context.Context, a *app) (interface{}, error) {
				if err := a.store.Remove(args...); err != nil {
					return nil, err
				}
				return removeResult{Removed: args}, nil
			})(cmd, args)
		},
	}
}
