package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"videothingy/reel-pipeline/utils"
)

// errReported means the error envelope was already printed.
var errReported = errors.New("reported")

func Main() {
	root := &cobra.Command{
		Use:          "reels",
		Short:        "Turn the newest channel video into highlight reels",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.AddCommand(serveCmd(), fetchCmd(), processCmd(), autoCmd(), removeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// withApp wires the service for one command and prints its result envelope.
func withApp(fn func(ctx context.Context, a *app) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := fn(cmd.Context(), a)
		return printEnvelope(cmd.OutOrStdout(), res, err)
	}
}

func printEnvelope(w io.Writer, payload interface{}, runErr error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if runErr != nil {
		if err := enc.Encode(utils.ErrorEnvelope(runErr)); err != nil {
			return err
		}
		return errReported
	}

	body, err := utils.SuccessEnvelope(payload)
	if err != nil {
		return err
	}
	return enc.Encode(body)
}
