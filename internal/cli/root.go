// Package cli implements the todo command line: an HTTP server command plus
// commands that work on the configured task store directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/server"
	"todo-manager/backend/internal/storage"
	"todo-manager/backend/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// env is what every subcommand gets after the root command has loaded
// configuration.
type env struct {
	envFile string
	cfg     *config.Config
	log     *logrus.Logger
}

// openStore opens the configured slot and loads the task collection. The
// returned close func releases the slot.
func (e *env) openStore(ctx context.Context) (*store.Store, func() error, error) {
	slot, err := storage.OpenSlot(e.cfg)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(ctx, storage.NewPersistence(slot, e.cfg.Storage.Key), store.WithLogger(e.log))
	if err != nil {
		_ = slot.Close()
		return nil, nil, err
	}
	return st, slot.Close, nil
}

func NewRootCmd(version string) *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Todo - a small task manager with pluggable storage",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(e.envFile); err != nil {
				return err
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logging.New(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "Dotenv file to load before reading the environment")

	root.AddCommand(
		serveCmd(e),
		listCmd(e),
		addCmd(e),
		editCmd(e),
		toggleCmd(e),
		showCmd(e),
		rmCmd(e),
		exportCmd(e),
	)

	return root
}

// Execute runs the root command and reports any error on stderr.
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func serveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := server.New(ctx, e.cfg, e.log)
			if err != nil {
				return err
			}
			return app.Run(ctx)
		},
	}
}

// mutationErr turns a persistence failure into a CLI error. Unlike the
// server, the process is about to exit, so an unsaved change is lost.
func mutationErr(err error) error {
	var pe *store.PersistError
	if errors.As(err, &pe) {
		return fmt.Errorf("change was not saved: %w", pe.Err)
	}
	return err
}
