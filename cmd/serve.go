package cmd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/timada-org/reelay/internal/api"
	"github.com/timada-org/reelay/internal/core"
)

var (
	cfgFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the reelay server",

		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			config := core.DefaultConfig()

			if cfgFile != "" {
				var err error
				if config, err = core.NewConfig(cfgFile); err != nil {
					return err
				}
			}

			logger, err := newLogger(config.Log)
			if err != nil {
				return err
			}

			app, err := api.New(config, logger)
			if err != nil {
				logger.WithError(err).Error("starting reelay")
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.Listen(ctx)
		},
	}
)

func init() {
	serveCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (defaults apply when empty)")
}
