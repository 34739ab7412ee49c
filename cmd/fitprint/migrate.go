package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/fitprint-backend/internal/app"
	"github.com/yungbote/fitprint-backend/internal/platform/envutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema for the configured store backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(envutil.String("LOG_MODE", "development"))
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
			cfg, err := app.LoadConfig(log)
			if err != nil {
				return err
			}
			return app.Migrate(log, cfg)
		},
	}
}
