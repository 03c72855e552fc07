package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	configpkg "github.com/geofeed/backend/internal/config"
	ormpkg "github.com/geofeed/backend/internal/orm"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  "Create or update the database schema.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrateCommandImpl(cmd.Context())
	},
}

func migrateCommandImpl(ctx context.Context) error {
	config := configpkg.Load()

	logger, err := newLogger(config)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := ormpkg.NewPostgresClient(
		config.PostgresHost,
		config.PostgresPort,
		config.PostgresUser,
		config.PostgresPassword,
		config.PostgresDatabase,
	)
	if err != nil {
		logger.Error("error connecting to postgres", zap.Error(err))
		return err
	}
	defer client.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	err = client.Migrate(ctx)
	if err != nil {
		logger.Error("error migrating schema", zap.Error(err))
		return err
	}

	logger.Info("schema migrated")
	return nil
}

func init() {
	rootCommand.AddCommand(migrateCommand)
}
