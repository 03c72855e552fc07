package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	configpkg "github.com/geofeed/backend/internal/config"
	eventpkg "github.com/geofeed/backend/internal/event"
	ormpkg "github.com/geofeed/backend/internal/orm"
)

func newLogger(config *configpkg.Config) (*zap.Logger, error) {
	if config.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newPostgresClient(lifecycle fx.Lifecycle, logger *zap.Logger, config *configpkg.Config) (*ormpkg.PostgresClient, error) {
	client, err := ormpkg.NewPostgresClient(
		config.PostgresHost,
		config.PostgresPort,
		config.PostgresUser,
		config.PostgresPassword,
		config.PostgresDatabase,
	)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing postgres connection")
			return client.Close()
		},
	})
	return client, nil
}

func newKafkaClient(lifecycle fx.Lifecycle, config *configpkg.Config) (*eventpkg.KafkaClient, error) {
	client, err := eventpkg.NewKafkaClient(
		config.KafkaHost,
		config.KafkaPort,
		config.KafkaTopic,
		config.KafkaGroup,
	)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
