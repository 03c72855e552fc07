package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	clientpkg "github.com/geofeed/backend/internal/client"
	configpkg "github.com/geofeed/backend/internal/config"
	eventpkg "github.com/geofeed/backend/internal/event"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	ormpkg "github.com/geofeed/backend/internal/orm"
	workerpkg "github.com/geofeed/backend/internal/worker"
)

var workerCommand = &cobra.Command{
	Use:   "worker",
	Short: "worker",
	Long:  "Consume broker events: send mails, recompute reputation and sweep expired sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return workerCommandImpl()
	},
}

func workerCommandImpl() error {
	application := fx.New(
		fx.NopLogger,
		fx.Provide(
			configpkg.Load,
			newLogger,
			metricspkg.NewMetrics,

			newPostgresClient,
			newKafkaClient,
			func(config *configpkg.Config) *clientpkg.MailClient {
				return clientpkg.NewMailClient(
					config.SMTPHost,
					config.SMTPPort,
					config.SMTPUser,
					config.SMTPPassword,
				)
			},

			func(
				lifecycle fx.Lifecycle,
				logger *zap.Logger,
				config *configpkg.Config,
				kafkaClient *eventpkg.KafkaClient,
				mailClient *clientpkg.MailClient,
				databaseClient *ormpkg.PostgresClient,
				metrics *metricspkg.Metrics,
			) *workerpkg.Worker {
				worker := workerpkg.NewWorker(logger, kafkaClient, mailClient, databaseClient, metrics, &workerpkg.Config{
					VerificationURL:  config.VerificationURL,
					PasswordResetURL: config.PasswordResetURL,
					MailFrom:         config.MailFrom,
					SessionTTL:       config.RefreshTokenTTL,
					CleanupInterval:  config.SessionCleanupInterval,
				})

				lifecycle.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return worker.Start()
					},
					OnStop: func(ctx context.Context) error {
						return worker.Stop()
					},
				})

				return worker
			},
		),
		fx.Invoke(
			func(*workerpkg.Worker) {},
		),
	)
	application.Run()

	err := application.Err()
	if err != nil {
		os.Exit(1)
	}

	return nil
}

func init() {
	rootCommand.AddCommand(workerCommand)
}
