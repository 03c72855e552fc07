package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	clientpkg "github.com/geofeed/backend/internal/client"
	configpkg "github.com/geofeed/backend/internal/config"
	eventpkg "github.com/geofeed/backend/internal/event"
	grpcpkg "github.com/geofeed/backend/internal/grpc"
	httppkg "github.com/geofeed/backend/internal/http"
	jwtpkg "github.com/geofeed/backend/internal/jwt"
	"github.com/geofeed/backend/internal/lib"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	ormpkg "github.com/geofeed/backend/internal/orm"
	"github.com/geofeed/backend/internal/services"
	authorizationpkg "github.com/geofeed/backend/internal/services/authorization"
	commentpkg "github.com/geofeed/backend/internal/services/comment"
	pollpkg "github.com/geofeed/backend/internal/services/poll"
	postpkg "github.com/geofeed/backend/internal/services/post"
	votepkg "github.com/geofeed/backend/internal/services/vote"
)

var serverCommand = &cobra.Command{
	Use:   "server",
	Short: "server",
	Long:  "Serve the HTTP API and the gRPC health endpoint.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverCommandImpl()
	},
}

func serverCommandImpl() error {
	application := fx.New(
		fx.NopLogger,
		fx.Provide(
			configpkg.Load,
			newLogger,
			metricspkg.NewMetrics,

			func(config *configpkg.Config) *jwtpkg.JWT {
				return jwtpkg.NewJWT(config.JWTSecret, config.AccessTokenTTL, config.RefreshTokenTTL)
			},

			func(config *configpkg.Config) *lib.ContentFilter {
				if len(config.BlockedWords) == 0 {
					return lib.DefaultContentFilter()
				}
				return lib.NewContentFilter(config.BlockedWords)
			},

			// Clients
			newPostgresClient,
			newKafkaClient,
			func(lifecycle fx.Lifecycle, config *configpkg.Config) *clientpkg.GeocodeClient {
				redisClient := clientpkg.NewRedisClient(config.RedisHost, config.RedisPort)
				lifecycle.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return redisClient.Close()
					},
				})
				cache := clientpkg.NewRedisLocationCache(redisClient, config.GeocoderCacheTTL)
				return clientpkg.NewGeocodeClient(config.GeocoderURL, cache)
			},
			func(config *configpkg.Config) (*clientpkg.S3Client, error) {
				return clientpkg.NewS3Client(context.Background(), config.ImageEndpoint, config.ImageBucket, config.ImagePublicURL)
			},
			func(config *configpkg.Config) services.PasswordChecker {
				if !config.PwnedPasswordCheck {
					return nil
				}
				return clientpkg.NewHIBPClient()
			},

			// Services
			func(db *ormpkg.PostgresClient, jwt *jwtpkg.JWT, broker *eventpkg.KafkaClient, passwords services.PasswordChecker, metrics *metricspkg.Metrics, log *zap.Logger) services.AuthorizationService {
				return authorizationpkg.NewAuthorizationService(db, jwt, broker, passwords, metrics, log)
			},
			func(db *ormpkg.PostgresClient, images *clientpkg.S3Client, geocoder *clientpkg.GeocodeClient, filter *lib.ContentFilter, log *zap.Logger) services.PostService {
				return postpkg.NewPostService(db, images, geocoder, filter, log)
			},
			func(db *ormpkg.PostgresClient, filter *lib.ContentFilter, log *zap.Logger) services.CommentService {
				return commentpkg.NewCommentService(db, filter, log)
			},
			func(db *ormpkg.PostgresClient, broker *eventpkg.KafkaClient, metrics *metricspkg.Metrics, log *zap.Logger) services.VoteService {
				return votepkg.NewVoteService(db, broker, metrics, log)
			},
			func(db *ormpkg.PostgresClient, broker *eventpkg.KafkaClient, metrics *metricspkg.Metrics, log *zap.Logger) services.PollService {
				return pollpkg.NewPollService(db, broker, metrics, log)
			},

			// HTTP server
			httppkg.NewHandler,
			func(
				lifecycle fx.Lifecycle,
				log *zap.Logger,
				config *configpkg.Config,
				jwt *jwtpkg.JWT,
				db *ormpkg.PostgresClient,
				metrics *metricspkg.Metrics,
				handler *httppkg.Handler,
			) *httppkg.HTTP {
				if !config.Debug {
					gin.SetMode(gin.ReleaseMode)
				}
				router := httppkg.NewRouter(httppkg.RouterConfig{
					Logger:         log,
					JWT:            jwt,
					Sessions:       db,
					Metrics:        metrics,
					RateLimitRPS:   config.RateLimitRPS,
					RateLimitBurst: config.RateLimitBurst,
				}, handler)

				httpServer := httppkg.NewHTTP(log, config.HTTPHost, config.HTTPPort, router)
				lifecycle.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return httpServer.Start()
					},
					OnStop: func(ctx context.Context) error {
						return httpServer.Stop(ctx)
					},
				})
				return httpServer
			},

			// gRPC health server
			func(lifecycle fx.Lifecycle, log *zap.Logger, config *configpkg.Config, db *ormpkg.PostgresClient) *grpcpkg.GRPC {
				grpcServer := grpcpkg.NewGRPC(log, config.GRPCHost, config.GRPCPort, db, config.HealthCheckInterval)
				lifecycle.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return grpcServer.Start()
					},
					OnStop: func(ctx context.Context) error {
						return grpcServer.Stop()
					},
				})
				return grpcServer
			},
		),
		fx.Invoke(
			func(*httppkg.HTTP) {},
			func(*grpcpkg.GRPC) {},
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
	rootCommand.AddCommand(serverCommand)
}
