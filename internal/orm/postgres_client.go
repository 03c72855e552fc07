package orm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresClient struct {
	database *gorm.DB
}

func NewPostgresClient(host string, port string, user string, password string, database string) (*PostgresClient, error) {
	return NewPostgresClientFromDSN(
		fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host,
			port,
			user,
			password,
			database,
		),
	)
}

// NewPostgresClientFromDSN opens a connection pool from a libpq connection
// string or URL.
func NewPostgresClientFromDSN(dsn string) (*PostgresClient, error) {
	database, err := gorm.Open(
		postgres.Open(dsn),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		},
	)
	if err != nil {
		return nil, err
	}

	rawDatabase, err := database.DB()
	if err != nil {
		return nil, err
	}

	// Vote transactions hold a row lock while they run, so the pool must allow
	// more than one connection for concurrent voters.
	rawDatabase.SetMaxOpenConns(16)
	rawDatabase.SetMaxIdleConns(4)
	rawDatabase.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{
		database: database,
	}, nil
}

// Migrate creates or updates the schema for every model.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	return c.database.WithContext(ctx).AutoMigrate(
		&User{},
		&Session{},
		&Post{},
		&Comment{},
		&PostLike{},
		&CommentLike{},
		&Poll{},
		&PollOption{},
		&PollVote{},
	)
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	rawDatabase, err := c.database.DB()
	if err != nil {
		return err
	}
	return rawDatabase.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	rawDatabase, err := c.database.DB()
	if err != nil {
		return err
	}
	return rawDatabase.Close()
}
