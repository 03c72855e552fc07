package orm

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

var (
	pgContainer *postgres.PostgresContainer
	testClient  *PostgresClient
	setupError  error
)

// TestMain starts a throwaway postgres for the package. Tests that need it
// are skipped when docker is unavailable.
func TestMain(m *testing.M) {
	ctx := context.Background()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	setupError = setupTestDatabase(ctx)
	if setupError != nil {
		logger.Warn("postgres container unavailable, database tests will be skipped", zap.Error(setupError))
	}

	exitCode := m.Run()

	if err := teardownTestDatabase(ctx); err != nil {
		logger.Error("failed to tear down test database", zap.Error(err))
	}

	os.Exit(exitCode)
}

func setupTestDatabase(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker provider: %v", r)
		}
	}()

	pgContainer, err = postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute)),
	)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}

	connectionString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	testClient, err = NewPostgresClientFromDSN(connectionString)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	return testClient.Migrate(ctx)
}

func teardownTestDatabase(ctx context.Context) error {
	if testClient != nil {
		testClient.Close()
	}
	if pgContainer != nil {
		return pgContainer.Terminate(ctx)
	}
	return nil
}

func requireDatabase(t *testing.T) *PostgresClient {
	t.Helper()
	if setupError != nil {
		t.Skipf("postgres unavailable: %v", setupError)
	}
	return testClient
}

func createUser(t *testing.T, client *PostgresClient) *User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &User{
		Username: "user_" + suffix,
		Email:    suffix + "@example.com",
		Password: "hash",
	}
	if err := client.InsertUser(context.Background(), user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return user
}

func createPost(t *testing.T, client *PostgresClient, author *User, latitude float64, longitude float64) *Post {
	t.Helper()
	post := &Post{
		AuthorID:  author.ID,
		Title:     "Post " + uuid.NewString()[:8],
		Latitude:  latitude,
		Longitude: longitude,
	}
	if err := client.InsertPost(context.Background(), post); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	return post
}

func createComment(t *testing.T, client *PostgresClient, post *Post, author *User, parent *Comment) *Comment {
	t.Helper()
	comment := &Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Content:  "comment " + uuid.NewString()[:8],
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	if err := client.InsertComment(context.Background(), comment); err != nil {
		t.Fatalf("insert comment: %v", err)
	}
	return comment
}
