package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/habit-proofs/internal/api"
	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/repository"
	repoPostgres "github.com/dom/habit-proofs/internal/repository/postgres"
	"github.com/dom/habit-proofs/internal/service"
	"github.com/dom/habit-proofs/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated
// connection. Skipped under -short.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_habit_proofs"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"proofs",
		"habit_members",
		"habits",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		S3Bucket:           "test-proofs",
		S3Region:           "us-east-1",
		MaxUploadMB:        1,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server     *httptest.Server
	Store      *MemoryStore
	Repos      *repository.Repositories
	Services   *service.Services
	Blobs      *FakeBlobStore
	Presence   *websocket.Presence
	Dispatcher *websocket.Dispatcher
	Provider   *FakeIdentityProvider
	Config     *config.Config
}

// NewTestServer creates a complete test server backed by in-memory
// repositories, a fake blob store and a real presence directory. Options
// adjust the config before anything is wired.
func NewTestServer(t *testing.T, opts ...func(*config.Config)) *TestServer {
	t.Helper()

	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	repos, store := NewMemoryRepositories()
	blobs := NewFakeBlobStore()
	provider := NewFakeIdentityProvider()

	presence := websocket.NewPresence()
	dispatcher := websocket.NewDispatcher(presence)

	services := service.NewServices(repos, cfg, provider, blobs, dispatcher)
	router := api.NewRouter(services, presence, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:     server,
		Store:      store,
		Repos:      repos,
		Services:   services,
		Blobs:      blobs,
		Presence:   presence,
		Dispatcher: dispatcher,
		Provider:   provider,
		Config:     cfg,
	}

	t.Cleanup(func() {
		presence.CloseAll()
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/ws?token=%s", wsURL, token)
}
