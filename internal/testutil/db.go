package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/noticeboard/internal/app/system/indexes"
	"github.com/dalemusser/noticeboard/internal/app/system/validators"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// TestMongoURIEnv names the variable that points tests at an existing MongoDB
// instead of starting a container.
const TestMongoURIEnv = "NOTICEBOARD_TEST_MONGO_URI"

const mongoImage = "mongo:7"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// SetupTestDB returns a fresh, uniquely named database that is dropped when
// the test finishes. The test is skipped when no MongoDB is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	if os.Getenv(TestMongoURIEnv) == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}
	clientOnce.Do(func() { client, clientErr = connect() })
	if clientErr != nil {
		t.Skipf("skipping test because MongoDB is unavailable: %v", clientErr)
	}

	name := "noticeboard_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

// TestContext returns a context bounded for a single test's store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// EnsureIndexes applies the production indexes to db.
func EnsureIndexes(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
}

// EnsureSchema applies the production collection validators to db.
func EnsureSchema(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure validators: %v", err)
	}
}

func connect() (*mongo.Client, error) {
	uri := os.Getenv(TestMongoURIEnv)
	if uri == "" {
		var err error
		if uri, err = startMongoContainer(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		err = c.Ping(ctx, nil)
		if err == nil {
			return c, nil
		}
		if time.Now().After(deadline) {
			_ = c.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo did not become ready: %w", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// startMongoContainer starts one container shared by every test in the
// package binary. The testcontainers reaper removes it when the process exits.
func startMongoContainer() (string, error) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongoImage,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		return "", fmt.Errorf("container mapped port: %w", err)
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}
