package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// envTestMongoURI overrides the MongoDB instance store tests run against.
	envTestMongoURI = "MENTORHUB_TEST_MONGO_URI"

	defaultTestMongoURI = "mongodb://localhost:27017"
)

// SetupTestDB connects to the test MongoDB instance and returns a database
// unique to the calling test. The database is dropped when the test ends.
// Tests are skipped when no MongoDB is reachable, so the pure-logic suites
// still run everywhere.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(envTestMongoURI)
	if uri == "" {
		uri = defaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test mongo at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("skipping: test mongo at %s not reachable: %v", uri, err)
	}

	dbName := fmt.Sprintf("mentorhub_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a generous deadline for store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
