package dynamock

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nisimpson/ddbmapper"
)

// WithLocalDynamoDB runs fn against DynamoDB Local on port, skipping the test in
// short mode or when the instance is not reachable.
func WithLocalDynamoDB(t *testing.T, port int, fn func(local *LocalDynamoDB)) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	local := NewLocalDynamoDB(port)
	if !local.IsAvailable(context.Background()) {
		t.Skipf("DynamoDB Local not available on port %d", port)
	}

	fn(local)
}

// WithDefaultLocalDynamoDB runs fn against DynamoDB Local on DefaultLocalPort.
func WithDefaultLocalDynamoDB(t *testing.T, fn func(local *LocalDynamoDB)) {
	t.Helper()
	WithLocalDynamoDB(t, DefaultLocalPort, fn)
}

// NewTestTable generates a unique table name for testing.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// WithIsolatedTable creates a uniquely named table matching desc, runs fn and
// deletes the table afterwards.
func WithIsolatedTable(t *testing.T, local *LocalDynamoDB, desc *ddbmapper.Descriptor, fn func(tableName string)) {
	t.Helper()
	ctx := context.Background()
	tableName := NewTestTable("test-" + strings.NewReplacer("/", "-", " ", "-").Replace(t.Name()))

	if err := local.CreateMapperTable(ctx, tableName, desc); err != nil {
		t.Fatalf("Failed to create test table %s: %v", tableName, err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := local.DeleteTable(cleanupCtx, tableName); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", tableName, err)
		}
	}()

	fn(tableName)
}

// NewTestMemoryStore opens a MemoryStore that is closed when the test ends.
// Each desc gets a table under its declared name.
func NewTestMemoryStore(t *testing.T, descs ...*ddbmapper.Descriptor) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to open memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, desc := range descs {
		if err := store.CreateTableFor(desc.TableName(), desc); err != nil {
			t.Fatalf("Failed to create table %s: %v", desc.TableName(), err)
		}
	}
	return store
}

// MustDescribe returns the descriptor for v or fails the test.
func MustDescribe(t *testing.T, v any) *ddbmapper.Descriptor {
	t.Helper()
	desc, err := ddbmapper.Describe(v)
	if err != nil {
		t.Fatalf("Failed to describe %T: %v", v, err)
	}
	return desc
}
