package ddbmapper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nisimpson/ddbmapper"
	"github.com/nisimpson/ddbmapper/dynamock"
)

// TestMapper_LocalDynamoDB runs the save behaviors against DynamoDB Local.
// It is skipped in short mode or when DynamoDB Local is not running.
func TestMapper_LocalDynamoDB(t *testing.T) {
	dynamock.WithDefaultLocalDynamoDB(t, func(local *dynamock.LocalDynamoDB) {
		desc := dynamock.MustDescribe(t, Order{})

		dynamock.WithIsolatedTable(t, local, desc, func(tableName string) {
			ctx := context.Background()
			mapper := newMapper(local.Store(), func(o *ddbmapper.Options) {
				o.Config = ddbmapper.NewConfig(ddbmapper.WithTableName(tableName))
			})

			if err := mapper.Save(ctx, &Order{ID: "o1", Total: 1, Note: ptr("note"), Tags: []string{"a"}}); err != nil {
				t.Fatalf("Failed to save: %v", err)
			}

			err := mapper.Save(ctx, &Order{ID: "o1", Total: 2, Tags: []string{"b"}},
				ddbmapper.WithSaveBehavior(ddbmapper.AppendSet))
			if err != nil {
				t.Fatalf("Failed to append: %v", err)
			}

			loaded := &Order{ID: "o1"}
			if err := mapper.Load(ctx, loaded, ddbmapper.WithConsistentReads(true)); err != nil {
				t.Fatalf("Failed to load: %v", err)
			}
			if loaded.Total != 2 || len(loaded.Tags) != 2 || loaded.Note == nil {
				t.Errorf("unexpected item after append %+v", loaded)
			}

			if err := mapper.Save(ctx, &Order{ID: "o1", Total: 3}); err != nil {
				t.Fatalf("Failed to update: %v", err)
			}
			loaded = &Order{ID: "o1"}
			if err := mapper.Load(ctx, loaded, ddbmapper.WithConsistentReads(true)); err != nil {
				t.Fatalf("Failed to load: %v", err)
			}
			if loaded.Note != nil || len(loaded.Tags) != 0 {
				t.Errorf("expected update to clear null attributes, got %+v", loaded)
			}

			if err := mapper.Delete(ctx, loaded); err != nil {
				t.Fatalf("Failed to delete: %v", err)
			}
			if err := mapper.Load(ctx, &Order{ID: "o1"}); !errors.Is(err, ddbmapper.ErrItemNotFound) {
				t.Errorf("expected ErrItemNotFound, got %v", err)
			}
		})
	})
}

func TestMapper_LocalDynamoDB_DuplicateKey(t *testing.T) {
	dynamock.WithDefaultLocalDynamoDB(t, func(local *dynamock.LocalDynamoDB) {
		desc := dynamock.MustDescribe(t, CryptoItem{})

		dynamock.WithIsolatedTable(t, local, desc, func(tableName string) {
			ctx := context.Background()
			mapper := newMapper(local.Store(), func(o *ddbmapper.Options) {
				o.GenerateKey = func() string { return "fixed" }
			})

			if err := mapper.Save(ctx, &CryptoItem{Value: "a"}, ddbmapper.WithTableName(tableName)); err != nil {
				t.Fatalf("Failed to save: %v", err)
			}

			var dup *ddbmapper.DuplicateKeyError
			err := mapper.Save(ctx, &CryptoItem{Value: "b"}, ddbmapper.WithTableName(tableName))
			if !errors.As(err, &dup) {
				t.Errorf("expected DuplicateKeyError, got %v", err)
			}
		})
	})
}
