package dynamock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/nisimpson/ddbmapper"
)

type memoryItem struct {
	ID    string   `dynamodbav:"id" mapper:"hash"`
	Total int      `dynamodbav:"total"`
	Tags  []string `dynamodbav:"tags,stringset,omitempty"`
}

func (memoryItem) TableName() string { return "memory-items" }

func TestMemoryStore_Tables(t *testing.T) {
	store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}), MustDescribe(t, localItem{}))

	tables := store.Tables()
	if len(tables) != 2 || tables[0] != "local-items" || tables[1] != "memory-items" {
		t.Errorf("unexpected tables %v", tables)
	}

	schema := SchemaFor("local-items", MustDescribe(t, localItem{}))
	if schema.HashKey != "pk" || schema.RangeKey != "sk" {
		t.Errorf("unexpected schema %+v", schema)
	}

	var inUse *types.ResourceInUseException
	if err := store.CreateTable(schema); !errors.As(err, &inUse) {
		t.Errorf("expected ResourceInUseException, got %v", err)
	}

	var apiErr smithy.APIError
	if err := store.CreateTable(TableSchema{Name: "no-hash"}); !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ValidationException" {
		t.Errorf("expected ValidationException, got %v", err)
	}
}

func TestMemoryStore_DeleteTable(t *testing.T) {
	ctx := context.Background()
	store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}), MustDescribe(t, localItem{}))

	if err := store.SeedItem(ctx, "memory-items", NewItem(WithS("id", "a"))); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	if err := store.SeedItem(ctx, "local-items", NewItem(WithS("pk", "a"), WithN("sk", 1))); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	if err := store.DeleteTable("memory-items"); err != nil {
		t.Fatalf("Failed to delete table: %v", err)
	}
	if !ddbmapper.IsResourceNotFound(store.DeleteTable("memory-items")) {
		t.Error("expected resource not found on second delete")
	}

	// Recreating the table starts empty
	if err := store.CreateTableFor("memory-items", MustDescribe(t, memoryItem{})); err != nil {
		t.Fatalf("Failed to recreate table: %v", err)
	}
	items, err := store.Items("memory-items")
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}

	others, err := store.Items("local-items")
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(others) != 1 {
		t.Errorf("expected other tables untouched, got %d items", len(others))
	}
}

func TestMemoryStore_PutItem(t *testing.T) {
	ctx := context.Background()
	key := NewItem(WithS("id", "o1"))

	t.Run("missing table", func(t *testing.T) {
		store := NewTestMemoryStore(t)
		err := store.PutItem(ctx, "memory-items", &ddbmapper.WritePlan{Behavior: ddbmapper.Update, Key: key, Writes: key})
		if !ddbmapper.IsResourceNotFound(err) {
			t.Errorf("expected resource not found, got %v", err)
		}
	})

	t.Run("update merges and removes", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		if err := store.SeedItem(ctx, "memory-items", NewItem(WithS("id", "o1"), WithN("total", 1), WithS("note", "n"), WithS("other", "x"))); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}

		err := store.PutItem(ctx, "memory-items", &ddbmapper.WritePlan{
			Behavior: ddbmapper.Update,
			Key:      key,
			Writes:   NewItem(WithS("id", "o1"), WithN("total", 2)),
			Deletes:  []string{"note"},
		})
		if err != nil {
			t.Fatalf("PutItem failed: %v", err)
		}

		item, err := store.GetItem(ctx, "memory-items", key, true)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		if len(item) != 3 {
			t.Errorf("expected 3 attributes, got %v", item)
		}
		if _, ok := item["note"]; ok {
			t.Error("expected note to be removed")
		}
		if n := item["total"].(*types.AttributeValueMemberN).Value; n != "2" {
			t.Errorf("expected total 2, got %s", n)
		}
	})

	t.Run("clobber replaces", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		if err := store.SeedItem(ctx, "memory-items", NewItem(WithS("id", "o1"), WithS("other", "x"))); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}

		err := store.PutItem(ctx, "memory-items", &ddbmapper.WritePlan{
			Behavior: ddbmapper.Clobber,
			Key:      key,
			Writes:   NewItem(WithS("id", "o1"), WithN("total", 2)),
		})
		if err != nil {
			t.Fatalf("PutItem failed: %v", err)
		}

		item, _ := store.GetItem(ctx, "memory-items", key, false)
		if _, ok := item["other"]; ok || len(item) != 2 {
			t.Errorf("expected the item to be replaced, got %v", item)
		}
	})

	t.Run("append unions sets", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		if err := store.SeedItem(ctx, "memory-items", NewItem(WithS("id", "o1"), WithSS("tags", "a", "b"), WithNS("scores", 1))); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}

		err := store.PutItem(ctx, "memory-items", &ddbmapper.WritePlan{
			Behavior: ddbmapper.AppendSet,
			Key:      key,
			Writes:   key,
			Appends:  NewItem(WithSS("tags", "b", "c"), WithNS("scores", 1, 2), WithSS("fresh", "z")),
		})
		if err != nil {
			t.Fatalf("PutItem failed: %v", err)
		}

		item, _ := store.GetItem(ctx, "memory-items", key, false)
		if got := item["tags"].(*types.AttributeValueMemberSS).Value; len(got) != 3 {
			t.Errorf("expected 3 tags, got %v", got)
		}
		if got := item["scores"].(*types.AttributeValueMemberNS).Value; len(got) != 2 {
			t.Errorf("expected 2 scores, got %v", got)
		}
		if _, ok := item["fresh"].(*types.AttributeValueMemberSS); !ok {
			t.Errorf("expected a new set, got %T", item["fresh"])
		}
	})

	t.Run("append to a different type fails", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		if err := store.SeedItem(ctx, "memory-items", NewItem(WithS("id", "o1"), WithS("tags", "plain"))); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}

		err := store.PutItem(ctx, "memory-items", &ddbmapper.WritePlan{
			Behavior: ddbmapper.AppendSet,
			Key:      key,
			Writes:   key,
			Appends:  NewItem(WithSS("tags", "x")),
		})
		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ValidationException" {
			t.Errorf("expected ValidationException, got %v", err)
		}
	})

	t.Run("key must not exist", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		plan := &ddbmapper.WritePlan{
			Behavior:  ddbmapper.Update,
			Key:       key,
			Writes:    key,
			Condition: ddbmapper.ConditionKeyMustNotExist,
		}

		if err := store.PutItem(ctx, "memory-items", plan); err != nil {
			t.Fatalf("first PutItem failed: %v", err)
		}
		if err := store.PutItem(ctx, "memory-items", plan); !ddbmapper.IsConditionalCheckFailed(err) {
			t.Errorf("expected conditional check failure, got %v", err)
		}
	})

	t.Run("missing key attribute", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		err := store.PutItem(ctx, "memory-items", &ddbmapper.WritePlan{Behavior: ddbmapper.Update, Key: ddbmapper.Item{}})
		if err == nil {
			t.Error("expected an error for a missing key")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := store.PutItem(canceled, "memory-items", &ddbmapper.WritePlan{Behavior: ddbmapper.Update, Key: key, Writes: key})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestMemoryStore_KeyTypesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))

	if err := store.SeedItem(ctx, "memory-items", NewItem(WithS("id", "1"), WithS("kind", "string"))); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	if err := store.SeedItem(ctx, "memory-items", NewItem(WithN("id", 1), WithS("kind", "number"))); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	items, err := store.Items("memory-items")
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestMemoryStore_GetDeleteItem(t *testing.T) {
	ctx := context.Background()
	store := NewTestMemoryStore(t, MustDescribe(t, localItem{}))
	key := NewItem(WithS("pk", "p"), WithN("sk", 2))

	item, err := store.GetItem(ctx, "local-items", key, false)
	if err != nil || item != nil {
		t.Fatalf("expected no item and no error, got %v, %v", item, err)
	}

	if err := store.SeedItem(ctx, "local-items", NewItem(WithS("pk", "p"), WithN("sk", 2), WithBool("ok", true))); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	item, err = store.GetItem(ctx, "local-items", key, false)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if v, ok := item["ok"].(*types.AttributeValueMemberBOOL); !ok || !v.Value {
		t.Errorf("expected ok true, got %v", item["ok"])
	}

	// Deleting under a different range key leaves the item alone
	if err := store.DeleteItem(ctx, "local-items", NewItem(WithS("pk", "p"), WithN("sk", 3))); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if item, _ := store.GetItem(ctx, "local-items", key, false); item == nil {
		t.Error("expected item to survive")
	}

	if err := store.DeleteItem(ctx, "local-items", key); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if item, _ := store.GetItem(ctx, "local-items", key, false); item != nil {
		t.Errorf("expected item to be deleted, got %v", item)
	}

	if !ddbmapper.IsResourceNotFound(store.DeleteItem(ctx, "missing", key)) {
		t.Error("expected resource not found for a missing table")
	}
	if _, err := store.GetItem(ctx, "missing", key, false); !ddbmapper.IsResourceNotFound(err) {
		t.Error("expected resource not found for a missing table")
	}
}

func TestMemoryStore_WithMapper(t *testing.T) {
	ctx := context.Background()
	store := NewTestMemoryStore(t, MustDescribe(t, memoryItem{}))
	mapper := ddbmapper.New(store)

	if err := mapper.Save(ctx, &memoryItem{ID: "m1", Total: 3, Tags: []string{"a"}}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded := &memoryItem{ID: "m1"}
	if err := mapper.Load(ctx, loaded); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if loaded.Total != 3 || len(loaded.Tags) != 1 || loaded.Tags[0] != "a" {
		t.Errorf("unexpected item %+v", loaded)
	}
}
