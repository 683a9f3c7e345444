package dynamock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/nisimpson/ddbmapper"
)

// SeedDocument maps table names to the items to store in them. Items are plain
// JSON objects; strings become S, numbers N, booleans BOOL, arrays L and
// objects M.
//
//	{
//	  "orders": [
//	    {"id": "o1", "total": 12},
//	    {"id": "o2", "total": 30, "note": "gift"}
//	  ]
//	}
type SeedDocument map[string][]map[string]any

// SeedFromJSON reads a SeedDocument from r and stores every item, replacing any
// item already stored under the same key. Every table must already exist.
// Returns the number of items stored.
func (s *MemoryStore) SeedFromJSON(ctx context.Context, r io.Reader) (int, error) {
	var document SeedDocument
	if err := json.NewDecoder(r).Decode(&document); err != nil {
		return 0, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	tables := make([]string, 0, len(document))
	for table := range document {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	count := 0
	for _, table := range tables {
		for i, raw := range document[table] {
			item, err := attributevalue.MarshalMap(raw)
			if err != nil {
				return count, fmt.Errorf("failed to convert %s item at index %d: %w", table, i, err)
			}
			if err := s.SeedItem(ctx, table, item); err != nil {
				return count, fmt.Errorf("failed to seed %s item at index %d: %w", table, i, err)
			}
			count++
		}
	}

	return count, nil
}

// SeedItem stores item in table, replacing any item stored under the same key.
func (s *MemoryStore) SeedItem(ctx context.Context, table string, item ddbmapper.Item) error {
	s.mu.Lock()
	schema, ok := s.tables[table]
	s.mu.Unlock()
	if !ok {
		return tableNotFound(table)
	}

	key := ddbmapper.Item{}
	for _, name := range []string{schema.HashKey, schema.RangeKey} {
		if name == "" {
			continue
		}
		av, ok := item[name]
		if !ok {
			return validationError(fmt.Sprintf("missing key attribute %q", name))
		}
		key[name] = av
	}

	return s.PutItem(ctx, table, &ddbmapper.WritePlan{
		Behavior: ddbmapper.Clobber,
		Key:      key,
		Writes:   item,
	})
}
