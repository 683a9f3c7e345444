// Package dynamock provides testing utilities for the ddbmapper library.
//
// This package includes:
//   - Expectation-based mocks for the DynamoDB client and the store interface
//   - An in-memory store backed by leveldb, with DynamoDB-compatible errors
//   - Local DynamoDB integration utilities
//   - Item builders and JSON seeding helpers
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations:
//
//	mock := dynamock.NewMockClient(t)
//
//	mock.UpdateFunc = func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
//		// Verify the operation parameters
//		return &dynamodb.UpdateItemOutput{}, nil
//	}
//
//	mapper := ddbmapper.New(ddbmapper.NewDynamoDBStore(mock))
//
// # Memory Store
//
// MemoryStore implements ddbmapper.StoreClient without a network. Create the
// tables your test needs first; anything else behaves like a missing table:
//
//	store := dynamock.NewTestMemoryStore(t, dynamock.MustDescribe(t, Order{}))
//	mapper := ddbmapper.New(store)
//
// # Builders and Seeding
//
//	item := dynamock.NewItem(
//		dynamock.WithS("id", "o1"),
//		dynamock.WithN("total", 12),
//	)
//	err := store.SeedItem(ctx, "orders", item)
//
//	n, err := store.SeedFromJSON(ctx, strings.NewReader(`{"orders": [{"id": "o2"}]}`))
//
// # Local DynamoDB
//
//	dynamock.WithDefaultLocalDynamoDB(t, func(local *dynamock.LocalDynamoDB) {
//		dynamock.WithIsolatedTable(t, local, desc, func(tableName string) {
//			mapper := ddbmapper.New(local.Store())
//			// ... run tests against tableName
//		})
//	})
package dynamock
