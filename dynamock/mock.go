package dynamock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/ddbmapper"
)

type DynamoDBAPICall[T, U any] = func(context.Context, *T, ...func(*dynamodb.Options)) (*U, error)

// MockClient is a simple expectation-based mock for the DynamoDB operations
// used by ddbmapper.DynamoDBStore. Unset expectations fail the test when called.
type MockClient struct {
	PutFunc    DynamoDBAPICall[dynamodb.PutItemInput, dynamodb.PutItemOutput]
	GetFunc    DynamoDBAPICall[dynamodb.GetItemInput, dynamodb.GetItemOutput]
	UpdateFunc DynamoDBAPICall[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput]
	DeleteFunc DynamoDBAPICall[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput]
}

// Ensure MockClient implements ddbmapper.DynamoDBClient
var _ ddbmapper.DynamoDBClient = (*MockClient)(nil)

// NewMockClient creates a mock whose operations all fail the test until an
// expectation is set.
func NewMockClient(t *testing.T) *MockClient {
	return &MockClient{
		PutFunc:    defaultFunc[dynamodb.PutItemInput, dynamodb.PutItemOutput](t, "PutItem"),
		GetFunc:    defaultFunc[dynamodb.GetItemInput, dynamodb.GetItemOutput](t, "GetItem"),
		UpdateFunc: defaultFunc[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput](t, "UpdateItem"),
		DeleteFunc: defaultFunc[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput](t, "DeleteItem"),
	}
}

func defaultFunc[T, U any](t *testing.T, op string) DynamoDBAPICall[T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*dynamodb.Options)) (*U, error) {
		t.Fatalf("unexpected call to %s", op)
		return nil, nil
	}
}

// PutItem calls PutFunc.
func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutFunc(ctx, params, optFns...)
}

// GetItem calls GetFunc.
func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetFunc(ctx, params, optFns...)
}

// UpdateItem calls UpdateFunc.
func (m *MockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return m.UpdateFunc(ctx, params, optFns...)
}

// DeleteItem calls DeleteFunc.
func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return m.DeleteFunc(ctx, params, optFns...)
}

// StoreFuncs is a ddbmapper.StoreClient built from funcs, for tests of code
// that sits above the store.
type StoreFuncs struct {
	PutFunc    func(ctx context.Context, table string, plan *ddbmapper.WritePlan) error
	GetFunc    func(ctx context.Context, table string, key ddbmapper.Item, consistent bool) (ddbmapper.Item, error)
	DeleteFunc func(ctx context.Context, table string, key ddbmapper.Item) error
}

// Ensure StoreFuncs implements ddbmapper.StoreClient
var _ ddbmapper.StoreClient = (*StoreFuncs)(nil)

// NewStoreFuncs creates a StoreFuncs whose operations all fail the test until
// an expectation is set.
func NewStoreFuncs(t *testing.T) *StoreFuncs {
	return &StoreFuncs{
		PutFunc: func(context.Context, string, *ddbmapper.WritePlan) error {
			t.Fatal("unexpected call to PutItem")
			return nil
		},
		GetFunc: func(context.Context, string, ddbmapper.Item, bool) (ddbmapper.Item, error) {
			t.Fatal("unexpected call to GetItem")
			return nil, nil
		},
		DeleteFunc: func(context.Context, string, ddbmapper.Item) error {
			t.Fatal("unexpected call to DeleteItem")
			return nil
		},
	}
}

// PutItem calls PutFunc.
func (s *StoreFuncs) PutItem(ctx context.Context, table string, plan *ddbmapper.WritePlan) error {
	return s.PutFunc(ctx, table, plan)
}

// GetItem calls GetFunc.
func (s *StoreFuncs) GetItem(ctx context.Context, table string, key ddbmapper.Item, consistent bool) (ddbmapper.Item, error) {
	return s.GetFunc(ctx, table, key, consistent)
}

// DeleteItem calls DeleteFunc.
func (s *StoreFuncs) DeleteItem(ctx context.Context, table string, key ddbmapper.Item) error {
	return s.DeleteFunc(ctx, table, key)
}
