package ddbmapper

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// StoreClient performs single-item requests against a key-value store. Errors are
// returned unchanged so callers can inspect the store's own error types.
type StoreClient interface {
	// PutItem applies plan to the item stored under plan.Key in table.
	PutItem(ctx context.Context, table string, plan *WritePlan) error
	// GetItem returns the item stored under key, or a nil item when there is none.
	GetItem(ctx context.Context, table string, key Item, consistent bool) (Item, error)
	// DeleteItem removes the item stored under key. Deleting a missing item is not an error.
	DeleteItem(ctx context.Context, table string, key Item) error
}

// DynamoDBClient is the subset of the dynamodb client used by DynamoDBStore.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBStore is a StoreClient backed by DynamoDB.
type DynamoDBStore struct {
	client DynamoDBClient
}

// NewDynamoDBStore returns a StoreClient that sends requests through client.
func NewDynamoDBStore(client DynamoDBClient) *DynamoDBStore {
	return &DynamoDBStore{client: client}
}

// PutItem replaces the stored item for Clobber plans and updates it in place otherwise.
func (s *DynamoDBStore) PutItem(ctx context.Context, table string, plan *WritePlan) error {
	if plan.Behavior == Clobber {
		input, err := plan.MarshalPut(table)
		if err != nil {
			return err
		}
		_, err = s.client.PutItem(ctx, input)
		return err
	}

	input, err := plan.MarshalUpdate(table)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, input)
	return err
}

// GetItem implements StoreClient.
func (s *DynamoDBStore) GetItem(ctx context.Context, table string, key Item, consistent bool) (Item, error) {
	out, err := s.client.GetItem(ctx, MarshalGet(table, key, consistent))
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// DeleteItem implements StoreClient.
func (s *DynamoDBStore) DeleteItem(ctx context.Context, table string, key Item) error {
	_, err := s.client.DeleteItem(ctx, MarshalDelete(table, key))
	return err
}

// MarshalPut marshals the plan into a put item request that replaces the stored
// item with the plan's writes and appends.
func (p *WritePlan) MarshalPut(table string) (*dynamodb.PutItemInput, error) {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      p.Item(),
	}

	cond, ok := p.condition()
	if !ok {
		return input, nil
	}

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build condition: %w", err)
	}
	input.ConditionExpression = expr.Condition()
	input.ExpressionAttributeNames = expr.Names()
	return input, nil
}

// MarshalUpdate marshals the plan into an update item request: non-key writes
// become SET actions, deletes become REMOVE actions and appends become ADD actions.
func (p *WritePlan) MarshalUpdate(table string) (*dynamodb.UpdateItemInput, error) {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key:       p.Key,
	}

	builder := expression.NewBuilder()
	empty := true

	if update, ok := p.update(); ok {
		builder = builder.WithUpdate(update)
		empty = false
	}
	if cond, ok := p.condition(); ok {
		builder = builder.WithCondition(cond)
		empty = false
	}
	if empty {
		return input, nil
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}
	input.UpdateExpression = expr.Update()
	input.ConditionExpression = expr.Condition()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return input, nil
}

// update builds the update actions for the plan. It reports false when the plan
// only touches key attributes.
func (p *WritePlan) update() (expression.UpdateBuilder, bool) {
	var update expression.UpdateBuilder
	ok := false

	for _, name := range sortedNames(p.Writes) {
		if _, isKey := p.Key[name]; isKey {
			continue
		}
		update = update.Set(expression.NameNoDotSplit(name), expression.Value(p.Writes[name]))
		ok = true
	}
	for _, name := range p.Deletes {
		update = update.Remove(expression.NameNoDotSplit(name))
		ok = true
	}
	for _, name := range sortedNames(p.Appends) {
		update = update.Add(expression.NameNoDotSplit(name), expression.Value(p.Appends[name]))
		ok = true
	}
	return update, ok
}

// condition builds the write condition for the plan, if it has one.
func (p *WritePlan) condition() (expression.ConditionBuilder, bool) {
	if p.Condition != ConditionKeyMustNotExist || len(p.Key) == 0 {
		return expression.ConditionBuilder{}, false
	}

	var cond expression.ConditionBuilder
	for i, name := range sortedNames(p.Key) {
		notExists := expression.NameNoDotSplit(name).AttributeNotExists()
		if i == 0 {
			cond = notExists
		} else {
			cond = cond.And(notExists)
		}
	}
	return cond, true
}

// MarshalGet builds a get item request for key.
func MarshalGet(table string, key Item, consistent bool) *dynamodb.GetItemInput {
	return &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(consistent),
	}
}

// MarshalDelete builds a delete item request for key.
func MarshalDelete(table string, key Item) *dynamodb.DeleteItemInput {
	return &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	}
}
