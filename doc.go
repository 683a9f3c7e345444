// Package ddbmapper maps Go structs to DynamoDB items and persists them with a
// configurable save behavior.
//
// Mapped types declare their table through the TableNamer interface and mark
// their key attributes with the mapper struct tag. Attribute names follow the
// dynamodbav tag of the attributevalue package.
//
// # Basic Usage
//
//	type Order struct {
//	    ID    string   `dynamodbav:"id" mapper:"hash,autogenerated"`
//	    Total int      `dynamodbav:"total"`
//	    Tags  []string `dynamodbav:"tags,stringset"`
//	}
//
//	func (Order) TableName() string { return "orders" }
//
//	client, err := ddbmapper.NewDynamoDBClient(ctx)
//	mapper := ddbmapper.New(ddbmapper.NewDynamoDBStore(client))
//
//	order := &Order{Total: 12}
//	err = mapper.Save(ctx, order) // order.ID now holds a generated key
//
//	loaded := &Order{ID: order.ID}
//	err = mapper.Load(ctx, loaded, ddbmapper.WithConsistentReads(true))
//
// # Configuration
//
// Each operation resolves its configuration from three levels: the library
// defaults, the mapper-level Config passed to New and the per-call options. A
// field set at a stronger level wins; nothing is mutated along the way.
//
//	mapper := ddbmapper.New(store, func(o *ddbmapper.Options) {
//	    o.Config = ddbmapper.NewConfig(ddbmapper.WithSaveBehavior(ddbmapper.Clobber))
//	})
//
//	// Per-call UPDATE keeps attributes the struct does not map.
//	err = mapper.Save(ctx, order, ddbmapper.WithSaveBehavior(ddbmapper.Update))
//
//	// Operations in a staging environment target "staging-orders".
//	err = mapper.Save(ctx, order, ddbmapper.WithTablePrefix("staging-"))
//
// # Save Behaviors
//
//   - Update writes non-null attributes and removes the ones that are null.
//   - UpdateSkipNullAttributes writes non-null attributes and never removes any.
//   - Clobber replaces the stored item, dropping attributes the struct does not map.
//   - AppendSet is UpdateSkipNullAttributes with set attributes merged into the stored sets.
//
// PlanSave exposes the write each behavior produces without performing it.
//
// # Errors
//
// Store errors are wrapped in *OperationError, which names the resolved table;
// use errors.As or IsResourceNotFound to tell a missing table from a missing item
// (ErrItemNotFound).
package ddbmapper
