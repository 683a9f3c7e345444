package ddbmapper

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Options configures a Mapper.
type Options struct {
	// Config is the mapper-level configuration. Per-call options override it field by field.
	Config Config
	// Logger receives debug and warning records. Defaults to slog.Default().
	Logger *slog.Logger
	// GenerateKey produces values for auto-generated keys. Defaults to uuid.NewString.
	GenerateKey func() string
}

// Mapper saves, loads and deletes Go structs as DynamoDB items. A Mapper holds
// no per-operation state and is safe for concurrent use.
type Mapper struct {
	store       StoreClient
	config      Config
	logger      *slog.Logger
	generateKey func() string
}

// New returns a Mapper that sends requests to store.
func New(store StoreClient, optFns ...func(*Options)) *Mapper {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.GenerateKey == nil {
		opts.GenerateKey = uuid.NewString
	}

	return &Mapper{
		store:       store,
		config:      opts.Config,
		logger:      opts.Logger,
		generateKey: opts.GenerateKey,
	}
}

// Config returns the mapper-level configuration.
func (m *Mapper) Config() Config {
	return m.config
}

// Resolve returns the effective configuration for an operation called with optFns.
func (m *Mapper) Resolve(optFns ...func(*Config)) EffectiveConfig {
	if len(optFns) == 0 {
		return Resolve(m.config, nil)
	}
	override := NewConfig(optFns...)
	return Resolve(m.config, &override)
}

// TableName returns the table an operation on v called with optFns would target.
func (m *Mapper) TableName(v any, optFns ...func(*Config)) (string, error) {
	desc, err := Describe(v)
	if err != nil {
		return "", err
	}
	return ResolveTableName(desc, m.Resolve(optFns...)), nil
}

// Save writes v, a mapped struct, according to the effective save behavior.
//
// Absent auto-generated keys are generated and, once the write succeeds, stored
// back into v, which must then be a pointer. A write with a generated key that
// collides with a stored item fails with *DuplicateKeyError. An absent key that
// is not auto-generated fails with *MissingRequiredKeyError without contacting the store.
func (m *Mapper) Save(ctx context.Context, v any, optFns ...func(*Config)) error {
	desc, err := Describe(v)
	if err != nil {
		return err
	}

	eff := m.Resolve(optFns...)
	table := ResolveTableName(desc, eff)

	item, err := desc.Marshal(v)
	if err != nil {
		return err
	}

	plan, err := PlanSave(desc, nil, item, eff, func(o *PlanOptions) {
		o.GenerateKey = m.generateKey
	})
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(v)
	if len(plan.Generated) > 0 && rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%s: a pointer is required to store generated keys %v", desc.Type(), plan.Generated)
	}

	m.logger.DebugContext(ctx, "saving item",
		"table", table,
		"behavior", eff.SaveBehavior.String(),
		"condition", plan.Condition.String(),
		"deletes", len(plan.Deletes))

	if err := m.store.PutItem(ctx, table, plan); err != nil {
		m.logger.WarnContext(ctx, "save failed", "table", table, "error", err)
		if plan.Condition == ConditionKeyMustNotExist && IsConditionalCheckFailed(err) {
			return &DuplicateKeyError{Table: table, Key: plan.Key, Err: err}
		}
		return &OperationError{Op: "save", Table: table, Err: err}
	}

	for _, name := range plan.Generated {
		value := plan.Key[name].(*types.AttributeValueMemberS).Value
		if err := desc.setKeyString(rv.Elem(), name, value); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the item whose key is held by out, a pointer to a mapped struct,
// and replaces the contents of out with it. Fields without a stored attribute are
// left at their zero value. A missing item yields an error matching ErrItemNotFound.
func (m *Mapper) Load(ctx context.Context, out any, optFns ...func(*Config)) error {
	desc, err := Describe(out)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%s: load requires a non-nil pointer", desc.Type())
	}

	eff := m.Resolve(optFns...)
	table := ResolveTableName(desc, eff)

	key, err := m.key(desc, out)
	if err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "loading item", "table", table, "consistent", eff.ConsistentReads)

	item, err := m.store.GetItem(ctx, table, key, eff.ConsistentReads)
	if err != nil {
		m.logger.WarnContext(ctx, "load failed", "table", table, "error", err)
		return &OperationError{Op: "load", Table: table, Err: err}
	}
	if item == nil {
		return &OperationError{Op: "load", Table: table, Err: ErrItemNotFound}
	}

	return desc.Unmarshal(item, out)
}

// Delete removes the item whose key is held by v.
func (m *Mapper) Delete(ctx context.Context, v any, optFns ...func(*Config)) error {
	desc, err := Describe(v)
	if err != nil {
		return err
	}

	eff := m.Resolve(optFns...)
	table := ResolveTableName(desc, eff)

	key, err := m.key(desc, v)
	if err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "deleting item", "table", table)

	if err := m.store.DeleteItem(ctx, table, key); err != nil {
		m.logger.WarnContext(ctx, "delete failed", "table", table, "error", err)
		return &OperationError{Op: "delete", Table: table, Err: err}
	}
	return nil
}

func (m *Mapper) key(desc *Descriptor, v any) (Item, error) {
	item, err := desc.Marshal(v)
	if err != nil {
		return nil, err
	}
	return desc.Key(item)
}
