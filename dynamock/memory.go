package dynamock

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/gob"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/nisimpson/ddbmapper"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

func init() {
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberBS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// TableSchema is the key schema of a MemoryStore table.
type TableSchema struct {
	Name     string
	HashKey  string
	RangeKey string // Empty for hash-only tables
}

// MemoryStore is an in-memory ddbmapper.StoreClient backed by an in-memory
// leveldb instance. Tables must be created before use; requests against a
// missing table fail with *types.ResourceNotFoundException and failed write
// conditions with *types.ConditionalCheckFailedException, as DynamoDB does.
type MemoryStore struct {
	mu     sync.Mutex
	db     *leveldb.DB
	tables map[string]TableSchema
}

// Ensure MemoryStore implements ddbmapper.StoreClient
var _ ddbmapper.StoreClient = (*MemoryStore)(nil)

// NewMemoryStore opens an empty store.
func NewMemoryStore() (*MemoryStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}
	return &MemoryStore{
		db:     db,
		tables: make(map[string]TableSchema),
	}, nil
}

// Close releases the underlying database.
func (s *MemoryStore) Close() error {
	return s.db.Close()
}

// CreateTable adds a table with the given schema.
func (s *MemoryStore) CreateTable(schema TableSchema) error {
	if schema.Name == "" || schema.HashKey == "" {
		return validationError("table name and hash key are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[schema.Name]; ok {
		return &types.ResourceInUseException{Message: aws.String("Table already exists: " + schema.Name)}
	}
	s.tables[schema.Name] = schema
	return nil
}

// CreateTableFor adds a table named name whose key schema matches desc.
func (s *MemoryStore) CreateTableFor(name string, desc *ddbmapper.Descriptor) error {
	return s.CreateTable(SchemaFor(name, desc))
}

// SchemaFor returns the key schema of a table holding items described by desc.
func SchemaFor(name string, desc *ddbmapper.Descriptor) TableSchema {
	schema := TableSchema{Name: name}
	for _, k := range desc.Keys() {
		if k.KeyType == types.KeyTypeHash {
			schema.HashKey = k.Name
		} else {
			schema.RangeKey = k.Name
		}
	}
	return schema
}

// DeleteTable removes a table and every item it holds.
func (s *MemoryStore) DeleteTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return tableNotFound(name)
	}

	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix(tablePrefix(name)), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("failed to scan table %s: %w", name, err)
	}

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", name, err)
	}
	delete(s.tables, name)
	return nil
}

// Tables returns the names of all tables, sorted.
func (s *MemoryStore) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items returns every item stored in table, ordered by key.
func (s *MemoryStore) Items(table string) ([]ddbmapper.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table]; !ok {
		return nil, tableNotFound(table)
	}

	var items []ddbmapper.Item
	iter := s.db.NewIterator(util.BytesPrefix(tablePrefix(table)), nil)
	defer iter.Release()
	for iter.Next() {
		item, err := decodeItem(iter.Value())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, iter.Error()
}

// PutItem applies plan to the stored item. Clobber plans replace the item; other
// plans merge writes, remove deletes and union appended sets.
func (s *MemoryStore) PutItem(ctx context.Context, table string, plan *ddbmapper.WritePlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schema, ok := s.tables[table]
	if !ok {
		return tableNotFound(table)
	}

	dbKey, err := schema.encodeKey(plan.Key)
	if err != nil {
		return err
	}

	existing, err := s.get(dbKey)
	if err != nil {
		return err
	}

	if plan.Condition == ddbmapper.ConditionKeyMustNotExist && existing != nil {
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	var item ddbmapper.Item
	if plan.Behavior == ddbmapper.Clobber || existing == nil {
		item = plan.Item()
	} else {
		item = existing
		for name, av := range plan.Writes {
			item[name] = av
		}
		for _, name := range plan.Deletes {
			delete(item, name)
		}
		for name, av := range plan.Appends {
			merged, err := unionSet(item[name], av)
			if err != nil {
				return err
			}
			item[name] = merged
		}
	}
	for name, av := range plan.Key {
		item[name] = av
	}

	value, err := encodeItem(item)
	if err != nil {
		return err
	}
	return s.db.Put(dbKey, value, nil)
}

// GetItem returns the item stored under key, or nil when there is none.
func (s *MemoryStore) GetItem(ctx context.Context, table string, key ddbmapper.Item, consistent bool) (ddbmapper.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schema, ok := s.tables[table]
	if !ok {
		return nil, tableNotFound(table)
	}

	dbKey, err := schema.encodeKey(key)
	if err != nil {
		return nil, err
	}
	return s.get(dbKey)
}

// DeleteItem removes the item stored under key, if any.
func (s *MemoryStore) DeleteItem(ctx context.Context, table string, key ddbmapper.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schema, ok := s.tables[table]
	if !ok {
		return tableNotFound(table)
	}

	dbKey, err := schema.encodeKey(key)
	if err != nil {
		return err
	}
	return s.db.Delete(dbKey, nil)
}

// get must be called with s.mu held.
func (s *MemoryStore) get(dbKey []byte) (ddbmapper.Item, error) {
	value, err := s.db.Get(dbKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read item: %w", err)
	}
	return decodeItem(value)
}

func tablePrefix(table string) []byte {
	return []byte(table + "\x00")
}

// encodeKey builds the leveldb key table\x00hash\x00range for an item key.
func (t TableSchema) encodeKey(key ddbmapper.Item) ([]byte, error) {
	hash, err := keyComponent(key, t.HashKey)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(tablePrefix(t.Name))
	buf.WriteString(hash)

	if t.RangeKey != "" {
		rng, err := keyComponent(key, t.RangeKey)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(0)
		buf.WriteString(rng)
	}
	return buf.Bytes(), nil
}

func keyComponent(key ddbmapper.Item, name string) (string, error) {
	switch v := key[name].(type) {
	case *types.AttributeValueMemberS:
		return "S" + v.Value, nil
	case *types.AttributeValueMemberN:
		return "N" + v.Value, nil
	case *types.AttributeValueMemberB:
		return "B" + base64.StdEncoding.EncodeToString(v.Value), nil
	case nil:
		return "", validationError(fmt.Sprintf("missing key attribute %q", name))
	default:
		return "", validationError(fmt.Sprintf("key attribute %q must be a string, number or binary", name))
	}
}

// unionSet merges an appended set into the stored value of the same set type.
func unionSet(stored, appended types.AttributeValue) (types.AttributeValue, error) {
	if stored == nil {
		return appended, nil
	}

	switch a := appended.(type) {
	case *types.AttributeValueMemberSS:
		if s, ok := stored.(*types.AttributeValueMemberSS); ok {
			return &types.AttributeValueMemberSS{Value: unionStrings(s.Value, a.Value)}, nil
		}
	case *types.AttributeValueMemberNS:
		if s, ok := stored.(*types.AttributeValueMemberNS); ok {
			return &types.AttributeValueMemberNS{Value: unionStrings(s.Value, a.Value)}, nil
		}
	case *types.AttributeValueMemberBS:
		if s, ok := stored.(*types.AttributeValueMemberBS); ok {
			seen := make(map[string]bool, len(s.Value))
			out := make([][]byte, 0, len(s.Value)+len(a.Value))
			for _, b := range append(append([][]byte(nil), s.Value...), a.Value...) {
				if !seen[string(b)] {
					seen[string(b)] = true
					out = append(out, b)
				}
			}
			return &types.AttributeValueMemberBS{Value: out}, nil
		}
	}
	return nil, validationError("An operand in the update expression has an incorrect data type")
}

func unionStrings(stored, appended []string) []string {
	seen := make(map[string]bool, len(stored)+len(appended))
	out := make([]string, 0, len(stored)+len(appended))
	for _, v := range append(append([]string(nil), stored...), appended...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func encodeItem(item ddbmapper.Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(item); err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeItem(data []byte) (ddbmapper.Item, error) {
	var item map[string]types.AttributeValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	if item == nil {
		item = ddbmapper.Item{}
	}
	return item, nil
}

func tableNotFound(table string) error {
	return &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + table + " not found")}
}

func validationError(msg string) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: msg, Fault: smithy.FaultClient}
}
