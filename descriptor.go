package ddbmapper

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TagKey is the struct tag that marks key attributes:
//
//	type Order struct {
//	    ID    string `dynamodbav:"id" mapper:"hash,autogenerated"`
//	    Line  int    `dynamodbav:"line" mapper:"range"`
//	    Total int    `dynamodbav:"total"`
//	}
//
// Attribute names follow the dynamodbav tag, as in the attributevalue package.
const TagKey = "mapper"

const (
	tagHash          = "hash"
	tagRange         = "range"
	tagAutoGenerated = "autogenerated"
)

// TableNamer is implemented by mapped types to declare their table. The method
// is called on a zero value, so it must not depend on the receiver's fields.
type TableNamer interface {
	TableName() string
}

// KeyAttribute describes one key attribute of a mapped type.
type KeyAttribute struct {
	Name          string                    // Attribute name
	KeyType       types.KeyType             // HASH or RANGE
	AttributeType types.ScalarAttributeType // S, N or B
	AutoGenerated bool                      // Value may be generated when absent

	index []int
}

// Descriptor is the mapping metadata of a Go struct type: its declared table,
// its key attributes and the attributes it persists. Descriptors are immutable
// and shared; obtain them with [Describe] or [DescribeType].
type Descriptor struct {
	typ        reflect.Type
	tableName  string
	keys       []KeyAttribute
	attributes []string
}

// descriptors caches *Descriptor values by struct type.
var descriptors sync.Map

// Describe returns the descriptor for the dynamic type of v, which may be a
// struct or a pointer to one.
func Describe(v any) (*Descriptor, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("%w: nil value", ErrNotMapped)
	}
	return DescribeType(t)
}

// DescribeType returns the descriptor for t, building and caching it on first use.
// Concurrent first calls may each build a descriptor; all callers receive the
// one that was stored first.
func DescribeType(t reflect.Type) (*Descriptor, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if cached, ok := descriptors.Load(t); ok {
		return cached.(*Descriptor), nil
	}

	desc, err := buildDescriptor(t)
	if err != nil {
		return nil, err
	}

	actual, _ := descriptors.LoadOrStore(t, desc)
	return actual.(*Descriptor), nil
}

func buildDescriptor(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrNotMapped, t)
	}

	namer, ok := reflect.New(t).Interface().(TableNamer)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not implement TableNamer", ErrNotMapped, t)
	}

	desc := &Descriptor{
		typ:       t,
		tableName: namer.TableName(),
	}
	if desc.tableName == "" {
		return nil, fmt.Errorf("%w: %s declares an empty table name", ErrNotMapped, t)
	}

	if err := desc.collect(t, nil, false, make(map[string]bool)); err != nil {
		return nil, err
	}

	if err := desc.validateKeys(); err != nil {
		return nil, err
	}

	return desc, nil
}

// collect walks the fields of t, flattening embedded structs the same way the
// attributevalue encoder does. Shallower fields win over embedded ones.
func (d *Descriptor) collect(t reflect.Type, index []int, viaPointer bool, seen map[string]bool) error {
	type embeddedField struct {
		typ        reflect.Type
		index      []int
		viaPointer bool
	}
	var embedded []embeddedField

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldIndex := append(append([]int(nil), index...), i)

		name, _, _ := strings.Cut(field.Tag.Get("dynamodbav"), ",")
		if name == "-" {
			continue
		}

		if field.Anonymous && name == "" {
			ft, ptr := field.Type, false
			if ft.Kind() == reflect.Pointer {
				ft, ptr = ft.Elem(), true
			}
			if ft.Kind() == reflect.Struct {
				embedded = append(embedded, embeddedField{ft, fieldIndex, viaPointer || ptr})
				continue
			}
		}

		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		if err := checkKind(field.Type, 0); err != nil {
			return &UnsupportedAttributeTypeError{Type: d.typ, Field: field.Name, Err: err}
		}
		d.attributes = append(d.attributes, name)

		if err := d.collectKey(field, name, fieldIndex, viaPointer); err != nil {
			return err
		}
	}

	for _, e := range embedded {
		if err := d.collect(e.typ, e.index, e.viaPointer, seen); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) collectKey(field reflect.StructField, name string, index []int, viaPointer bool) error {
	tag, ok := field.Tag.Lookup(TagKey)
	if !ok {
		return nil
	}

	parts := strings.Split(tag, ",")
	key := KeyAttribute{Name: name, index: index}

	switch parts[0] {
	case tagHash:
		key.KeyType = types.KeyTypeHash
	case tagRange:
		key.KeyType = types.KeyTypeRange
	default:
		return fmt.Errorf("%w: %s field %s: unknown key kind %q", ErrNotMapped, d.typ, field.Name, parts[0])
	}

	for _, opt := range parts[1:] {
		if opt != tagAutoGenerated {
			return fmt.Errorf("%w: %s field %s: unknown key option %q", ErrNotMapped, d.typ, field.Name, opt)
		}
		key.AutoGenerated = true
	}

	if viaPointer {
		return fmt.Errorf("%w: %s field %s: key attributes cannot live in an embedded pointer", ErrNotMapped, d.typ, field.Name)
	}

	attrType, ok := scalarType(field.Type)
	if !ok {
		return fmt.Errorf("%w: %s field %s: key type %s is not a string, number or binary", ErrNotMapped, d.typ, field.Name, field.Type)
	}
	key.AttributeType = attrType

	if key.AutoGenerated && field.Type.Kind() != reflect.String {
		return fmt.Errorf("%w: %s field %s: auto-generated keys must be strings", ErrNotMapped, d.typ, field.Name)
	}

	d.keys = append(d.keys, key)
	return nil
}

func (d *Descriptor) validateKeys() error {
	var hashKeys, rangeKeys int
	for _, k := range d.keys {
		if k.KeyType == types.KeyTypeHash {
			hashKeys++
		} else {
			rangeKeys++
		}
	}
	if hashKeys != 1 {
		return fmt.Errorf("%w: %s must declare exactly one hash key, found %d", ErrNotMapped, d.typ, hashKeys)
	}
	if rangeKeys > 1 {
		return fmt.Errorf("%w: %s declares %d range keys", ErrNotMapped, d.typ, rangeKeys)
	}
	// hash key first
	if d.keys[0].KeyType != types.KeyTypeHash {
		d.keys[0], d.keys[1] = d.keys[1], d.keys[0]
	}
	return nil
}

// checkKind rejects kinds the attribute codec cannot represent.
func checkKind(t reflect.Type, depth int) error {
	if depth > 8 {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Errorf("kind %s cannot be stored", t.Kind())
	case reflect.Slice, reflect.Array, reflect.Map:
		return checkKind(t.Elem(), depth+1)
	case reflect.Struct:
		if reflect.PointerTo(t).Implements(marshalerType) {
			return nil
		}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || field.Tag.Get("dynamodbav") == "-" {
				continue
			}
			if err := checkKind(field.Type, depth+1); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

var marshalerType = reflect.TypeOf((*attributevalue.Marshaler)(nil)).Elem()

func scalarType(t reflect.Type) (types.ScalarAttributeType, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return types.ScalarAttributeTypeS, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return types.ScalarAttributeTypeN, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return types.ScalarAttributeTypeB, true
		}
	}
	return "", false
}

// Type returns the described struct type.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// TableName returns the table name declared by the type.
func (d *Descriptor) TableName() string { return d.tableName }

// Keys returns the key attributes, hash key first.
func (d *Descriptor) Keys() []KeyAttribute {
	return append([]KeyAttribute(nil), d.keys...)
}

// Attributes returns the names of every persisted attribute, keys included.
func (d *Descriptor) Attributes() []string {
	return append([]string(nil), d.attributes...)
}

// AutoGenerated reports whether any key attribute is auto-generated.
func (d *Descriptor) AutoGenerated() bool {
	for _, k := range d.keys {
		if k.AutoGenerated {
			return true
		}
	}
	return false
}

func (d *Descriptor) isKey(name string) bool {
	for _, k := range d.keys {
		if k.Name == name {
			return true
		}
	}
	return false
}

// Marshal converts v, a value or pointer of the described type, into an item.
func (d *Descriptor) Marshal(v any) (Item, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, fmt.Errorf("%w: nil %s", ErrNotMapped, rv.Type())
	}
	if t := reflect.Indirect(rv).Type(); t != d.typ {
		return nil, fmt.Errorf("descriptor for %s cannot marshal %s", d.typ, t)
	}

	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, &UnsupportedAttributeTypeError{Type: d.typ, Err: err}
	}
	return item, nil
}

// Unmarshal resets out, a pointer to the described type, to its zero value and
// fills it from item.
func (d *Descriptor) Unmarshal(item Item, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != d.typ {
		return fmt.Errorf("descriptor for %s cannot unmarshal into %T", d.typ, out)
	}

	rv.Elem().Set(reflect.Zero(d.typ))
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return nil
}

// Key extracts the key attributes from item. Every key attribute must have a
// value; otherwise a *MissingRequiredKeyError is returned.
func (d *Descriptor) Key(item Item) (Item, error) {
	key := make(Item, len(d.keys))
	for _, k := range d.keys {
		av, ok := item[k.Name]
		if !ok || isEmptyKey(av) {
			return nil, &MissingRequiredKeyError{Type: d.typ, Attribute: k.Name}
		}
		key[k.Name] = av
	}
	return key, nil
}

// setKeyString stores a generated key value into the field behind attribute name.
// v must be an addressable value of the described type.
func (d *Descriptor) setKeyString(v reflect.Value, name, value string) error {
	for _, k := range d.keys {
		if k.Name != name {
			continue
		}
		field := v.FieldByIndex(k.index)
		if !field.CanSet() {
			return fmt.Errorf("%s: cannot set generated key %q; pass a pointer", d.typ, name)
		}
		field.SetString(value)
		return nil
	}
	return fmt.Errorf("%s: %q is not a key attribute", d.typ, name)
}
