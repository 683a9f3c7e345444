package ddbmapper

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrItemNotFound is returned by Load when no item is stored under the key.
	ErrItemNotFound = errors.New("item not found")

	// ErrNotMapped is returned when a type cannot be described as a mapped type.
	ErrNotMapped = errors.New("type is not mapped")
)

// MissingRequiredKeyError is returned before any request is sent when a key
// attribute has no value and is not auto-generated.
type MissingRequiredKeyError struct {
	Type      reflect.Type
	Attribute string
}

func (e *MissingRequiredKeyError) Error() string {
	return fmt.Sprintf("%s: missing value for key attribute %q", e.Type, e.Attribute)
}

// UnsupportedAttributeTypeError is returned when a field cannot be converted to
// a DynamoDB attribute.
type UnsupportedAttributeTypeError struct {
	Type  reflect.Type // The mapped type
	Field string       // The offending field, when known
	Err   error        // The underlying codec error, when any
}

func (e *UnsupportedAttributeTypeError) Error() string {
	msg := fmt.Sprintf("%s: unsupported attribute type", e.Type)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: unsupported attribute type for field %s", e.Type, e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnsupportedAttributeTypeError) Unwrap() error { return e.Err }

// DuplicateKeyError is returned by Save when an item was written with a freshly
// generated key and the store already holds an item under that key.
type DuplicateKeyError struct {
	Table string
	Key   Item
	Err   error // The ConditionalCheckFailedException reported by the store
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("table %s: item with generated key %v already exists", e.Table, describeKey(e.Key))
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// OperationError wraps an error returned by the store with the operation and
// the resolved table name, so a missing table can be told apart from a missing item.
type OperationError struct {
	Op    string // "save", "load" or "delete"
	Table string // Resolved table name
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s on table %s: %v", e.Op, e.Table, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsResourceNotFound reports whether err is caused by a table that does not exist.
func IsResourceNotFound(err error) bool {
	var rnf *types.ResourceNotFoundException
	return errors.As(err, &rnf)
}

// IsConditionalCheckFailed reports whether err is caused by a failed write condition.
func IsConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// IsThrottling reports whether err is a throttling or capacity error returned by
// the service. Retrying these is left to the SDK retryer.
func IsThrottling(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "ProvisionedThroughputExceededException", "RequestLimitExceeded":
		return true
	}
	return false
}

// describeKey renders a key as name=value pairs for error messages.
func describeKey(key Item) map[string]string {
	out := make(map[string]string, len(key))
	for name, av := range key {
		out[name] = scalarString(av)
	}
	return out
}
