package dynamock

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/ddbmapper"
)

// ItemOption is a functional option for building items.
type ItemOption func(ddbmapper.Item)

// NewItem builds an item from the given options.
//
//	item := dynamock.NewItem(
//		dynamock.WithS("id", "o1"),
//		dynamock.WithN("total", 12),
//		dynamock.WithSS("tags", "new", "gift"),
//	)
func NewItem(opts ...ItemOption) ddbmapper.Item {
	item := ddbmapper.Item{}
	for _, opt := range opts {
		opt(item)
	}
	return item
}

// WithAttr sets name to av.
func WithAttr(name string, av types.AttributeValue) ItemOption {
	return func(item ddbmapper.Item) {
		item[name] = av
	}
}

// WithS sets a string attribute.
func WithS(name, value string) ItemOption {
	return WithAttr(name, &types.AttributeValueMemberS{Value: value})
}

// WithN sets a number attribute from an integer.
func WithN(name string, value int64) ItemOption {
	return WithAttr(name, &types.AttributeValueMemberN{Value: strconv.FormatInt(value, 10)})
}

// WithB sets a binary attribute.
func WithB(name string, value []byte) ItemOption {
	return WithAttr(name, &types.AttributeValueMemberB{Value: value})
}

// WithBool sets a boolean attribute.
func WithBool(name string, value bool) ItemOption {
	return WithAttr(name, &types.AttributeValueMemberBOOL{Value: value})
}

// WithNull sets a NULL attribute.
func WithNull(name string) ItemOption {
	return WithAttr(name, &types.AttributeValueMemberNULL{Value: true})
}

// WithSS sets a string set attribute.
func WithSS(name string, values ...string) ItemOption {
	return WithAttr(name, &types.AttributeValueMemberSS{Value: values})
}

// WithNS sets a number set attribute.
func WithNS(name string, values ...int64) ItemOption {
	ns := make([]string, len(values))
	for i, v := range values {
		ns[i] = strconv.FormatInt(v, 10)
	}
	return WithAttr(name, &types.AttributeValueMemberNS{Value: ns})
}

// WithValue sets name to the attributevalue encoding of v. It panics if v
// cannot be encoded or encodes to no attribute value, as chans and funcs do.
func WithValue(name string, v any) ItemOption {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("dynamock: cannot encode %s: %v", name, err))
	}
	if av == nil {
		panic(fmt.Sprintf("dynamock: %s (%T) encodes to no attribute value", name, v))
	}
	return WithAttr(name, av)
}
