package dynamock

import (
	"bytes"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestNewItem(t *testing.T) {
	item := NewItem(
		WithS("id", "o1"),
		WithN("total", 12),
		WithB("blob", []byte{1, 2}),
		WithBool("paid", true),
		WithNull("note"),
		WithSS("tags", "new", "gift"),
		WithNS("scores", 3, 4),
		WithValue("meta", map[string]string{"source": "web"}),
	)

	if len(item) != 8 {
		t.Fatalf("expected 8 attributes, got %d", len(item))
	}

	if v := item["id"].(*types.AttributeValueMemberS).Value; v != "o1" {
		t.Errorf("expected id o1, got %s", v)
	}
	if v := item["total"].(*types.AttributeValueMemberN).Value; v != "12" {
		t.Errorf("expected total 12, got %s", v)
	}
	if v := item["blob"].(*types.AttributeValueMemberB).Value; !bytes.Equal(v, []byte{1, 2}) {
		t.Errorf("unexpected blob %v", v)
	}
	if v := item["paid"].(*types.AttributeValueMemberBOOL).Value; !v {
		t.Error("expected paid to be true")
	}
	if _, ok := item["note"].(*types.AttributeValueMemberNULL); !ok {
		t.Errorf("expected note to be NULL, got %T", item["note"])
	}
	if v := item["tags"].(*types.AttributeValueMemberSS).Value; len(v) != 2 {
		t.Errorf("unexpected tags %v", v)
	}
	if v := item["scores"].(*types.AttributeValueMemberNS).Value; len(v) != 2 || v[0] != "3" || v[1] != "4" {
		t.Errorf("unexpected scores %v", v)
	}

	meta, ok := item["meta"].(*types.AttributeValueMemberM)
	if !ok {
		t.Fatalf("expected meta to be a map, got %T", item["meta"])
	}
	if v := meta.Value["source"].(*types.AttributeValueMemberS).Value; v != "web" {
		t.Errorf("expected source web, got %s", v)
	}
}

func TestWithValue_Panics(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"chan", make(chan int)},
		{"func", func() {}},
		{"complex", complex(1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected WithValue to panic for a %s value", tt.name)
				}
			}()

			WithValue("events", tt.value)
		})
	}
}

func TestWithValue_Null(t *testing.T) {
	item := NewItem(WithValue("note", nil))

	if _, ok := item["note"].(*types.AttributeValueMemberNULL); !ok {
		t.Errorf("expected a NULL attribute, got %T", item["note"])
	}
}

func TestNewItem_LaterOptionsWin(t *testing.T) {
	item := NewItem(WithS("id", "a"), WithS("id", "b"))

	if v := item["id"].(*types.AttributeValueMemberS).Value; v != "b" {
		t.Errorf("expected id b, got %s", v)
	}
}
