package ddbmapper

import "testing"

type ordersTable struct {
	ID string `dynamodbav:"id" mapper:"hash"`
}

func (ordersTable) TableName() string { return "orders" }

func TestResolveTableName(t *testing.T) {
	desc := mustDescribe(t, ordersTable{})

	tests := []struct {
		name     string
		opts     []func(*Config)
		expected string
	}{
		{"no override", nil, "orders"},
		{"exact name", []func(*Config){WithTableName("java-sdk-util-crypto")}, "java-sdk-util-crypto"},
		{"prefix", []func(*Config){WithTablePrefix("staging-")}, "staging-orders"},
		{"empty prefix", []func(*Config){WithTablePrefix("")}, "orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override := NewConfig(tt.opts...)
			got := ResolveTableName(desc, Resolve(Config{}, &override))
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestResolveTableName_LeavesDescriptorUnchanged(t *testing.T) {
	desc := mustDescribe(t, ordersTable{})

	staging := Resolve(NewConfig(WithTablePrefix("staging-")), nil)
	if got := ResolveTableName(desc, staging); got != "staging-orders" {
		t.Fatalf("expected staging-orders, got %s", got)
	}

	if desc.TableName() != "orders" {
		t.Errorf("descriptor table changed to %s", desc.TableName())
	}
	if got := ResolveTableName(desc, Resolve(Config{}, nil)); got != "orders" {
		t.Errorf("expected orders without override, got %s", got)
	}
}
