// Package assert provides fluent assertion utilities for testing items and
// write plans produced by ddbmapper.
//
// # Usage
//
//	import "github.com/nisimpson/ddbmapper/dynamock/assert"
//
//	// Assert on a stored item
//	assert.Item(t, item).
//		HasAttribute("id", "o1").
//		HasSet("tags", "new", "gift").
//		Lacks("note")
//
//	// Assert on a write plan
//	assert.Plan(t, plan).
//		HasBehavior(ddbmapper.Update).
//		HasCondition(ddbmapper.ConditionNone).
//		Writes("total").
//		Deletes("note")
package assert

import (
	"reflect"
	"sort"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/ddbmapper"
)

// ItemsAssertion provides fluent assertions for a collection of items.
type ItemsAssertion struct {
	t     *testing.T
	items []ddbmapper.Item
}

// Items creates a new ItemsAssertion for the given items.
func Items(t *testing.T, items []ddbmapper.Item) *ItemsAssertion {
	return &ItemsAssertion{t: t, items: items}
}

// HasCount asserts that the collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	a.t.Helper()
	return a.HasCount(0)
}

// Contains asserts that at least one item has attribute name rendered as value.
func (a *ItemsAssertion) Contains(name, value string) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if got, ok := render(item[name]); ok && got == value {
			return a
		}
	}
	a.t.Errorf("expected an item with %s = %s", name, value)
	return a
}

// ItemAssertion provides fluent assertions for a single item.
type ItemAssertion struct {
	t    *testing.T
	item ddbmapper.Item
}

// Item creates a new ItemAssertion for the given item.
func Item(t *testing.T, item ddbmapper.Item) *ItemAssertion {
	return &ItemAssertion{t: t, item: item}
}

// HasAttribute asserts that the scalar attribute name renders as expected.
// Strings and numbers render as their value, booleans as "true" or "false".
func (a *ItemAssertion) HasAttribute(name, expected string) *ItemAssertion {
	a.t.Helper()
	av, exists := a.item[name]
	if !exists {
		a.t.Errorf("expected attribute %s to exist", name)
		return a
	}
	got, ok := render(av)
	if !ok {
		a.t.Errorf("attribute %s is a %T, not a scalar", name, av)
		return a
	}
	if got != expected {
		a.t.Errorf("expected attribute %s to be %s, got %s", name, expected, got)
	}
	return a
}

// Has asserts that attribute name exists.
func (a *ItemAssertion) Has(name string) *ItemAssertion {
	a.t.Helper()
	if _, ok := a.item[name]; !ok {
		a.t.Errorf("expected attribute %s to exist", name)
	}
	return a
}

// Lacks asserts that attribute name does not exist.
func (a *ItemAssertion) Lacks(name string) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.item[name]; ok {
		a.t.Errorf("expected attribute %s to be absent, got %v", name, av)
	}
	return a
}

// HasSet asserts that attribute name is a string or number set holding exactly
// the given members, in any order.
func (a *ItemAssertion) HasSet(name string, members ...string) *ItemAssertion {
	a.t.Helper()
	var got []string
	switch v := a.item[name].(type) {
	case *types.AttributeValueMemberSS:
		got = append(got, v.Value...)
	case *types.AttributeValueMemberNS:
		got = append(got, v.Value...)
	default:
		a.t.Errorf("expected attribute %s to be a string or number set, got %T", name, v)
		return a
	}

	want := append([]string(nil), members...)
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		a.t.Errorf("expected set %s to be %v, got %v", name, want, got)
	}
	return a
}

// HasCount asserts the number of attributes.
func (a *ItemAssertion) HasCount(expected int) *ItemAssertion {
	a.t.Helper()
	if len(a.item) != expected {
		a.t.Errorf("expected %d attributes, got %d", expected, len(a.item))
	}
	return a
}

// PlanAssertion provides fluent assertions for a write plan.
type PlanAssertion struct {
	t    *testing.T
	plan *ddbmapper.WritePlan
}

// Plan creates a new PlanAssertion. A nil plan fails the test immediately.
func Plan(t *testing.T, plan *ddbmapper.WritePlan) *PlanAssertion {
	t.Helper()
	if plan == nil {
		t.Fatal("expected a write plan, got nil")
	}
	return &PlanAssertion{t: t, plan: plan}
}

// HasBehavior asserts the plan's save behavior.
func (a *PlanAssertion) HasBehavior(expected ddbmapper.SaveBehavior) *PlanAssertion {
	a.t.Helper()
	if a.plan.Behavior != expected {
		a.t.Errorf("expected behavior %s, got %s", expected, a.plan.Behavior)
	}
	return a
}

// HasCondition asserts the plan's write condition.
func (a *PlanAssertion) HasCondition(expected ddbmapper.WriteCondition) *PlanAssertion {
	a.t.Helper()
	if a.plan.Condition != expected {
		a.t.Errorf("expected condition %s, got %s", expected, a.plan.Condition)
	}
	return a
}

// Writes asserts that every named attribute is written.
func (a *PlanAssertion) Writes(names ...string) *PlanAssertion {
	a.t.Helper()
	for _, name := range names {
		if _, ok := a.plan.Writes[name]; !ok {
			a.t.Errorf("expected attribute %s to be written", name)
		}
	}
	return a
}

// DoesNotWrite asserts that none of the named attributes is written.
func (a *PlanAssertion) DoesNotWrite(names ...string) *PlanAssertion {
	a.t.Helper()
	for _, name := range names {
		if _, ok := a.plan.Writes[name]; ok {
			a.t.Errorf("expected attribute %s not to be written", name)
		}
	}
	return a
}

// Deletes asserts that the plan deletes exactly the named attributes.
func (a *PlanAssertion) Deletes(names ...string) *PlanAssertion {
	a.t.Helper()
	want := append([]string(nil), names...)
	sort.Strings(want)
	got := a.plan.Deletes
	if len(got) == 0 && len(want) == 0 {
		return a
	}
	if !reflect.DeepEqual(got, want) {
		a.t.Errorf("expected deletes %v, got %v", want, got)
	}
	return a
}

// Appends asserts that every named attribute is appended.
func (a *PlanAssertion) Appends(names ...string) *PlanAssertion {
	a.t.Helper()
	for _, name := range names {
		if _, ok := a.plan.Appends[name]; !ok {
			a.t.Errorf("expected attribute %s to be appended", name)
		}
	}
	return a
}

// Generated asserts that exactly the named key attributes were generated.
func (a *PlanAssertion) Generated(names ...string) *PlanAssertion {
	a.t.Helper()
	if len(a.plan.Generated) == 0 && len(names) == 0 {
		return a
	}
	if !reflect.DeepEqual(a.plan.Generated, names) {
		a.t.Errorf("expected generated keys %v, got %v", names, a.plan.Generated)
	}
	return a
}

// HasKey asserts that key attribute name renders as expected.
func (a *PlanAssertion) HasKey(name, expected string) *PlanAssertion {
	a.t.Helper()
	got, ok := render(a.plan.Key[name])
	if !ok || got != expected {
		a.t.Errorf("expected key %s to be %s, got %v", name, expected, a.plan.Key[name])
	}
	return a
}

func render(av types.AttributeValue) (string, bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, true
	case *types.AttributeValueMemberN:
		return v.Value, true
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(v.Value), true
	}
	return "", false
}
