package ddbmapper

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// WriteCondition is the precondition the store must verify before applying a write.
type WriteCondition int

const (
	// ConditionNone applies the write unconditionally.
	ConditionNone WriteCondition = iota
	// ConditionKeyMustNotExist applies the write only when no item is stored under the key.
	ConditionKeyMustNotExist
)

func (c WriteCondition) String() string {
	switch c {
	case ConditionNone:
		return "NONE"
	case ConditionKeyMustNotExist:
		return "KEY_MUST_NOT_EXIST"
	default:
		return fmt.Sprintf("WriteCondition(%d)", int(c))
	}
}

// WritePlan describes the write a save performs against the stored item.
type WritePlan struct {
	Behavior  SaveBehavior   // Behavior the plan was computed for
	Key       Item           // Key attributes, generated values included
	Writes    Item           // Non-null attributes to write, key attributes included
	Appends   Item           // Set attributes to union with the stored value (APPEND_SET only)
	Deletes   []string       // Attributes to remove from the stored item, sorted
	Condition WriteCondition // Precondition on the key
	Generated []string       // Key attributes whose value was generated
}

// PlanOptions tunes PlanSave.
type PlanOptions struct {
	// GenerateKey produces values for absent auto-generated keys. Defaults to uuid.NewString.
	GenerateKey func() string
}

// PlanSave computes the write needed to persist current under eff.SaveBehavior.
// previous is the item as last loaded or saved by the caller, or nil when no
// snapshot is tracked. Neither item is modified.
//
// Absent auto-generated keys are filled in before planning; an absent key that
// is not auto-generated fails with *MissingRequiredKeyError.
func PlanSave(desc *Descriptor, previous, current Item, eff EffectiveConfig, opts ...func(*PlanOptions)) (*WritePlan, error) {
	options := PlanOptions{GenerateKey: uuid.NewString}
	for _, opt := range opts {
		opt(&options)
	}

	current = cloneItem(current)
	if current == nil {
		current = Item{}
	}

	plan := &WritePlan{
		Behavior: eff.SaveBehavior,
		Writes:   Item{},
	}

	for _, k := range desc.keys {
		if !isEmptyKey(current[k.Name]) {
			continue
		}
		if !k.AutoGenerated {
			return nil, &MissingRequiredKeyError{Type: desc.typ, Attribute: k.Name}
		}
		current[k.Name] = &types.AttributeValueMemberS{Value: options.GenerateKey()}
		plan.Generated = append(plan.Generated, k.Name)
	}

	key, err := desc.Key(current)
	if err != nil {
		return nil, err
	}
	plan.Key = key

	for name, av := range current {
		if isNull(av) {
			continue
		}
		if plan.Behavior == AppendSet && isSet(av) && !desc.isKey(name) {
			if plan.Appends == nil {
				plan.Appends = Item{}
			}
			plan.Appends[name] = av
			continue
		}
		plan.Writes[name] = av
	}

	switch plan.Behavior {
	case Clobber:
		plan.Deletes = clearedSince(desc, previous, current)
	case Update:
		if previous != nil {
			plan.Deletes = clearedSince(desc, previous, current)
		} else {
			plan.Deletes = nullAttributes(desc, current)
		}
	case UpdateSkipNullAttributes, AppendSet:
	default:
		return nil, fmt.Errorf("cannot plan save with behavior %s", plan.Behavior)
	}

	if len(plan.Generated) > 0 && (plan.Behavior == Update || plan.Behavior == UpdateSkipNullAttributes) {
		plan.Condition = ConditionKeyMustNotExist
	}

	return plan, nil
}

// clearedSince lists the non-key attributes that hold a value in previous and
// are null or absent in current.
func clearedSince(desc *Descriptor, previous, current Item) []string {
	var names []string
	for name, av := range previous {
		if isNull(av) || desc.isKey(name) {
			continue
		}
		if isNull(current[name]) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// nullAttributes lists the mapped non-key attributes that are null or absent in current.
func nullAttributes(desc *Descriptor, current Item) []string {
	var names []string
	for _, name := range desc.attributes {
		if desc.isKey(name) {
			continue
		}
		if isNull(current[name]) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Item returns the full item the plan leaves behind when nothing was stored
// before: writes plus appends.
func (p *WritePlan) Item() Item {
	item := cloneItem(p.Writes)
	if item == nil {
		item = Item{}
	}
	for name, av := range p.Appends {
		item[name] = av
	}
	return item
}
