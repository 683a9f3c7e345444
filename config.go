package ddbmapper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveBehavior controls how the in-memory state of an object is reconciled with
// the item already stored under the same key.
type SaveBehavior int

const (
	// SaveBehaviorUnset means the behavior is inherited from a weaker configuration.
	SaveBehaviorUnset SaveBehavior = iota
	// Update writes every non-null attribute and removes attributes that are null
	// on the object. Attributes the object does not map are left untouched.
	Update
	// UpdateSkipNullAttributes is Update without the removal of null attributes.
	UpdateSkipNullAttributes
	// Clobber replaces the stored item with the attributes present on the object.
	Clobber
	// AppendSet behaves like UpdateSkipNullAttributes, except that set attributes
	// are merged with the stored set instead of replacing it.
	AppendSet
)

var saveBehaviorNames = map[SaveBehavior]string{
	Update:                   "UPDATE",
	UpdateSkipNullAttributes: "UPDATE_SKIP_NULL_ATTRIBUTES",
	Clobber:                  "CLOBBER",
	AppendSet:                "APPEND_SET",
}

// String implements fmt.Stringer.
func (b SaveBehavior) String() string {
	if name, ok := saveBehaviorNames[b]; ok {
		return name
	}
	if b == SaveBehaviorUnset {
		return "UNSET"
	}
	return fmt.Sprintf("SaveBehavior(%d)", int(b))
}

// ParseSaveBehavior converts a behavior name such as "CLOBBER" into a SaveBehavior.
// Matching is case-insensitive.
func ParseSaveBehavior(s string) (SaveBehavior, error) {
	for b, name := range saveBehaviorNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return SaveBehaviorUnset, fmt.Errorf("unknown save behavior %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *SaveBehavior) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseSaveBehavior(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b SaveBehavior) MarshalYAML() (any, error) {
	if b == SaveBehaviorUnset {
		return nil, nil
	}
	return b.String(), nil
}

// TableNameOverride replaces or prefixes the table name declared by a mapped type.
// When Name is set it is used verbatim; otherwise Prefix is prepended to the
// declared name.
type TableNameOverride struct {
	Name   string // Exact table name
	Prefix string // Prepended to the declared table name when Name is empty
}

// OverrideTableName returns an override that replaces the declared table name.
func OverrideTableName(name string) *TableNameOverride {
	return &TableNameOverride{Name: name}
}

// OverrideTablePrefix returns an override that prefixes the declared table name.
func OverrideTablePrefix(prefix string) *TableNameOverride {
	return &TableNameOverride{Prefix: prefix}
}

// apply computes the table name for a declared name.
func (o TableNameOverride) apply(declared string) string {
	if o.Name != "" {
		return o.Name
	}
	return o.Prefix + declared
}

// Config holds optional mapper settings. A zero or nil field is absent and is
// inherited from a weaker configuration when resolved; see [Resolve].
//
// Config is a plain value: copying it and changing the copy never affects the
// original, and none of the functions in this package modify a Config they are
// given.
type Config struct {
	SaveBehavior      SaveBehavior       // Save behavior; SaveBehaviorUnset inherits
	TableNameOverride *TableNameOverride // Table name override; nil inherits
	ConsistentReads   *bool              // Strongly consistent loads; nil inherits
}

// NewConfig returns a Config with the provided options applied to an all-absent value.
func NewConfig(opts ...func(*Config)) Config {
	var cfg Config
	cfg.apply(opts)
	return cfg
}

func (c *Config) apply(opts []func(*Config)) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithSaveBehavior sets the save behavior.
func WithSaveBehavior(b SaveBehavior) func(*Config) {
	return func(c *Config) {
		c.SaveBehavior = b
	}
}

// WithTableName replaces the declared table name with name.
func WithTableName(name string) func(*Config) {
	return func(c *Config) {
		c.TableNameOverride = OverrideTableName(name)
	}
}

// WithTablePrefix prepends prefix to the declared table name.
func WithTablePrefix(prefix string) func(*Config) {
	return func(c *Config) {
		c.TableNameOverride = OverrideTablePrefix(prefix)
	}
}

// WithConsistentReads sets whether loads use strongly consistent reads.
func WithConsistentReads(consistent bool) func(*Config) {
	return func(c *Config) {
		c.ConsistentReads = &consistent
	}
}

// configFile is the YAML layout read by LoadConfig.
type configFile struct {
	SaveBehavior    SaveBehavior `yaml:"saveBehavior"`
	TableName       string       `yaml:"tableName"`
	TablePrefix     string       `yaml:"tablePrefix"`
	ConsistentReads *bool        `yaml:"consistentReads"`
}

// LoadConfig reads a Config from a YAML document such as:
//
//	saveBehavior: CLOBBER
//	tablePrefix: staging-
//	consistentReads: true
//
// Keys that are left out stay absent. Setting both tableName and tablePrefix is an error.
func LoadConfig(r io.Reader) (Config, error) {
	var file configFile

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if file.TableName != "" && file.TablePrefix != "" {
		return Config{}, fmt.Errorf("tableName and tablePrefix are mutually exclusive")
	}

	cfg := Config{
		SaveBehavior:    file.SaveBehavior,
		ConsistentReads: file.ConsistentReads,
	}

	switch {
	case file.TableName != "":
		cfg.TableNameOverride = OverrideTableName(file.TableName)
	case file.TablePrefix != "":
		cfg.TableNameOverride = OverrideTablePrefix(file.TablePrefix)
	}

	return cfg, nil
}
