package ddbmapper

// Library defaults applied to any field still absent after resolution.
const (
	DefaultSaveBehavior    = Update
	DefaultConsistentReads = false
)

// EffectiveConfig is the fully resolved configuration for a single operation.
// Every field holds a concrete value.
type EffectiveConfig struct {
	SaveBehavior      SaveBehavior       // Never SaveBehaviorUnset
	TableNameOverride *TableNameOverride // nil when no override applies
	ConsistentReads   bool
}

// Resolve merges base with an optional override, field by field. A field set in
// override wins; otherwise the field set in base is used; otherwise the library
// default applies. A nil override is the same as an override with every field absent.
//
// Resolve never modifies its arguments and the result shares no memory with them,
// so it is safe to call concurrently with the same inputs.
func Resolve(base Config, override *Config) EffectiveConfig {
	merged := base
	if override != nil {
		if override.SaveBehavior != SaveBehaviorUnset {
			merged.SaveBehavior = override.SaveBehavior
		}
		if override.TableNameOverride != nil {
			merged.TableNameOverride = override.TableNameOverride
		}
		if override.ConsistentReads != nil {
			merged.ConsistentReads = override.ConsistentReads
		}
	}

	eff := EffectiveConfig{
		SaveBehavior:    DefaultSaveBehavior,
		ConsistentReads: DefaultConsistentReads,
	}
	if merged.SaveBehavior != SaveBehaviorUnset {
		eff.SaveBehavior = merged.SaveBehavior
	}
	if merged.TableNameOverride != nil {
		tno := *merged.TableNameOverride
		eff.TableNameOverride = &tno
	}
	if merged.ConsistentReads != nil {
		eff.ConsistentReads = *merged.ConsistentReads
	}
	return eff
}
