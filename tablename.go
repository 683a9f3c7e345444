package ddbmapper

// TableName computes the table targeted by an operation against a type that
// declares the given table name.
func (e EffectiveConfig) TableName(declared string) string {
	if e.TableNameOverride == nil {
		return declared
	}
	return e.TableNameOverride.apply(declared)
}

// ResolveTableName returns the table used for all operations on the type described
// by desc under eff. The result is recomputed on every call and the descriptor is
// left unchanged. Whether the table exists is not checked here; a missing table
// surfaces as a ResourceNotFoundException from the store.
func ResolveTableName(desc *Descriptor, eff EffectiveConfig) string {
	return eff.TableName(desc.TableName())
}
