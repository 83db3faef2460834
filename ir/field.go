package ir

import "sort"

// NullPolicy controls whether a nil value is accepted for a nilable field.
type NullPolicy int

const (
	NullForbid NullPolicy = iota // nil is reported as a problem
	NullPermit                   // nil is accepted
)

// String returns the string representation of the null policy.
func (p NullPolicy) String() string {
	switch p {
	case NullForbid:
		return "forbid"
	case NullPermit:
		return "permit"
	default:
		return "unknown"
	}
}

// ConstraintRef names a constraint kind and its argument. Kinds are resolved
// against a constraint registry when a plan is built.
type ConstraintRef struct {
	// Kind is the registry key (e.g., "pattern", "range", "validate").
	Kind string

	// Arg is the kind-specific argument text, possibly empty.
	Arg string
}

// Field is one parameter of a construction target.
type Field struct {
	// Name is the parameter name as declared.
	Name string

	// Type is the parameter's declared type.
	Type TypeDescriptor

	// Required is false for parameters marked optional.
	Required bool

	// Constraints are checked whenever the field is supplied, in the order
	// determined by their weights.
	Constraints []ConstraintRef

	// NullPolicy applies to nilable types only.
	NullPolicy NullPolicy

	// Default is a Go expression used when an optional field is never set.
	// Empty means the zero value.
	Default string

	// Nilable is true for pointer, slice, map, channel, function and
	// interface types.
	Nilable bool

	// Variadic marks the final ...T parameter; Type is then []T.
	Variadic bool

	// Position is the parameter index in the target signature.
	Position int

	// Documentation for this parameter.
	Documentation Documentation
}

// FieldID indexes a field in a FieldModel. IDs are assigned in name order, so
// ascending IDs are ascending names.
type FieldID int

// FieldModel is the normalized, name-ordered arena of a target's fields,
// partitioned into required and optional sets.
type FieldModel struct {
	fields   []Field
	required []FieldID
	optional []FieldID
	byName   map[string]FieldID
}

// NewFieldModel sorts fields by name and partitions them. Later fields with a
// name already seen are dropped.
func NewFieldModel(fields []Field) *FieldModel {
	m := &FieldModel{byName: make(map[string]FieldID, len(fields))}

	sorted := make([]Field, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		sorted = append(sorted, f)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	m.fields = sorted
	for i, f := range sorted {
		id := FieldID(i)
		m.byName[f.Name] = id
		if f.Required {
			m.required = append(m.required, id)
		} else {
			m.optional = append(m.optional, id)
		}
	}
	return m
}

// Len returns the number of fields.
func (m *FieldModel) Len() int { return len(m.fields) }

// Field returns the field with the given ID.
func (m *FieldModel) Field(id FieldID) Field { return m.fields[id] }

// Lookup finds a field by name.
func (m *FieldModel) Lookup(name string) (FieldID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Required returns the required field IDs in name order.
func (m *FieldModel) Required() []FieldID { return m.required }

// Optional returns the optional field IDs in name order.
func (m *FieldModel) Optional() []FieldID { return m.optional }

// All returns every field ID in name order.
func (m *FieldModel) All() []FieldID {
	ids := make([]FieldID, len(m.fields))
	for i := range ids {
		ids[i] = FieldID(i)
	}
	return ids
}

// Names returns the names of the given fields.
func (m *FieldModel) Names(ids []FieldID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = m.fields[id].Name
	}
	return names
}

// Params returns every field ID in signature order, the order construction
// arguments are passed in.
func (m *FieldModel) Params() []FieldID {
	ids := m.All()
	sort.SliceStable(ids, func(i, j int) bool {
		return m.fields[ids[i]].Position < m.fields[ids[j]].Position
	})
	return ids
}
