package ir

import "github.com/goccy/go-json"

// JSON serialization support for type descriptors.
// All descriptors include a "kind" field for type discrimination.

// MarshalJSON implements json.Marshaler for DeclaredType.
func (d *DeclaredType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind string           `json:"kind"`
		Name string           `json:"name"`
		Text string           `json:"text,omitempty"`
		Args []TypeDescriptor `json:"args,omitempty"`
	}{
		Kind: "declared",
		Name: d.Name,
		Text: d.Text,
		Args: d.Args,
	})
}

// MarshalJSON implements json.Marshaler for ArrayType.
func (d *ArrayType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind   string         `json:"kind"`
		Elem   TypeDescriptor `json:"elem"`
		Length int64          `json:"length"`
	}{
		Kind:   "array",
		Elem:   d.Elem,
		Length: d.Len,
	})
}

// MarshalJSON implements json.Marshaler for TypeVariable. Bounds are written
// as rendered text since they may refer back to the variable.
func (d *TypeVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind  string `json:"kind"`
		Name  string `json:"name"`
		Upper string `json:"upper,omitempty"`
	}{
		Kind:  "typeVariable",
		Name:  d.Name,
		Upper: renderedOrEmpty(d.Upper),
	})
}

// MarshalJSON implements json.Marshaler for WildcardType.
func (d *WildcardType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    string         `json:"kind"`
		Extends TypeDescriptor `json:"extends,omitempty"`
		Super   TypeDescriptor `json:"super,omitempty"`
	}{
		Kind:    "wildcard",
		Extends: d.Extends,
		Super:   d.Super,
	})
}

// MarshalJSON implements json.Marshaler for PrimitiveType.
func (d *PrimitiveType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}{
		Kind: "primitive",
		Name: d.Name,
	})
}

// MarshalJSON implements json.Marshaler for IntersectionType.
func (d *IntersectionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    string           `json:"kind"`
		Members []TypeDescriptor `json:"members"`
	}{
		Kind:    "intersection",
		Members: d.Members,
	})
}

// MarshalJSON implements json.Marshaler for UnionType.
func (d *UnionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    string           `json:"kind"`
		Members []TypeDescriptor `json:"members"`
	}{
		Kind:    "union",
		Members: d.Members,
	})
}

// MarshalJSON implements json.Marshaler for ExecutableType.
func (d *ExecutableType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind       string           `json:"kind"`
		TypeParams []*TypeVariable  `json:"typeParams,omitempty"`
		Params     []TypeDescriptor `json:"params"`
		Results    []TypeDescriptor `json:"results,omitempty"`
		Thrown     []TypeDescriptor `json:"thrown,omitempty"`
	}{
		Kind:       "executable",
		TypeParams: d.TypeParams,
		Params:     d.Params,
		Results:    d.Results,
		Thrown:     d.Thrown,
	})
}

// MarshalJSON implements json.Marshaler for NoneType.
func (NoneType) MarshalJSON() ([]byte, error) {
	return []byte(`{"kind":"none"}`), nil
}

// MarshalJSON implements json.Marshaler for NullType.
func (NullType) MarshalJSON() ([]byte, error) {
	return []byte(`{"kind":"null"}`), nil
}

// MarshalJSON implements json.Marshaler for Field.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name        string          `json:"name"`
		Type        TypeDescriptor  `json:"type"`
		Required    bool            `json:"required"`
		Constraints []ConstraintRef `json:"constraints,omitempty"`
		Nullable    bool            `json:"nullable,omitempty"`
		Default     string          `json:"default,omitempty"`
		Variadic    bool            `json:"variadic,omitempty"`
	}{
		Name:        f.Name,
		Type:        f.Type,
		Required:    f.Required,
		Constraints: f.Constraints,
		Nullable:    f.NullPolicy == NullPermit,
		Default:     f.Default,
		Variadic:    f.Variadic,
	})
}

// MarshalJSON implements json.Marshaler for ConstraintRef.
func (c ConstraintRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind string `json:"kind"`
		Arg  string `json:"arg,omitempty"`
	}{
		Kind: c.Kind,
		Arg:  c.Arg,
	})
}

func renderedOrEmpty(t TypeDescriptor) string {
	if t == nil {
		return ""
	}
	return t.Rendered()
}
