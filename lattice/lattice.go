// Package lattice builds the graph of builder states for one construction
// target: one state per subset of required fields already supplied, with the
// transitions and build operations each state exposes.
package lattice

import (
	"fmt"
	"strconv"

	"github.com/broady/stepgen/ir"
)

// DefaultCeiling is the largest required-field count generated as a lattice
// unless configured otherwise.
const DefaultCeiling = 10

// Dependencies answers which type variables a set of fields needs.
// *analyzer.Analyzer implements it.
type Dependencies interface {
	// TypeVariables returns every type variable of the target, in order.
	TypeVariables() []string

	// GenericsRequiredFor returns the type variables the named fields depend
	// on, in target order.
	GenericsRequiredFor(names ...string) []string
}

// Options configure Build.
type Options struct {
	// Root is the builder name states are named after.
	Root string

	// Ceiling is the largest accepted required-field count.
	// Zero means DefaultCeiling; values above MaxCeiling are clamped.
	Ceiling int
}

// StateID indexes a state in its lattice.
type StateID int

// NoState marks an absent state reference.
const NoState StateID = -1

// State is one node of the lattice.
type State struct {
	ID StateID

	// Name is the canonical display name.
	Name string

	// Key is the canonical memo key.
	Key string

	Used   FieldSet
	Unused FieldSet

	// Generics are the type variables bound on this state, in target order.
	Generics []string

	// Transitions supply one more required field. Present iff |Unused| > 1.
	Transitions []Transition

	// Build is present iff |Unused| == 1, or on the root when there are no
	// required fields.
	Build *BuildOp
}

// Terminal reports whether the state has at most one field left to supply.
func (s *State) Terminal() bool { return s.Unused.Len() <= 1 }

// Complete reports whether every required field has been supplied.
func (s *State) Complete() bool { return s.Unused == 0 }

// Transition sets one required field and moves to the state with that field
// added.
type Transition struct {
	Field  ir.FieldID
	Target StateID

	// NewGenerics are the type variables the target state binds that this
	// state does not.
	NewGenerics []string
}

// BuildOp supplies the last required field, if any, and constructs the
// target.
type BuildOp struct {
	// Last is the field supplied by the build call. HasLast is false for the
	// no-argument build of a target without required fields.
	Last    ir.FieldID
	HasLast bool

	// Target is the complete state.
	Target StateID

	// NewGenerics are the target type variables not bound on this state.
	NewGenerics []string
}

// Lattice is the memoized state graph of one target.
type Lattice struct {
	model    *ir.FieldModel
	deps     Dependencies
	root     string
	required []ir.FieldID
	optional []string

	states []*State
	byKey  map[string]StateID
	byName map[string]StateID
}

// Build constructs the lattice with an explicit FIFO worklist. States are
// created on first reference and reused afterwards, so each distinct set of
// supplied fields yields exactly one state. Build fails with a
// scale_violation diagnostic when the required-field count exceeds the
// ceiling. States whose field sets render to the same name are told apart
// by a numeric suffix in creation order.
func Build(model *ir.FieldModel, deps Dependencies, opts Options) (*Lattice, error) {
	ceiling := opts.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	ceiling = min(ceiling, MaxCeiling)

	required := model.Required()
	if n := len(required); n > ceiling {
		d := ir.Errorf(ir.CodeScaleViolation, "%d required fields exceed the lattice ceiling of %d", n, ceiling)
		d.Fatal = false
		return nil, d
	}

	l := &Lattice{
		model:    model,
		deps:     deps,
		root:     opts.Root,
		required: required,
		optional: model.Names(model.Optional()),
		byKey:    make(map[string]StateID),
		byName:   make(map[string]StateID),
	}

	root := l.state(0)
	if len(required) == 0 {
		delete(l.byName, root.Name)
		root.Name = opts.Root
		l.byName[root.Name] = root.ID
		root.Build = &BuildOp{
			Target:      root.ID,
			NewGenerics: difference(deps.TypeVariables(), root.Generics),
		}
		return l, nil
	}

	queue := []StateID{root.ID}
	for len(queue) > 0 {
		s := l.states[queue[0]]
		queue = queue[1:]

		switch s.Unused.Len() {
		case 0:
			// Complete; reached only as a build target.
		case 1:
			last := s.Unused.Ranks()[0]
			done := l.state(s.Used.With(last))
			s.Build = &BuildOp{
				Last:        required[last],
				HasLast:     true,
				Target:      done.ID,
				NewGenerics: difference(deps.TypeVariables(), s.Generics),
			}
		default:
			for _, r := range s.Unused.Ranks() {
				before := len(l.states)
				child := l.state(s.Used.With(r))
				if len(l.states) > before {
					queue = append(queue, child.ID)
				}
				s.Transitions = append(s.Transitions, Transition{
					Field:       required[r],
					Target:      child.ID,
					NewGenerics: difference(child.Generics, s.Generics),
				})
			}
		}
	}
	return l, nil
}

// state returns the memoized state for used, creating it on first reference.
func (l *Lattice) state(used FieldSet) *State {
	usedNames := l.names(used)
	key := CanonicalKey(usedNames)
	if id, ok := l.byKey[key]; ok {
		return l.states[id]
	}

	unused := Full(len(l.required)) &^ used
	name := CanonicalName(l.root, usedNames, l.names(unused))
	if _, ok := l.byName[name]; ok {
		name = l.disambiguate(name)
	}

	s := &State{
		ID:       StateID(len(l.states)),
		Name:     name,
		Key:      key,
		Used:     used,
		Unused:   unused,
		Generics: l.deps.GenericsRequiredFor(append(usedNames, l.optional...)...),
	}
	l.states = append(l.states, s)
	l.byKey[key] = s.ID
	l.byName[name] = s.ID
	return s
}

// disambiguate numbers a name that an earlier state with a different field
// set already rendered to, as with {aB} and {a, b}.
func (l *Lattice) disambiguate(name string) string {
	for n := 2; ; n++ {
		alt := name + strconv.Itoa(n)
		if _, ok := l.byName[alt]; !ok {
			return alt
		}
	}
}

func (l *Lattice) names(s FieldSet) []string {
	ranks := s.Ranks()
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = l.model.Field(l.required[r]).Name
	}
	return names
}

// Model returns the field model the lattice was built from.
func (l *Lattice) Model() *ir.FieldModel { return l.model }

// Required returns the required field IDs; rank i in a FieldSet is
// Required()[i].
func (l *Lattice) Required() []ir.FieldID { return l.required }

// Field returns the required field ID of a rank.
func (l *Lattice) Field(rank int) ir.FieldID { return l.required[rank] }

// Fields returns the field IDs of a set, in name order.
func (l *Lattice) Fields(s FieldSet) []ir.FieldID {
	ranks := s.Ranks()
	ids := make([]ir.FieldID, len(ranks))
	for i, r := range ranks {
		ids[i] = l.required[r]
	}
	return ids
}

// States returns every state in creation order; the root is first.
func (l *Lattice) States() []*State { return l.states }

// State returns the state with the given ID.
func (l *Lattice) State(id StateID) *State { return l.states[id] }

// Root returns the state with no fields supplied.
func (l *Lattice) Root() *State { return l.states[0] }

// Lookup returns the state for a set of supplied fields. Repeated lookups of
// the same set return the same *State.
func (l *Lattice) Lookup(used FieldSet) (*State, bool) {
	id, ok := l.byKey[CanonicalKey(l.names(used))]
	if !ok {
		return nil, false
	}
	return l.states[id], true
}

// LookupNames is Lookup by field names, in any order.
func (l *Lattice) LookupNames(names ...string) (*State, bool) {
	id, ok := l.byKey[CanonicalKey(names)]
	if !ok {
		return nil, false
	}
	return l.states[id], true
}

// Path follows the transitions for the named fields from the root and
// returns the state reached.
func (l *Lattice) Path(fields ...string) (*State, error) {
	s := l.Root()
	for _, name := range fields {
		next := NoState
		for _, t := range s.Transitions {
			if l.model.Field(t.Field).Name == name {
				next = t.Target
				break
			}
		}
		if next == NoState {
			return nil, fmt.Errorf("state %s has no transition for %q", s.Name, name)
		}
		s = l.states[next]
	}
	return s, nil
}

// Terminals returns the states with exactly one field left, in creation
// order.
func (l *Lattice) Terminals() []*State {
	var out []*State
	for _, s := range l.states {
		if s.Unused.Len() == 1 {
			out = append(out, s)
		}
	}
	return out
}

// Emitted returns the states that become builder types: every state except
// the complete state, which is the build target and exposes nothing. When
// there are no required fields the single root state is emitted.
func (l *Lattice) Emitted() []*State {
	if len(l.required) == 0 {
		return l.states
	}
	out := make([]*State, 0, len(l.states)-1)
	for _, s := range l.states {
		if !s.Complete() {
			out = append(out, s)
		}
	}
	return out
}

// difference returns the members of a not in b, keeping a's order.
func difference(a, b []string) []string {
	var out []string
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			out = append(out, x)
		}
	}
	return out
}
