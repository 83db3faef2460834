package lattice

import "math/bits"

// MaxCeiling is the largest number of required fields a FieldSet can hold.
const MaxCeiling = 62

// FieldSet is a set of required fields. Bit i stands for the i-th required
// field in name order, so ascending bits are ascending names.
type FieldSet uint64

// SetOf returns the set of the given ranks.
func SetOf(ranks ...int) FieldSet {
	var s FieldSet
	for _, r := range ranks {
		s = s.With(r)
	}
	return s
}

// Full returns the set of the first n ranks.
func Full(n int) FieldSet {
	if n <= 0 {
		return 0
	}
	return FieldSet(1)<<n - 1
}

// Has reports whether rank r is in the set.
func (s FieldSet) Has(r int) bool { return s&(1<<r) != 0 }

// With returns s ∪ {r}.
func (s FieldSet) With(r int) FieldSet { return s | 1<<r }

// Without returns s \ {r}.
func (s FieldSet) Without(r int) FieldSet { return s &^ (1 << r) }

// Len returns the number of members.
func (s FieldSet) Len() int { return bits.OnesCount64(uint64(s)) }

// SubsetOf reports whether every member of s is in o.
func (s FieldSet) SubsetOf(o FieldSet) bool { return s&^o == 0 }

// Ranks returns the members in ascending order.
func (s FieldSet) Ranks() []int {
	out := make([]int, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}
