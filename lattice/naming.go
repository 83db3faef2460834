package lattice

import (
	"sort"
	"strings"

	"github.com/broady/stepgen/ir"
)

// CanonicalKey returns the memo key of a set of supplied field names. It
// depends only on the set, never on the order the fields were supplied in.
func CanonicalKey(used []string) string {
	return strings.Join(sortedCopy(used), ",")
}

// CanonicalName returns the display name of a state: the shorter of
// <root>With<Used...> and <root>Sans<Unused...>, preferring With on a tie.
func CanonicalName(root string, used, unused []string) string {
	with := root + "With" + joinCapitalized(used)
	sans := root + "Sans" + joinCapitalized(unused)
	if len(sans) < len(with) {
		return sans
	}
	return with
}

func joinCapitalized(names []string) string {
	var b strings.Builder
	for _, name := range sortedCopy(names) {
		b.WriteString(ir.Capitalize(name))
	}
	return b.String()
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
