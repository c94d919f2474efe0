package css

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"hcg/utils/debug"
)

// String returns readable dump of the table, selectors and properties in
// natural order. It exists solely for debug reports.
func (t RuleTable) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Rule table (%d selectors)", len(t))

	selectors := slices.Collect(maps.Keys(t))
	sort.Sort(natural.StringSlice(selectors))
	for _, sel := range selectors {
		decls := t[sel]
		tw.Line(1, "Selector[%q] (%d declarations)", sel, len(decls))
		props := slices.Collect(maps.Keys(decls))
		sort.Sort(natural.StringSlice(props))
		for _, p := range props {
			tw.Text(2, p, decls[p])
		}
	}
	return tw.String()
}
