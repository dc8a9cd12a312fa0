package lineage

import (
	"sort"

	"github.com/leapstack-labs/calclineage/pkg/scenario"
)

// Origin records how an output column came to be externally visible.
type Origin string

const (
	// OriginAttribute marks an attribute declared in the logical model.
	OriginAttribute Origin = "attribute"
	// OriginMeasure marks a base measure declared in the logical model.
	OriginMeasure Origin = "measure"
	// OriginPassthrough marks a terminal-node column exposed without an
	// explicit logical model declaration.
	OriginPassthrough Origin = "passthrough"
)

// OutputColumn is one externally visible column of a calculation view.
// InternalName is the name the terminal calculation node knows it by; when
// no explicit mapping exists the logical id doubles as the internal name.
type OutputColumn struct {
	LogicalID    string
	InternalName string
	Origin       Origin
}

// FinalColumns computes the ordered set of externally visible output columns
// of a model: explicit attributes and measures from the logical model, plus
// any non-hidden column the terminal node exposes that no explicit item
// already covers. Hidden terminal-node columns are excluded entirely. The
// result is sorted by logical id for reproducible output.
func FinalColumns(m *scenario.Model) []OutputColumn {
	byID := make(map[string]OutputColumn)

	for _, attr := range m.LogicalModel.Map("attributes").List("attribute") {
		id := attr.Str("@id")
		if id == "" {
			continue
		}
		internal := attr.Map("keyMapping").Str("@columnName")
		if internal == "" {
			internal = id
		}
		byID[id] = OutputColumn{LogicalID: id, InternalName: internal, Origin: OriginAttribute}
	}

	for _, measure := range m.LogicalModel.Map("baseMeasures").List("measure") {
		id := measure.Str("@id")
		if id == "" {
			continue
		}
		internal := measure.Map("measureMapping").Str("@columnName")
		if internal == "" {
			internal = id
		}
		byID[id] = OutputColumn{LogicalID: id, InternalName: internal, Origin: OriginMeasure}
	}

	if terminal, ok := m.CalcNodes[m.TerminalNodeID()]; ok {
		for _, col := range terminal.Columns {
			if col.Hidden {
				continue
			}
			if _, exists := byID[col.Name]; exists {
				continue
			}
			byID[col.Name] = OutputColumn{LogicalID: col.Name, InternalName: col.Name, Origin: OriginPassthrough}
		}
	}

	columns := make([]OutputColumn, 0, len(byID))
	for _, col := range byID {
		columns = append(columns, col)
	}
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].LogicalID < columns[j].LogicalID
	})
	return columns
}
