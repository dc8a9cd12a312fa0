package lineage

import (
	"log/slog"

	"github.com/leapstack-labs/calclineage/pkg/scenario"
)

// SourceColumn identifies one physical column an output column's values
// originate from. PackageID is set only for calculation view sources.
type SourceColumn struct {
	Kind      scenario.SourceKind
	Schema    string
	Object    string
	PackageID string
	Column    string
}

// visitKey guards the traversal against cycles. It is keyed per node and
// column, so the same node reached for a different column is still
// processed while a revisit of the same column on the same node returns
// empty. This bounds the recursion by nodes x distinct columns touched.
type visitKey struct {
	node   string
	column string
}

// tracer walks one model's node graph. Per-view state only; a model is
// never shared between tracers.
type tracer struct {
	model  *scenario.Model
	logger *slog.Logger
}

// trace resolves a node-local column to the physical columns that feed it.
// Fan-in through multiple inputs or mappings concatenates all results;
// deduplication happens later, at assembly. Constant mappings never carry
// lineage, and dangling references drop only their own path.
func (t *tracer) trace(nodeID, column string, visited map[visitKey]struct{}) []SourceColumn {
	key := visitKey{node: nodeID, column: column}
	if _, seen := visited[key]; seen {
		return nil
	}
	visited[key] = struct{}{}

	node, ok := t.model.CalcNodes[nodeID]
	if !ok {
		if ds, ok := t.model.DataSourceForNode(nodeID); ok {
			return []SourceColumn{sourceColumn(ds, column)}
		}
		t.logger.Debug("dangling node reference", "node", nodeID, "column", column)
		return nil
	}

	var results []SourceColumn
	for _, input := range node.Inputs {
		for _, m := range input.Mappings {
			if m.Target != column || m.Kind == scenario.MappingConstant {
				continue
			}
			if m.Source == "" {
				t.logger.Debug("mapping without source column", "node", nodeID, "column", column)
				continue
			}
			if ds, ok := t.model.DataSourceForNode(input.Node); ok {
				results = append(results, sourceColumn(ds, m.Source))
				continue
			}
			results = append(results, t.trace(scenario.NodeID(input.Node), m.Source, visited)...)
		}
	}
	return results
}

func sourceColumn(ds scenario.DataSource, column string) SourceColumn {
	return SourceColumn{
		Kind:      ds.Kind,
		Schema:    ds.Schema,
		Object:    ds.Object,
		PackageID: ds.PackageID,
		Column:    column,
	}
}
