// Package lineage resolves the externally visible output columns of a
// parsed calculation view and traces each one through the view's node graph
// to the physical tables, views, and calculation views that originate it.
// Resolution is a pure computation over one model; models for different
// views may be resolved concurrently.
package lineage

import (
	"log/slog"

	"github.com/leapstack-labs/calclineage/pkg/scenario"
)

// ColumnLineage is the traced lineage of a single output column. Sources
// may be empty when every path ended at a constant, a cycle, or a dangling
// reference.
type ColumnLineage struct {
	Target  OutputColumn
	Sources []SourceColumn
}

// ViewLineage is the complete unfiltered lineage of one calculation view.
type ViewLineage struct {
	View    string
	Columns []ColumnLineage
}

// Extract resolves every output column of the model. Each column gets a
// fresh visited set, so a shared ancestor contributes lineage to every
// column that reaches it.
func Extract(logger *slog.Logger, m *scenario.Model) *ViewLineage {
	t := &tracer{model: m, logger: logger}
	terminal := m.TerminalNodeID()

	result := &ViewLineage{View: m.ID}
	for _, col := range FinalColumns(m) {
		visited := make(map[visitKey]struct{})
		result.Columns = append(result.Columns, ColumnLineage{
			Target:  col,
			Sources: t.trace(terminal, col.InternalName, visited),
		})
	}

	logger.Debug("extracted lineage", "view", m.ID, "columns", len(result.Columns))
	return result
}
