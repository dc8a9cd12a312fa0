// Package catalog maintains membership indexes over the objects actually
// captured in the current extraction snapshot, and screens lineage edges
// against them. Definitions may reference objects that were renamed,
// dropped, or filtered out of the extraction; edges to such objects are
// rejected rather than persisted as lineage to nonexistent catalog entries.
package catalog

import (
	"github.com/leapstack-labs/calclineage/pkg/lineage"
	"github.com/leapstack-labs/calclineage/pkg/scenario"
)

// Index holds the four membership sets of one extraction batch. It must
// observe every table, view, calculation view, and column row of the
// snapshot before any edge is filtered; validity depends on global
// knowledge of the snapshot.
type Index struct {
	tableViews       Membership // schema.object
	tableViewColumns Membership // schema.object.column
	calcViews        Membership // schema.package.view
	calcViewColumns  Membership // schema.package.view.column
}

// Backend creates the membership sets an Index is built on.
type Backend interface {
	Set(name string) Membership
}

// memoryBackend satisfies Backend with plain in-memory sets.
type memoryBackend struct{}

func (memoryBackend) Set(string) Membership { return NewMemorySet() }

// NewMemoryBackend returns a Backend producing in-memory sets.
func NewMemoryBackend() Backend { return memoryBackend{} }

// NewIndex creates an empty index on the given backend.
func NewIndex(backend Backend) *Index {
	return &Index{
		tableViews:       backend.Set("table_views"),
		tableViewColumns: backend.Set("table_view_columns"),
		calcViews:        backend.Set("calc_views"),
		calcViewColumns:  backend.Set("calc_view_columns"),
	}
}

// AddTableView records a captured table or view. Rows with missing name
// parts are ignored.
func (ix *Index) AddTableView(schema, object string) error {
	key, ok := TableKey(schema, object)
	if !ok {
		return nil
	}
	return ix.tableViews.Add(key)
}

// AddTableViewColumn records a captured table or view column.
func (ix *Index) AddTableViewColumn(schema, object, column string) error {
	key, ok := TableColumnKey(schema, object, column)
	if !ok {
		return nil
	}
	return ix.tableViewColumns.Add(key)
}

// AddCalcView records a captured calculation view.
func (ix *Index) AddCalcView(schema, pkg, view string) error {
	key, ok := CalcViewKey(schema, pkg, view)
	if !ok {
		return nil
	}
	return ix.calcViews.Add(key)
}

// AddCalcViewColumn records a captured calculation view column.
func (ix *Index) AddCalcViewColumn(schema, pkg, view, column string) error {
	key, ok := CalcViewColumnKey(schema, pkg, view, column)
	if !ok {
		return nil
	}
	return ix.calcViewColumns.Add(key)
}

// Counts returns the sizes of the four sets, for logging.
func (ix *Index) Counts() (tableViews, tableViewColumns, calcViews, calcViewColumns int) {
	tableViews, _ = ix.tableViews.Len()
	tableViewColumns, _ = ix.tableViewColumns.Len()
	calcViews, _ = ix.calcViews.Len()
	calcViewColumns, _ = ix.calcViewColumns.Len()
	return
}

// AcceptColumn reports whether a traced source column refers to a column
// actually present in the snapshot. Sources with an empty schema, object,
// or column are rejected unconditionally. The check is a pure lookup, so
// re-filtering an already-filtered edge set yields the identical set.
func (ix *Index) AcceptColumn(src lineage.SourceColumn) (bool, error) {
	switch src.Kind {
	case scenario.KindTable, scenario.KindView:
		key, ok := TableColumnKey(src.Schema, src.Object, src.Column)
		if !ok {
			return false, nil
		}
		return ix.tableViewColumns.Contains(key)
	case scenario.KindCalculationView:
		key, ok := CalcViewColumnKey(src.Schema, src.PackageID, src.Object, src.Column)
		if !ok {
			return false, nil
		}
		return ix.calcViewColumns.Contains(key)
	default:
		return false, nil
	}
}

// AcceptObject is AcceptColumn at object granularity, used for view-level
// lineage.
func (ix *Index) AcceptObject(src lineage.SourceColumn) (bool, error) {
	switch src.Kind {
	case scenario.KindTable, scenario.KindView:
		key, ok := TableKey(src.Schema, src.Object)
		if !ok {
			return false, nil
		}
		return ix.tableViews.Contains(key)
	case scenario.KindCalculationView:
		key, ok := CalcViewKey(src.Schema, src.PackageID, src.Object)
		if !ok {
			return false, nil
		}
		return ix.calcViews.Contains(key)
	default:
		return false, nil
	}
}

// Close releases the underlying sets.
func (ix *Index) Close() error {
	for _, set := range []Membership{ix.tableViews, ix.tableViewColumns, ix.calcViews, ix.calcViewColumns} {
		if err := set.Close(); err != nil {
			return err
		}
	}
	return nil
}
