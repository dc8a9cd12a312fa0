// Package source defines the contracts to the external collaborators that
// supply catalog snapshot rows and consume assembled lineage records. The
// engine itself performs no network or disk I/O; everything behind these
// interfaces does.
package source

import "context"

// RowType names the tabular row sets the engine fetches.
type RowType string

const (
	RowCalcViews        RowType = "calculation-views"
	RowCalcViewColumns  RowType = "calculation-view-columns"
	RowTables           RowType = "tables"
	RowViews            RowType = "views"
	RowTableViewColumns RowType = "table-view-columns"
)

// RecordType names the record sets the engine persists.
type RecordType string

const (
	RecViewLineage   RecordType = "view-lineage"
	RecColumnLineage RecordType = "column-lineage"
	RecColumnDetails RecordType = "calc-view-column-details"
)

// Field names the engine expects in fetched records.
const (
	FieldSchema     = "TABLE_SCHEM"
	FieldTableName  = "TABLE_NAME"
	FieldViewName   = "VIEW_NAME"
	FieldColumnName = "COLUMN_NAME"
	FieldPackageID  = "PACKAGE_ID"
	FieldDefinition = "ROUTINE_DEFINITION"
)

// Record is one flat field/value row.
type Record map[string]any

// Str returns the record's value for field as a string, or "" when absent
// or not textual.
func (r Record) Str(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Source supplies snapshot rows.
type Source interface {
	Fetch(ctx context.Context, rt RowType) ([]Record, error)
}

// Sink consumes assembled lineage records.
type Sink interface {
	Persist(ctx context.Context, rt RecordType, records []Record) error
}
