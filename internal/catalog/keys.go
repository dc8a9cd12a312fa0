package catalog

import "strings"

// Composite membership keys. Every builder rejects empty components so an
// incomplete reference can never produce a key that accidentally matches a
// real catalog entry.

// TableKey identifies a physical table or view: schema.object.
func TableKey(schema, object string) (string, bool) {
	return joinKey(schema, object)
}

// TableColumnKey identifies a physical column: schema.object.column.
func TableColumnKey(schema, object, column string) (string, bool) {
	return joinKey(schema, object, column)
}

// CalcViewKey identifies a calculation view: schema.package.view.
func CalcViewKey(schema, pkg, view string) (string, bool) {
	return joinKey(schema, pkg, view)
}

// CalcViewColumnKey identifies a calculation view column:
// schema.package.view.column.
func CalcViewColumnKey(schema, pkg, view, column string) (string, bool) {
	return joinKey(schema, pkg, view, column)
}

func joinKey(parts ...string) (string, bool) {
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return strings.Join(parts, "."), true
}
