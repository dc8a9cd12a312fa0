// Package scenario parses calculation view definitions into an indexed
// in-memory model: a data source index, a calculation node index, and the
// raw logical model section. The model is immutable after construction and
// owned by the resolution pass processing that view.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Errors returned by ParseDefinition. Narrower irregularities inside a
// definition degrade to empty collections instead of failing the build.
var (
	// ErrMissingDefinition indicates the raw text was empty or undecodable.
	ErrMissingDefinition = errors.New("missing definition")
	// ErrMalformedDefinition indicates the required scenario or logical
	// model sections are absent.
	ErrMalformedDefinition = errors.New("malformed definition")
)

// SourceKind classifies a data source leaf.
type SourceKind string

const (
	KindTable           SourceKind = "DATA_BASE_TABLE"
	KindView            SourceKind = "DATA_BASE_VIEW"
	KindCalculationView SourceKind = "CALCULATION_VIEW"
	KindUnrecognized    SourceKind = ""
)

// EntityType maps a source kind to the catalog entity type name used in
// persisted lineage records.
func (k SourceKind) EntityType() string {
	switch k {
	case KindTable:
		return "Table"
	case KindView:
		return "View"
	case KindCalculationView:
		return "CalculationView"
	default:
		return ""
	}
}

// DataSource is a leaf of the lineage graph: a physical table, a physical
// view, or another calculation view.
type DataSource struct {
	ID        string
	Kind      SourceKind
	Schema    string
	Object    string
	PackageID string // only set for calculation views
}

// MappingKind distinguishes column mappings that carry lineage from constant
// mappings, which never do.
type MappingKind int

const (
	MappingDirect MappingKind = iota
	MappingConstant
)

// Mapping is one column-to-column mapping on a node input.
type Mapping struct {
	Target string
	Source string
	Kind   MappingKind
}

// NodeInput is one upstream reference of a calculation node. Node carries
// the raw reference string; data source references keep their "#" marker.
type NodeInput struct {
	Node     string
	Mappings []Mapping
}

// ExposedColumn is a node-local output column.
type ExposedColumn struct {
	Name   string
	Hidden bool
}

// CalcNode is an internal vertex of the calculation graph. A node may have
// zero, one, or multiple inputs.
type CalcNode struct {
	ID      string
	Inputs  []NodeInput
	Columns []ExposedColumn
}

// Model is one parsed calculation view definition. DataSources is keyed by
// the "#"-prefixed reference form, CalcNodes by bare node id.
type Model struct {
	ID           string
	DataSources  map[string]DataSource
	CalcNodes    map[string]CalcNode
	LogicalModel Document
}

// dataSourceRefMarker prefixes data source ids wherever nodes reference them.
const dataSourceRefMarker = "#"

// packagePattern captures the path segment preceding the view file name in
// an embedded resource locator, e.g. "/PKG1/view.calculationview" -> "PKG1".
var packagePattern = regexp.MustCompile(`/([^/]+)/[^/]+\.calculationview`)

// PackageFromResourceURI extracts the package id from a resource locator.
// Returns "" when the locator is absent or does not match.
func PackageFromResourceURI(uri string) string {
	m := packagePattern.FindStringSubmatch(uri)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseDefinition parses the raw definition text of one calculation view.
// It accepts the XML form or its pre-converted JSON form.
func ParseDefinition(raw string) (*Model, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrMissingDefinition
	}

	var doc Document
	if strings.HasPrefix(trimmed, "<") {
		parsed, err := decodeXML([]byte(trimmed))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingDefinition, err)
		}
		doc = parsed
	} else {
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingDefinition, err)
		}
		doc = Document(m)
	}

	scn := doc.Map("Calculation:scenario")
	if scn == nil {
		return nil, fmt.Errorf("%w: no calculation scenario", ErrMalformedDefinition)
	}
	logical := scn.Map("logicalModel")
	if logical == nil {
		return nil, fmt.Errorf("%w: no logical model", ErrMalformedDefinition)
	}

	return &Model{
		ID:           scn.Str("@id"),
		DataSources:  buildDataSources(scn.Map("dataSources").List("DataSource")),
		CalcNodes:    buildCalcNodes(scn.Map("calculationViews").List("calculationView")),
		LogicalModel: logical,
	}, nil
}

// buildDataSources classifies each declared data source. Entries without an
// id are dropped; unknown types are kept as unrecognized leaves so node
// references to them still resolve (to nothing) instead of dangling.
func buildDataSources(entries []Document) map[string]DataSource {
	sources := make(map[string]DataSource, len(entries))
	for _, ds := range entries {
		id := ds.Str("@id")
		if id == "" {
			continue
		}

		src := DataSource{ID: id}
		obj := ds.Map("columnObject")
		switch SourceKind(strings.ToUpper(ds.Str("@type"))) {
		case KindTable:
			src.Kind = KindTable
			src.Schema = obj.Str("@schemaName")
			src.Object = obj.Str("@columnObjectName")
		case KindView:
			src.Kind = KindView
			src.Schema = obj.Str("@schemaName")
			src.Object = obj.Str("@columnObjectName")
		case KindCalculationView:
			src.Kind = KindCalculationView
			src.Schema = obj.Str("@schemaName")
			src.Object = id
			src.PackageID = PackageFromResourceURI(ds.Str("resourceUri"))
		default:
			src.Kind = KindUnrecognized
		}

		sources[dataSourceRefMarker+id] = src
	}
	return sources
}

// buildCalcNodes indexes calculation nodes by id, last-wins on duplicates to
// match document order.
func buildCalcNodes(entries []Document) map[string]CalcNode {
	nodes := make(map[string]CalcNode, len(entries))
	for _, entry := range entries {
		id := entry.Str("@id")
		if id == "" {
			continue
		}

		node := CalcNode{ID: id}
		for _, input := range entry.List("input") {
			in := NodeInput{Node: input.Str("@node")}
			for _, m := range input.List("mapping") {
				kind := MappingDirect
				if strings.Contains(m.Str("@xsi:type"), "ConstantAttributeMapping") {
					kind = MappingConstant
				}
				in.Mappings = append(in.Mappings, Mapping{
					Target: m.Str("@target"),
					Source: m.Str("@source"),
					Kind:   kind,
				})
			}
			node.Inputs = append(node.Inputs, in)
		}
		for _, attr := range entry.Map("viewAttributes").List("viewAttribute") {
			name := attr.Str("@id")
			if name == "" {
				continue
			}
			node.Columns = append(node.Columns, ExposedColumn{
				Name:   name,
				Hidden: attr.Str("@hidden") == "true",
			})
		}

		nodes[id] = node
	}
	return nodes
}

// TerminalNodeID returns the id of the node the logical model reads from.
func (m *Model) TerminalNodeID() string {
	return m.LogicalModel.Str("@id")
}

// DataSourceForNode resolves a node reference against the data source index.
// It accepts both the raw "#"-prefixed reference form and a bare id.
func (m *Model) DataSourceForNode(ref string) (DataSource, bool) {
	if strings.HasPrefix(ref, dataSourceRefMarker) {
		ds, ok := m.DataSources[ref]
		return ds, ok
	}
	ds, ok := m.DataSources[dataSourceRefMarker+ref]
	return ds, ok
}

// NodeID strips the data source reference marker from a node reference.
func NodeID(ref string) string {
	return strings.TrimLeft(ref, dataSourceRefMarker)
}
