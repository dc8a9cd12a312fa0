package processor

import (
	"sort"

	"github.com/leapstack-labs/calclineage/internal/source"
	"github.com/leapstack-labs/calclineage/pkg/lineage"
	"github.com/leapstack-labs/calclineage/pkg/scenario"
)

// assembler collects the accepted lineage edges of a single view and
// renders them as output records. Duplicate edges keep their first-seen
// position; targets and source objects are emitted in sorted order so a
// batch is reproducible.
type assembler struct {
	schema  string
	pkg     string
	view    string
	process string

	columnSources map[string][]lineage.SourceColumn
	columnSeen    map[string]map[lineage.SourceColumn]struct{}
	objects       map[objectKey]struct{}
}

type objectKey struct {
	kind      scenario.SourceKind
	schema    string
	object    string
	packageID string
}

func newAssembler(schema, pkg, view string) *assembler {
	return &assembler{
		schema:        schema,
		pkg:           pkg,
		view:          view,
		process:       schema + "/" + pkg + "/" + view,
		columnSources: make(map[string][]lineage.SourceColumn),
		columnSeen:    make(map[string]map[lineage.SourceColumn]struct{}),
		objects:       make(map[objectKey]struct{}),
	}
}

func (a *assembler) addColumnSource(target string, src lineage.SourceColumn) {
	seen, ok := a.columnSeen[target]
	if !ok {
		seen = make(map[lineage.SourceColumn]struct{})
		a.columnSeen[target] = seen
	}
	if _, dup := seen[src]; dup {
		return
	}
	seen[src] = struct{}{}
	a.columnSources[target] = append(a.columnSources[target], src)
}

func (a *assembler) addSourceObject(src lineage.SourceColumn) {
	a.objects[objectKey{
		kind:      src.Kind,
		schema:    src.Schema,
		object:    src.Object,
		packageID: src.PackageID,
	}] = struct{}{}
}

// processRecord renders the view-level lineage record, or nil when no
// source object survived filtering.
func (a *assembler) processRecord() source.Record {
	if len(a.objects) == 0 {
		return nil
	}
	keys := make([]objectKey, 0, len(a.objects))
	for k := range a.objects {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].schema != keys[j].schema {
			return keys[i].schema < keys[j].schema
		}
		if keys[i].packageID != keys[j].packageID {
			return keys[i].packageID < keys[j].packageID
		}
		return keys[i].object < keys[j].object
	})

	sources := make([]source.Record, 0, len(keys))
	for _, k := range keys {
		obj := source.Record{
			"kind":   k.kind.EntityType(),
			"schema": k.schema,
			"name":   k.object,
		}
		if k.kind == scenario.KindCalculationView {
			obj["packageId"] = k.packageID
		}
		sources = append(sources, obj)
	}
	return source.Record{
		"processId": a.process,
		"targetObject": source.Record{
			"schema":    a.schema,
			"packageId": a.pkg,
			"name":      a.view,
		},
		"sourceObjects": sources,
	}
}

// columnRecords renders one record per target column that kept at least
// one accepted source. Per-target source order is first-seen.
func (a *assembler) columnRecords() []source.Record {
	targets := make([]string, 0, len(a.columnSources))
	for t := range a.columnSources {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	records := make([]source.Record, 0, len(targets))
	for _, target := range targets {
		srcs := a.columnSources[target]
		rendered := make([]source.Record, 0, len(srcs))
		for _, s := range srcs {
			rec := source.Record{
				"kind":   s.Kind.EntityType(),
				"schema": s.Schema,
				"object": s.Object,
				"column": s.Column,
			}
			if s.Kind == scenario.KindCalculationView {
				rec["packageId"] = s.PackageID
			}
			rendered = append(rendered, rec)
		}
		records = append(records, source.Record{
			"processId": a.process,
			"targetColumn": source.Record{
				"schema":    a.schema,
				"packageId": a.pkg,
				"view":      a.view,
				"column":    target,
			},
			"sourceColumns": rendered,
		})
	}
	return records
}
