package scenario

import "strings"

// ColumnDetail carries presentation metadata declared for one output column
// in the logical model.
type ColumnDetail struct {
	Ordinal     string
	Description string
}

// logicalModelSections maps each logical model section to the element name
// its columns are declared under.
var logicalModelSections = map[string]string{
	"attributes":           "attribute",
	"baseMeasures":         "measure",
	"calculatedMeasures":   "measure",
	"calculatedAttributes": "calculatedAttribute",
}

// OutputDetails collects the declared ordinal and description for every
// output column of the logical model. Columns without an id, or with
// generated "$"-ids, are skipped.
func (m *Model) OutputDetails() map[string]ColumnDetail {
	details := make(map[string]ColumnDetail)
	for section, element := range logicalModelSections {
		for _, col := range m.LogicalModel.Map(section).List(element) {
			id := col.Str("@id")
			if id == "" || strings.Contains(id, "$") {
				continue
			}
			details[id] = ColumnDetail{
				Ordinal:     col.Str("@order"),
				Description: col.Map("descriptions").Str("@defaultDescription"),
			}
		}
	}
	return details
}
