package scenario

import (
	"errors"
	"testing"
)

const jsonDefinition = `{
	"Calculation:scenario": {
		"@id": "ORDERS_CV",
		"dataSources": {
			"DataSource": [
				{
					"@id": "ORDERS",
					"@type": "DATA_BASE_TABLE",
					"columnObject": {"@schemaName": "SALES", "@columnObjectName": "ORDERS"}
				},
				{
					"@id": "CUSTOMER_CV",
					"@type": "CALCULATION_VIEW",
					"columnObject": {"@schemaName": "_SYS_BIC"},
					"resourceUri": "/CRM.MODELS/CUSTOMER_CV.calculationview"
				}
			]
		},
		"calculationViews": {
			"calculationView": {
				"@id": "Projection_1",
				"input": {
					"@node": "#ORDERS",
					"mapping": [
						{"@xsi:type": "Calculation:AttributeMapping", "@target": "ORDER_ID", "@source": "ID"},
						{"@xsi:type": "Calculation:ConstantAttributeMapping", "@target": "REGION", "@source": ""}
					]
				},
				"viewAttributes": {
					"viewAttribute": [
						{"@id": "ORDER_ID"},
						{"@id": "REGION", "@hidden": "true"}
					]
				}
			}
		},
		"logicalModel": {
			"@id": "Projection_1",
			"attributes": {
				"attribute": {"@id": "ORDER_ID", "keyMapping": {"@columnName": "ORDER_ID"}}
			}
		}
	}
}`

func TestParseDefinitionJSON(t *testing.T) {
	model, err := ParseDefinition(jsonDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}

	if model.ID != "ORDERS_CV" {
		t.Errorf("ID = %q, want ORDERS_CV", model.ID)
	}
	if model.TerminalNodeID() != "Projection_1" {
		t.Errorf("TerminalNodeID() = %q, want Projection_1", model.TerminalNodeID())
	}

	ds, ok := model.DataSourceForNode("#ORDERS")
	if !ok {
		t.Fatal("data source ORDERS not indexed")
	}
	if ds.Kind != KindTable || ds.Schema != "SALES" || ds.Object != "ORDERS" {
		t.Errorf("ORDERS source = %+v", ds)
	}

	cv, ok := model.DataSourceForNode("CUSTOMER_CV")
	if !ok {
		t.Fatal("data source CUSTOMER_CV not indexed by bare id")
	}
	if cv.Kind != KindCalculationView {
		t.Errorf("CUSTOMER_CV kind = %q, want %q", cv.Kind, KindCalculationView)
	}
	if cv.PackageID != "CRM.MODELS" {
		t.Errorf("CUSTOMER_CV package = %q, want CRM.MODELS", cv.PackageID)
	}
	if cv.Object != "CUSTOMER_CV" {
		t.Errorf("CUSTOMER_CV object = %q, want CUSTOMER_CV", cv.Object)
	}
}

func TestParseDefinitionSingularNormalization(t *testing.T) {
	// The fixture declares a single calculationView object and a single
	// input object; both must behave as one-element lists.
	model, err := ParseDefinition(jsonDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}

	node, ok := model.CalcNodes["Projection_1"]
	if !ok {
		t.Fatal("node Projection_1 not indexed")
	}
	if len(node.Inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(node.Inputs))
	}
	if node.Inputs[0].Node != "#ORDERS" {
		t.Errorf("input node = %q, want #ORDERS", node.Inputs[0].Node)
	}
	if len(node.Inputs[0].Mappings) != 2 {
		t.Fatalf("mappings = %d, want 2", len(node.Inputs[0].Mappings))
	}
}

func TestParseDefinitionMappingKinds(t *testing.T) {
	model, err := ParseDefinition(jsonDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}

	mappings := model.CalcNodes["Projection_1"].Inputs[0].Mappings
	if mappings[0].Kind != MappingDirect {
		t.Errorf("AttributeMapping classified as %v, want direct", mappings[0].Kind)
	}
	if mappings[1].Kind != MappingConstant {
		t.Errorf("ConstantAttributeMapping classified as %v, want constant", mappings[1].Kind)
	}
}

func TestParseDefinitionHiddenColumns(t *testing.T) {
	model, err := ParseDefinition(jsonDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}

	cols := model.CalcNodes["Projection_1"].Columns
	if len(cols) != 2 {
		t.Fatalf("columns = %d, want 2", len(cols))
	}
	if cols[0].Name != "ORDER_ID" || cols[0].Hidden {
		t.Errorf("ORDER_ID = %+v, want visible", cols[0])
	}
	if cols[1].Name != "REGION" || !cols[1].Hidden {
		t.Errorf("REGION = %+v, want hidden", cols[1])
	}
}

func TestParseDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrMissingDefinition},
		{"whitespace", "   \n\t", ErrMissingDefinition},
		{"invalid json", "{not json", ErrMissingDefinition},
		{"invalid xml", "<scenario", ErrMissingDefinition},
		{"no scenario", `{"other": {}}`, ErrMalformedDefinition},
		{"no logical model", `{"Calculation:scenario": {"@id": "V"}}`, ErrMalformedDefinition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseDefinition() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseDefinitionDuplicateNodeLastWins(t *testing.T) {
	raw := `{
		"Calculation:scenario": {
			"@id": "V",
			"calculationViews": {
				"calculationView": [
					{"@id": "N", "viewAttributes": {"viewAttribute": {"@id": "OLD"}}},
					{"@id": "N", "viewAttributes": {"viewAttribute": {"@id": "NEW"}}}
				]
			},
			"logicalModel": {"@id": "N"}
		}
	}`
	model, err := ParseDefinition(raw)
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}
	cols := model.CalcNodes["N"].Columns
	if len(cols) != 1 || cols[0].Name != "NEW" {
		t.Errorf("columns = %+v, want the later declaration", cols)
	}
}

func TestPackageFromResourceURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"/CRM.MODELS/CUSTOMER_CV.calculationview", "CRM.MODELS"},
		{"/base/CRM.MODELS/CUSTOMER_CV.calculationview", "CRM.MODELS"},
		{"/PKG/VIEW.calculationview", "PKG"},
		{"", ""},
		{"no match here", ""},
		{"/only/.txt", ""},
	}
	for _, tt := range tests {
		if got := PackageFromResourceURI(tt.uri); got != tt.want {
			t.Errorf("PackageFromResourceURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestOutputDetails(t *testing.T) {
	raw := `{
		"Calculation:scenario": {
			"@id": "V",
			"logicalModel": {
				"@id": "N",
				"attributes": {
					"attribute": [
						{"@id": "ID", "@order": "1", "descriptions": {"@defaultDescription": "Order id"}},
						{"@id": "$generated$"},
						{"@id": ""}
					]
				},
				"baseMeasures": {
					"measure": {"@id": "AMOUNT", "@order": "2"}
				}
			}
		}
	}`
	model, err := ParseDefinition(raw)
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}

	details := model.OutputDetails()
	if len(details) != 2 {
		t.Fatalf("details = %v, want 2 entries", details)
	}
	id := details["ID"]
	if id.Ordinal != "1" || id.Description != "Order id" {
		t.Errorf("ID detail = %+v", id)
	}
	if details["AMOUNT"].Ordinal != "2" {
		t.Errorf("AMOUNT detail = %+v", details["AMOUNT"])
	}
}
