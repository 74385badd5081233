package statvec

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

var errEnhance = errors.New("unexpected enhance result")

// directDataset is a mixed-type direct-format dataset used across tests.
const directDataset = `{
	"features": [
		{"name": "boolFeature", "dataType": "BOOLEAN"},
		{"name": "numFeature", "dataType": "NUMERIC"},
		{"name": "catFeature", "dataType": "NOMINAL"}
	],
	"entries": {
		"boolFeature": {"numOfNotNull": 100, "numOfTrue": 75},
		"numFeature": {"numOfNotNull": 10, "min": 1.0, "max": 10.0, "avg": 5.5, "q1": 3.0, "q2": 5.0, "q3": 8.0},
		"catFeature": {"numOfNotNull": 5, "valueSet": ["A", "B"], "cardinalityPerItem": {"A": 3, "B": 2}}
	}
}`

func TestEnhanceDirectFormat(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, directDataset)

	enhanced, encoders, schema := engine.Enhance(ds, "")

	if len(encoders) != 1 {
		t.Fatalf("got %d encoders, want 1 aggregated", len(encoders))
	}
	agg := encoders[0]
	wantData := Vector{100, 75, 10, 1.0, 10.0, 5.5, 3.0, 5.0, 8.0, 5, 2, 3}
	if !reflect.DeepEqual(agg.Data, wantData) {
		t.Errorf("aggregated data = %v, want %v", agg.Data, wantData)
	}
	if agg.Type != "mixed" {
		t.Errorf("aggregated type = %q, want mixed", agg.Type)
	}
	if agg.TotalFeatures != 3 {
		t.Errorf("TotalFeatures = %d, want 3", agg.TotalFeatures)
	}
	if agg.VectorLength != len(wantData) {
		t.Errorf("VectorLength = %d, want %d", agg.VectorLength, len(wantData))
	}

	if len(schema) != 3 {
		t.Fatalf("got %d schema entries, want 3", len(schema))
	}
	wantOffsets := []int{0, 2, 9}
	for i, e := range schema {
		if e.Offset != wantOffsets[i] {
			t.Errorf("schema[%d].Offset = %d, want %d", i, e.Offset, wantOffsets[i])
		}
	}

	// Each processed feature gains vectorized_statistics.
	entries := enhanced["entries"].(map[string]any)
	for _, name := range []string{"boolFeature", "numFeature", "catFeature"} {
		record := entries[name].(map[string]any)
		if _, ok := record["vectorized_statistics"]; !ok {
			t.Errorf("feature %s missing vectorized_statistics", name)
		}
	}
}

func TestEnhanceAggregationMatchesSchema(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, directDataset)

	_, encoders, schema := engine.Enhance(ds, "")

	agg := encoders[0]
	total := 0
	for _, e := range schema {
		total += e.Length
	}
	if len(agg.Data) != total {
		t.Errorf("len(data) = %d, want sum of schema lengths %d", len(agg.Data), total)
	}

	// The schema slices the aggregate back into per-feature vectors.
	for _, e := range schema {
		slice := agg.Data[e.Offset : e.Offset+e.Length]
		if len(slice) != len(e.Fields) {
			t.Errorf("feature %s: %d values for %d fields", e.FeatureName, len(slice), len(e.Fields))
		}
	}
}

func TestEnhanceEndToEndScenario(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, `{
		"features": [
			{"name": "flag", "dataType": "BOOLEAN"},
			{"name": "age", "dataType": "NUMERIC"}
		],
		"entries": {
			"flag": {"numOfNotNull": 100, "numOfTrue": 75},
			"age": {"numOfNotNull": 10, "min": 1.5, "max": 98.7, "avg": 45.2, "q1": 25.0, "q2": 44.5, "q3": 65.8}
		}
	}`)

	_, encoders, schema := engine.Enhance(ds, "")

	want := Vector{100, 75, 10, 1.5, 98.7, 45.2, 25.0, 44.5, 65.8}
	if !reflect.DeepEqual(encoders[0].Data, want) {
		t.Errorf("aggregated vector = %v, want %v", encoders[0].Data, want)
	}
	if len(schema) != 2 || schema[0].Offset != 0 || schema[1].Offset != 2 {
		t.Errorf("schema = %+v, want offsets 0 and 2", schema)
	}
}

func TestEnhanceLegacyFormat(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, `{"entries": [
		{"featureSet": {"features": [
			{"name": "isSmoker", "dataType": "BOOLEAN", "statistics": {"numOfNotNull": 50, "numOfTrue": 12}},
			{"name": "weight", "dataType": "NUMERIC", "statistics": {"numOfNotNull": 48, "min": 50.0, "max": 120.0, "avg": 78.4, "q1": 65.0, "q2": 77.0, "q3": 90.0}}
		]}}
	]}`)

	enhanced, encoders, schema := engine.Enhance(ds, "")

	if len(encoders) != 1 {
		t.Fatalf("got %d encoders, want 1 aggregated", len(encoders))
	}
	want := Vector{50, 12, 48, 50.0, 120.0, 78.4, 65.0, 77.0, 90.0}
	if !reflect.DeepEqual(encoders[0].Data, want) {
		t.Errorf("aggregated data = %v, want %v", encoders[0].Data, want)
	}
	if len(schema) != 2 || schema[1].Offset != 2 {
		t.Errorf("schema = %+v", schema)
	}

	entries := enhanced["entries"].([]any)
	featureSet := entries[0].(map[string]any)["featureSet"].(map[string]any)
	features := featureSet["features"].([]any)
	for i, raw := range features {
		feat := raw.(map[string]any)
		if _, ok := feat["vectorized_statistics"]; !ok {
			t.Errorf("legacy feature %d missing vectorized_statistics", i)
		}
	}
}

func TestEnhanceQueryFilter(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, directDataset)

	enhanced, encoders, schema := engine.Enhance(ds, "numFeature")

	// Exactly one schema entry and one per-feature encoder, not aggregated.
	if len(schema) != 1 || schema[0].FeatureName != "numFeature" {
		t.Fatalf("schema = %+v, want only numFeature", schema)
	}
	if len(encoders) != 1 {
		t.Fatalf("got %d encoders, want 1", len(encoders))
	}
	if encoders[0].Type != "float" || encoders[0].DataType != "NUMERIC" {
		t.Errorf("encoder = %+v, want a per-feature NUMERIC encoder", encoders[0])
	}

	// Other features pass through present but unvectorized.
	entries := enhanced["entries"].(map[string]any)
	if _, ok := entries["boolFeature"].(map[string]any)["vectorized_statistics"]; ok {
		t.Error("boolFeature was vectorized despite the query filter")
	}
	if _, ok := entries["numFeature"].(map[string]any)["vectorized_statistics"]; !ok {
		t.Error("queried feature numFeature was not vectorized")
	}
}

func TestEnhanceQueryNoMatch(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, directDataset)

	_, encoders, schema := engine.Enhance(ds, "noSuchFeature")

	if len(encoders) != 0 || len(schema) != 0 {
		t.Errorf("got %d encoders and %d schema entries, want empty", len(encoders), len(schema))
	}
}

func TestEnhanceUnknownFormat(t *testing.T) {
	engine := NewEngine()

	tests := []string{
		`{"name": "no entries at all"}`,
		`{"entries": 42}`,
		`{"entries": "not a collection"}`,
		`{"entries": null}`,
	}
	for _, doc := range tests {
		ds := parseJSON(t, doc)
		enhanced, encoders, schema := engine.Enhance(ds, "")

		if len(encoders) != 0 || len(schema) != 0 {
			t.Errorf("%s: got %d encoders, %d schema entries, want empty", doc, len(encoders), len(schema))
		}
		if !reflect.DeepEqual(enhanced, ds) {
			t.Errorf("%s: dataset changed on unknown format", doc)
		}
	}
}

func TestEnhanceSkipsDatetimeAndUnknown(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, `{"entries": {
		"admitted": {"numOfNotNull": 30},
		"mystery": {"weird": true},
		"flag": {"numOfNotNull": 10, "numOfTrue": 5}
	}}`)

	enhanced, encoders, schema := engine.Enhance(ds, "")

	if len(schema) != 1 || schema[0].FeatureName != "flag" {
		t.Fatalf("schema = %+v, want only flag", schema)
	}
	if len(encoders) != 1 || encoders[0].TotalFeatures != 1 {
		t.Errorf("encoders = %+v", encoders)
	}

	// Skipped features stay in the output, unmodified.
	entries := enhanced["entries"].(map[string]any)
	for _, name := range []string{"admitted", "mystery"} {
		record, ok := entries[name].(map[string]any)
		if !ok {
			t.Fatalf("feature %s dropped from enhanced dataset", name)
		}
		if _, ok := record["vectorized_statistics"]; ok {
			t.Errorf("out-of-scope feature %s was vectorized", name)
		}
	}
}

func TestEnhanceTypeInferenceWithoutMetadata(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, `{"entries": {
		"bool": {"numOfNotNull": 8, "numOfTrue": 3},
		"cat": {"numOfNotNull": 6, "valueSet": ["x", "y"], "cardinalityPerItem": {"x": 4, "y": 2}},
		"num": {"numOfNotNull": 4, "min": 0.5, "max": 9.5, "avg": 5.0, "q1": 2.0, "q2": 5.0, "q3": 8.0}
	}}`)

	_, _, schema := engine.Enhance(ds, "")

	wantTypes := map[string]string{"bool": "BOOLEAN", "cat": "NOMINAL", "num": "NUMERIC"}
	if len(schema) != len(wantTypes) {
		t.Fatalf("schema = %+v", schema)
	}
	for _, e := range schema {
		if e.DataType != wantTypes[e.FeatureName] {
			t.Errorf("%s inferred as %s, want %s", e.FeatureName, e.DataType, wantTypes[e.FeatureName])
		}
	}
}

func TestEnhanceMetadataOverridesInference(t *testing.T) {
	engine := NewEngine()

	// The record shape says BOOLEAN but metadata declares ORDINAL.
	ds := parseJSON(t, `{
		"features": [{"name": "grade", "dataType": "ORDINAL"}],
		"entries": {"grade": {"numOfNotNull": 10, "numOfTrue": 2}}
	}`)

	_, _, schema := engine.Enhance(ds, "")
	if len(schema) != 1 || schema[0].DataType != "ORDINAL" {
		t.Errorf("schema = %+v, want declared ORDINAL to win", schema)
	}
}

func TestEnhanceDoesNotMutateInput(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, directDataset)

	before, err := json.Marshal(ds)
	if err != nil {
		t.Fatal(err)
	}
	engine.Enhance(ds, "")
	after, err := json.Marshal(ds)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("Enhance mutated its input dataset")
	}
}

func TestEnhanceLegacyDoesNotMutateInput(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, `{"entries": [
		{"featureSet": {"features": [
			{"name": "a", "dataType": "BOOLEAN", "statistics": {"numOfNotNull": 1, "numOfTrue": 1}}
		]}}
	]}`)

	before, _ := json.Marshal(ds)
	engine.Enhance(ds, "")
	after, _ := json.Marshal(ds)
	if string(before) != string(after) {
		t.Error("Enhance mutated its legacy input dataset")
	}
}

func TestEnhanceEmptyEntries(t *testing.T) {
	engine := NewEngine()

	for _, doc := range []string{`{"entries": {}}`, `{"entries": []}`} {
		_, encoders, schema := engine.Enhance(parseJSON(t, doc), "")
		if len(encoders) != 0 || len(schema) != 0 {
			t.Errorf("%s: got %d encoders, %d schema entries, want empty", doc, len(encoders), len(schema))
		}
	}
}

func TestEnhanceVectorizedStatisticsShape(t *testing.T) {
	engine := NewEngine()
	ds := parseJSON(t, `{
		"features": [{"name": "flag", "dataType": "BOOLEAN"}],
		"entries": {"flag": {"numOfNotNull": 100, "numOfTrue": 75}}
	}`)

	enhanced, _, _ := engine.Enhance(ds, "")

	record := enhanced["entries"].(map[string]any)["flag"].(map[string]any)
	vs, ok := record["vectorized_statistics"].(map[string]any)
	if !ok {
		t.Fatal("vectorized_statistics missing or wrong shape")
	}
	if !reflect.DeepEqual(vs["vectorized"], Vector{100, 75}) {
		t.Errorf("vectorized = %v", vs["vectorized"])
	}
	if vs["dataType"] != "BOOLEAN" {
		t.Errorf("dataType = %v", vs["dataType"])
	}
	enc, ok := vs["encoder"].(EncoderObject)
	if !ok {
		t.Fatalf("encoder = %T, want EncoderObject", vs["encoder"])
	}
	if enc.Type != "int" || enc.VectorLength != 2 {
		t.Errorf("encoder = %+v", enc)
	}

	// The enhanced dataset must serialize cleanly.
	if _, err := json.Marshal(enhanced); err != nil {
		t.Errorf("enhanced dataset does not marshal: %v", err)
	}
}

func TestEnhanceConcurrent(t *testing.T) {
	engine := NewEngine()

	// One engine, many goroutines, independent datasets.
	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func() {
			for i := 0; i < 50; i++ {
				ds := Dataset{"entries": map[string]any{
					"flag": map[string]any{"numOfNotNull": float64(10), "numOfTrue": float64(4)},
				}}
				_, encoders, schema := engine.Enhance(ds, "")
				if len(encoders) != 1 || len(schema) != 1 {
					done <- errEnhance
					return
				}
			}
			done <- nil
		}()
	}
	for g := 0; g < 8; g++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
