package service

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/aethm/statvec/statvec"
)

func sampleOutputs() (statvec.Dataset, []statvec.EncoderObject, []statvec.SchemaEntry) {
	ds := statvec.Dataset{"entries": map[string]any{
		"flag": map[string]any{"numOfNotNull": float64(3), "numOfTrue": float64(1)},
	}}
	encoders := []statvec.EncoderObject{
		{Type: "mixed", Data: statvec.Vector{3, 1}, VectorLength: 2, TotalFeatures: 1},
	}
	schema := []statvec.SchemaEntry{
		{FeatureName: "flag", DataType: "BOOLEAN", Offset: 0, Length: 2, Fields: []string{"numOfNotNull", "numOfTrue"}},
	}
	return ds, encoders, schema
}

func TestWriteArtifacts(t *testing.T) {
	outDir := t.TempDir()
	w := NewResultWriter(outDir, t.TempDir(), false)

	ds, encoders, schema := sampleOutputs()
	paths, err := w.WriteArtifacts(ds, encoders, schema)
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	// Three independent, valid JSON documents.
	for _, path := range []string{paths.EnhancedData, paths.Encoders, paths.Schema} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			t.Errorf("%s is not valid JSON: %v", path, err)
		}
	}

	var gotSchema []statvec.SchemaEntry
	data, _ := os.ReadFile(paths.Schema)
	if err := json.Unmarshal(data, &gotSchema); err != nil {
		t.Fatal(err)
	}
	if len(gotSchema) != 1 || gotSchema[0].FeatureName != "flag" {
		t.Errorf("persisted schema = %+v", gotSchema)
	}
}

func TestWriteArtifactsCompressed(t *testing.T) {
	outDir := t.TempDir()
	w := NewResultWriter(outDir, t.TempDir(), true)

	ds, encoders, schema := sampleOutputs()
	paths, err := w.WriteArtifacts(ds, encoders, schema)
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	data, err := os.ReadFile(paths.Encoders)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(data, nil)
	if err != nil {
		t.Fatalf("artifact is not valid zstd: %v", err)
	}

	var gotEncoders []statvec.EncoderObject
	if err := json.Unmarshal(plain, &gotEncoders); err != nil {
		t.Fatalf("decompressed artifact is not valid JSON: %v", err)
	}
	if len(gotEncoders) != 1 || gotEncoders[0].Type != "mixed" {
		t.Errorf("persisted encoders = %+v", gotEncoders)
	}
}
