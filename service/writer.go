package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/aethm/statvec/statvec"
)

// ArtifactPaths lists where the three output documents were written.
type ArtifactPaths struct {
	EnhancedData string `json:"enhancedData"`
	Encoders     string `json:"encodersOnly"`
	Schema       string `json:"schema"`
}

// ResultWriter persists the enhanced dataset, the encoders list and the
// schema list as three independent JSON documents, and result snapshots
// retrieved by the poller. Artifacts can optionally be zstd-compressed.
type ResultWriter struct {
	outputDir  string
	resultsDir string
	compress   bool

	encoders sync.Pool // *zstd.Encoder
}

// NewResultWriter returns a writer for the given directories.
func NewResultWriter(outputDir, resultsDir string, compress bool) *ResultWriter {
	return &ResultWriter{
		outputDir:  outputDir,
		resultsDir: resultsDir,
		compress:   compress,
		encoders: sync.Pool{
			New: func() any {
				enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
				return enc
			},
		},
	}
}

// WriteArtifacts persists the three vectorization outputs and returns their
// paths.
func (w *ResultWriter) WriteArtifacts(ds statvec.Dataset, encoders []statvec.EncoderObject, schema []statvec.SchemaEntry) (*ArtifactPaths, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, wrapError("WriteArtifacts", w.outputDir, err)
	}

	paths := &ArtifactPaths{
		EnhancedData: w.artifactPath("enhanced_dataset.json"),
		Encoders:     w.artifactPath("encoders_only.json"),
		Schema:       w.artifactPath("schema.json"),
	}
	docs := []struct {
		path string
		v    any
	}{
		{paths.EnhancedData, ds},
		{paths.Encoders, encoders},
		{paths.Schema, schema},
	}
	for _, doc := range docs {
		if err := w.writeJSON(doc.path, doc.v); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// snapshot is the persisted form of a completed job's aggregated results.
type snapshot struct {
	JobID             string         `json:"jobId"`
	SnapshotID        string         `json:"snapshotId"`
	Timestamp         string         `json:"timestamp"`
	Status            string         `json:"status"`
	AggregatedResults any            `json:"aggregatedResults"`
	Metadata          map[string]any `json:"metadata"`
	RetrievedAt       string         `json:"retrievedAt"`
	Source            string         `json:"source"`
}

// WriteSnapshot persists a completed job's status data under resultsDir as
// {jobId}_results_{timestamp}.json.
func (w *ResultWriter) WriteSnapshot(jobID string, status *JobStatus) error {
	if err := os.MkdirAll(w.resultsDir, 0755); err != nil {
		return wrapError("WriteSnapshot", w.resultsDir, err)
	}

	now := time.Now()
	snap := snapshot{
		JobID:             jobID,
		SnapshotID:        uuid.New().String(),
		Timestamp:         now.Format(time.RFC3339),
		Status:            StatusCompleted,
		AggregatedResults: status.AggregatedResults,
		Metadata:          status.Metadata,
		RetrievedAt:       now.Format(time.RFC3339),
		Source:            "orchestrator_polling",
	}

	name := jobID + "_results_" + now.Format("20060102_150405") + ".json"
	if w.compress {
		name += ".zst"
	}
	return w.writeJSON(filepath.Join(w.resultsDir, name), snap)
}

func (w *ResultWriter) artifactPath(name string) string {
	if w.compress {
		name += ".zst"
	}
	return filepath.Join(w.outputDir, name)
}

// writeJSON marshals v and writes it to path, compressing when enabled.
func (w *ResultWriter) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return wrapError("WriteArtifacts", path, err)
	}
	if w.compress {
		enc := w.encoders.Get().(*zstd.Encoder)
		data = enc.EncodeAll(data, nil)
		w.encoders.Put(enc)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return wrapError("WriteArtifacts", path, err)
	}
	return nil
}
