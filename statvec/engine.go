package statvec

// Engine orchestrates one enhancement pass: format detection, per-feature
// type resolution, vectorization, schema assignment, and aggregation.
//
// An Engine holds no cross-call state beyond its read-only vectorizer
// registry, so a single instance may serve any number of concurrent
// Enhance calls against independent datasets.
type Engine struct {
	encoder *Encoder
}

// Option configures an Engine.
type Option func(*Engine)

// WithVectorizer registers a custom vectorizer for a data type, replacing
// the default one if present.
func WithVectorizer(dt DataType, v Vectorizer) Option {
	return func(e *Engine) {
		e.encoder.Register(dt, v)
	}
}

// NewEngine returns an Engine with the default vectorizer registry.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{encoder: NewEncoder()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encoder returns the engine's encoder.
func (e *Engine) Encoder() *Encoder { return e.encoder }

// vectorized is the per-feature result attached to the enhanced dataset.
type vectorized struct {
	vector   Vector
	encoder  EncoderObject
	dataType DataType
}

// asRecord renders the vectorized_statistics field.
func (v *vectorized) asRecord() map[string]any {
	return map[string]any{
		"vectorized": v.vector,
		"encoder":    v.encoder,
		"dataType":   v.dataType.String(),
	}
}

// Enhance vectorizes every eligible feature of the dataset and returns the
// enhanced dataset, the encoders list, and the schema list.
//
// The input dataset is never mutated: the enhanced dataset is a rebuilt
// structure that shares untouched records with the input (copy-on-write),
// so a dataset may safely be shared between concurrent Enhance calls.
//
// If query is non-empty, only the feature with that exact name is
// processed; everything else passes through unchanged and no aggregation
// happens. With no query, all per-feature vectors are concatenated in
// schema order into a single aggregated encoder.
//
// An unrecognized entries shape is not an error: the dataset comes back
// unchanged with empty encoders and schema, meaning "nothing to vectorize".
func (e *Engine) Enhance(ds Dataset, query string) (Dataset, []EncoderObject, []SchemaEntry) {
	var features []feature
	format := detectFormat(ds)
	switch format {
	case formatDirect:
		features = parseDirect(ds)
	case formatLegacy:
		features = parseLegacy(ds)
	default:
		return ds, []EncoderObject{}, []SchemaEntry{}
	}

	results := make(map[int]*vectorized) // index into features
	encoders := []EncoderObject{}
	schema := &schemaBuilder{}

	for i := range features {
		f := &features[i]
		if query != "" && f.name != query {
			continue
		}
		dt := f.resolveType()
		if dt == Datetime || dt == Unknown {
			// Out-of-scope data types pass through unmodified; this is
			// not a processing failure.
			continue
		}
		vec := e.encoder.VectorizeStatistics(dt, f.stats)
		obj := e.encoder.Encode(dt, vec)
		schema.add(f.name, dt, vec, e.encoder.Vectorizer(dt).FieldNames())
		results[i] = &vectorized{vector: vec, encoder: obj, dataType: dt}
		encoders = append(encoders, obj)
	}

	var enhanced Dataset
	if format == formatDirect {
		enhanced = buildDirectOutput(ds, features, results)
	} else {
		enhanced = buildLegacyOutput(ds, features, results)
	}

	if query == "" && len(encoders) > 0 {
		encoders = []EncoderObject{e.aggregate(encoders)}
	}
	return enhanced, encoders, schema.build()
}

// aggregate concatenates every per-feature vector, in schema order, into a
// single encoder object for transmission to the SMPC participant. The type
// tag is always "mixed": receivers slice the data by schema, not by tag.
func (e *Engine) aggregate(encoders []EncoderObject) EncoderObject {
	total := 0
	for _, enc := range encoders {
		total += len(enc.Data)
	}
	flat := make(Vector, 0, total)
	for _, enc := range encoders {
		flat = append(flat, enc.Data...)
	}
	return EncoderObject{
		Type:          "mixed",
		Data:          flat,
		VectorLength:  len(flat),
		TotalFeatures: len(encoders),
		DataTypes:     e.encoder.SupportedDataTypes(),
	}
}

// buildDirectOutput rebuilds a direct-format dataset, attaching
// vectorized_statistics to each processed feature's statistics record.
func buildDirectOutput(ds Dataset, features []feature, results map[int]*vectorized) Dataset {
	processed := make(map[string]*vectorized, len(results))
	for i, res := range results {
		processed[features[i].name] = res
	}

	entries, _ := ds["entries"].(map[string]any)
	outEntries := make(map[string]any, len(entries))
	for name, record := range entries {
		res, ok := processed[name]
		if !ok {
			outEntries[name] = record
			continue
		}
		stats, ok := record.(map[string]any)
		if !ok {
			outEntries[name] = record
			continue
		}
		updated := copyRecord(stats)
		updated["vectorized_statistics"] = res.asRecord()
		outEntries[name] = updated
	}

	out := copyRecord(ds)
	out["entries"] = outEntries
	return out
}

// buildLegacyOutput rebuilds a legacy-format dataset, attaching
// vectorized_statistics to processed feature objects inside the nested
// featureSet.features sequences.
func buildLegacyOutput(ds Dataset, features []feature, results map[int]*vectorized) Dataset {
	type position struct{ entry, feature int }
	processed := make(map[position]*vectorized, len(results))
	for i, res := range results {
		processed[position{features[i].entryIndex, features[i].featureIndex}] = res
	}

	entries, _ := ds["entries"].([]any)
	outEntries := make([]any, len(entries))
	for ei, rawEntry := range entries {
		entry, ok := rawEntry.(map[string]any)
		if !ok {
			outEntries[ei] = rawEntry
			continue
		}
		featureSet, ok := entry["featureSet"].(map[string]any)
		if !ok {
			outEntries[ei] = rawEntry
			continue
		}
		list, ok := featureSet["features"].([]any)
		if !ok {
			outEntries[ei] = rawEntry
			continue
		}

		outList := make([]any, len(list))
		touched := false
		for fi, rawFeature := range list {
			res, ok := processed[position{ei, fi}]
			if !ok {
				outList[fi] = rawFeature
				continue
			}
			feat, ok := rawFeature.(map[string]any)
			if !ok {
				outList[fi] = rawFeature
				continue
			}
			updated := copyRecord(feat)
			updated["vectorized_statistics"] = res.asRecord()
			outList[fi] = updated
			touched = true
		}
		if !touched {
			outEntries[ei] = rawEntry
			continue
		}

		outFeatureSet := copyRecord(featureSet)
		outFeatureSet["features"] = outList
		outEntry := copyRecord(entry)
		outEntry["featureSet"] = outFeatureSet
		outEntries[ei] = outEntry
	}

	out := copyRecord(ds)
	out["entries"] = outEntries
	return out
}
