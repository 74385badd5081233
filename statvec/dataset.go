package statvec

import (
	"encoding/json"
	"sort"
)

// Dataset is a parsed dataset document. It stays loosely typed because two
// historical input shapes must be accepted:
//
//   - direct: "entries" is a mapping from feature name to its statistics
//     record, optionally with a sibling "features" sequence of
//     {name, dataType} metadata that overrides type inference.
//   - legacy: "entries" is a sequence of entry objects, each holding a
//     nested featureSet.features sequence of {name, dataType, statistics}.
//
// Anything else is an unknown format and vectorizes to an empty result.
type Dataset map[string]any

// Statistics is one feature's statistics record, keyed by statistic name.
type Statistics map[string]any

// Has reports whether the statistic is present.
func (s Statistics) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Number returns the statistic as a float64, or 0 if it is absent or not
// numeric. Missing statistics never fail vectorization; they zero-fill.
func (s Statistics) Number(key string) float64 {
	n, _ := numberValue(s[key])
	return n
}

// numberValue coerces the numeric shapes encoding/json can produce.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// datasetFormat classifies the shape of a dataset's entries.
type datasetFormat int

const (
	formatUnknown datasetFormat = iota
	formatDirect
	formatLegacy
)

// detectFormat classifies the dataset. Exactly one of the two supported
// shapes is recognized per call; everything else is formatUnknown.
func detectFormat(ds Dataset) datasetFormat {
	switch ds["entries"].(type) {
	case map[string]any:
		return formatDirect
	case []any:
		return formatLegacy
	default:
		return formatUnknown
	}
}

// feature is the normalized representation both parse paths produce: one
// record per feature, in processing order.
type feature struct {
	name     string
	declared DataType
	explicit bool // declared came from metadata, not inference
	stats    Statistics

	// position inside the legacy entries sequence, for rebuilding output
	entryIndex   int
	featureIndex int
}

// resolveType returns the feature's effective data type: the declared type
// when metadata supplied one, otherwise the inferred type.
func (f *feature) resolveType() DataType {
	if f.explicit {
		return f.declared
	}
	return InferDataType(f.stats)
}

// parseDirect normalizes a direct-format dataset. Processing order is the
// order of the "features" metadata sequence when present, with any entries
// not listed there appended in sorted-name order. The order must be stable
// across runs and across independent services encoding the same dataset,
// since offsets are assigned by position and never communicated.
func parseDirect(ds Dataset) []feature {
	entries, _ := ds["entries"].(map[string]any)

	declared := make(map[string]DataType)
	var order []string
	seen := make(map[string]bool)

	if metas, ok := ds["features"].([]any); ok {
		for _, raw := range metas {
			meta, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := meta["name"].(string)
			if name == "" {
				continue
			}
			if dt, ok := meta["dataType"].(string); ok && dt != "" {
				declared[name] = ParseDataType(dt)
			}
			if _, exists := entries[name]; exists && !seen[name] {
				order = append(order, name)
				seen[name] = true
			}
		}
	}

	rest := make([]string, 0, len(entries))
	for name := range entries {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	features := make([]feature, 0, len(order))
	for _, name := range order {
		stats, ok := entries[name].(map[string]any)
		if !ok {
			continue
		}
		f := feature{name: name, stats: Statistics(stats)}
		if dt, ok := declared[name]; ok {
			f.declared = dt
			f.explicit = true
		}
		features = append(features, f)
	}
	return features
}

// parseLegacy normalizes a legacy-format dataset, reading features from the
// nested featureSet.features sequences in encounter order.
func parseLegacy(ds Dataset) []feature {
	entries, _ := ds["entries"].([]any)

	var features []feature
	for ei, rawEntry := range entries {
		entry, ok := rawEntry.(map[string]any)
		if !ok {
			continue
		}
		featureSet, _ := entry["featureSet"].(map[string]any)
		list, _ := featureSet["features"].([]any)
		for fi, rawFeature := range list {
			feat, ok := rawFeature.(map[string]any)
			if !ok {
				continue
			}
			name, _ := feat["name"].(string)
			if name == "" {
				continue
			}
			f := feature{
				name:         name,
				entryIndex:   ei,
				featureIndex: fi,
			}
			if stats, ok := feat["statistics"].(map[string]any); ok {
				f.stats = Statistics(stats)
			} else {
				f.stats = Statistics{}
			}
			if dt, ok := feat["dataType"].(string); ok && dt != "" {
				f.declared = ParseDataType(dt)
				f.explicit = true
			}
			features = append(features, f)
		}
	}
	return features
}

// copyRecord makes a shallow copy of a JSON object. Enhancement is
// copy-on-write: only records that gain a vectorized_statistics field are
// copied, untouched records are shared with the input.
func copyRecord(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
