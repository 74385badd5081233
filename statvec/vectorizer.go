package statvec

// Vector is a fixed-length numeric vector produced from one statistics
// record. Values are float64 regardless of the declared wire type; the
// encoder's type tag tells receivers how to interpret them.
type Vector []float64

// Vectorizer converts a statistics record into a fixed-length vector.
// Implementations are pure and stateless: they never fail on missing or
// malformed statistics, substituting zeros instead, so one bad feature can
// never abort aggregation of the rest.
type Vectorizer interface {
	// Vectorize converts the record. The result always has exactly
	// VectorLength elements.
	Vectorize(stats Statistics) Vector

	// VectorLength returns the fixed output length.
	VectorLength() int

	// FieldNames returns the name of each vector position, in order.
	FieldNames() []string
}

// booleanVectorizer produces [numOfNotNull, numOfTrue].
type booleanVectorizer struct{}

func (booleanVectorizer) Vectorize(stats Statistics) Vector {
	return Vector{
		stats.Number("numOfNotNull"),
		stats.Number("numOfTrue"),
	}
}

func (booleanVectorizer) VectorLength() int { return 2 }

func (booleanVectorizer) FieldNames() []string {
	return []string{"numOfNotNull", "numOfTrue"}
}

// numericVectorizer produces [numOfNotNull, min, max, avg, q1, q2, q3].
// A record with numOfNotNull == 0 zero-fills the whole vector so its length
// stays constant regardless of which downstream fields are missing; partial
// vectors would desynchronize schema offsets.
type numericVectorizer struct{}

func (v numericVectorizer) Vectorize(stats Statistics) Vector {
	if stats.Number("numOfNotNull") == 0 {
		return make(Vector, v.VectorLength())
	}
	return Vector{
		stats.Number("numOfNotNull"),
		stats.Number("min"),
		stats.Number("max"),
		stats.Number("avg"),
		stats.Number("q1"),
		stats.Number("q2"),
		stats.Number("q3"),
	}
}

func (numericVectorizer) VectorLength() int { return 7 }

func (numericVectorizer) FieldNames() []string {
	return []string{"numOfNotNull", "min", "max", "avg", "q1", "q2", "q3"}
}

// categoricalVectorizer produces [numOfNotNull, numUniqueValues,
// topValueCount]. It serves both NOMINAL and ORDINAL features.
type categoricalVectorizer struct{}

func (v categoricalVectorizer) Vectorize(stats Statistics) Vector {
	notNull := stats.Number("numOfNotNull")
	if notNull == 0 {
		return make(Vector, v.VectorLength())
	}
	return Vector{
		notNull,
		float64(uniqueValues(stats["valueSet"])),
		topValueCount(stats["cardinalityPerItem"]),
	}
}

func (categoricalVectorizer) VectorLength() int { return 3 }

func (categoricalVectorizer) FieldNames() []string {
	return []string{"numOfNotNull", "numUniqueValues", "topValueCount"}
}

// uniqueValues counts the categories in a valueSet, which may arrive as a
// sequence or a mapping. An absent or unexpected shape counts as 0.
func uniqueValues(v any) int {
	switch set := v.(type) {
	case []any:
		return len(set)
	case map[string]any:
		return len(set)
	default:
		return 0
	}
}

// topValueCount returns the maximum count in a cardinalityPerItem value,
// which may be a mapping from category to count or a plain sequence of
// counts. Unknown shapes yield 0.
func topValueCount(v any) float64 {
	var top float64
	switch card := v.(type) {
	case map[string]any:
		for _, raw := range card {
			if n, ok := numberValue(raw); ok && n > top {
				top = n
			}
		}
	case []any:
		for _, raw := range card {
			if n, ok := numberValue(raw); ok && n > top {
				top = n
			}
		}
	}
	return top
}
