package statvec

// EncoderObject is a typed wrapper around a vector, carrying enough metadata
// for a downstream aggregator to interpret the values without a schema
// lookup. Build one with Encoder.Encode and treat it as immutable.
type EncoderObject struct {
	// Type is the wire type tag: "int", "float" or "mixed".
	Type string `json:"type"`

	// Data is the raw vector, unmodified.
	Data Vector `json:"data"`

	// DataType is the canonical upper-case data type name. Empty on
	// aggregated encoders, which combine several types.
	DataType string `json:"dataType,omitempty"`

	// VectorLength is len(Data).
	VectorLength int `json:"vectorLength"`

	// TotalFeatures and DataTypes are set on aggregated encoders only.
	TotalFeatures int      `json:"totalFeatures,omitempty"`
	DataTypes     []string `json:"dataTypes,omitempty"`
}

// VectorSchema describes the vector layout a data type produces.
type VectorSchema struct {
	DataType     string   `json:"dataType"`
	VectorLength int      `json:"vectorLength"`
	Fields       []string `json:"fields"`
}

// Encoder vectorizes statistics records and wraps the results into typed
// encoder objects. The registry mapping data types to vectorizers is fixed
// at construction, so an Encoder is safe for concurrent use.
type Encoder struct {
	registry map[DataType]Vectorizer
	// order fixes the iteration order of the registry for every operation
	// that enumerates it. Offsets are assigned positionally by independent
	// services that never communicate, so no output may depend on map
	// iteration order.
	order    []DataType
	fallback Vectorizer
}

// NewEncoder returns an Encoder with the default vectorizer registry:
// Boolean, Numeric, and the shared categorical vectorizer for Nominal and
// Ordinal.
func NewEncoder() *Encoder {
	categorical := categoricalVectorizer{}
	return &Encoder{
		registry: map[DataType]Vectorizer{
			Boolean: booleanVectorizer{},
			Numeric: numericVectorizer{},
			Nominal: categorical,
			Ordinal: categorical,
		},
		order:    []DataType{Boolean, Numeric, Nominal, Ordinal},
		fallback: categorical,
	}
}

// Register installs a vectorizer for a data type, replacing any default.
// Call it before the Encoder is shared between goroutines; the registry is
// read-only once enhancement starts.
func (e *Encoder) Register(dt DataType, v Vectorizer) {
	if _, ok := e.registry[dt]; !ok {
		e.order = append(e.order, dt)
	}
	e.registry[dt] = v
}

// Vectorizer returns the vectorizer registered for the data type. An
// unrecognized type gets the categorical vectorizer: a permissive fallback,
// not a validation gate.
func (e *Encoder) Vectorizer(dt DataType) Vectorizer {
	if v, ok := e.registry[dt]; ok {
		return v
	}
	return e.fallback
}

// Encode wraps a vector into an encoder object. The wire type tag is "int"
// for Boolean and categorical types, "float" for Numeric, and "int" for
// anything unrecognized.
func (e *Encoder) Encode(dt DataType, vec Vector) EncoderObject {
	return EncoderObject{
		Type:         wireType(dt),
		Data:         vec,
		DataType:     dt.String(),
		VectorLength: len(vec),
	}
}

// VectorizeStatistics converts a statistics record using the vectorizer
// registered for the data type. A vectorizer failure yields the single
// element fallback vector [0] rather than propagating: one broken feature
// must not abort processing of the whole dataset.
func (e *Encoder) VectorizeStatistics(dt DataType, stats Statistics) (vec Vector) {
	defer func() {
		if recover() != nil {
			vec = Vector{0}
		}
	}()
	return e.Vectorizer(dt).Vectorize(stats)
}

// SupportedDataTypes lists the registered data type names in registry order.
func (e *Encoder) SupportedDataTypes() []string {
	types := make([]string, 0, len(e.order))
	for _, dt := range e.order {
		types = append(types, dt.String())
	}
	return types
}

// Schema returns the vector layout the data type produces.
func (e *Encoder) Schema(dt DataType) VectorSchema {
	v := e.Vectorizer(dt)
	return VectorSchema{
		DataType:     dt.String(),
		VectorLength: v.VectorLength(),
		Fields:       v.FieldNames(),
	}
}

func wireType(dt DataType) string {
	if dt == Numeric {
		return "float"
	}
	return "int"
}
