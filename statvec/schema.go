package statvec

// SchemaEntry describes where one feature's vector lives inside the
// flattened aggregate vector. The full schema list is the authoritative
// decoder ring for slicing the aggregate back into per-feature values.
type SchemaEntry struct {
	FeatureName string   `json:"featureName"`
	DataType    string   `json:"dataType"`
	Offset      int      `json:"offset"`
	Length      int      `json:"length"`
	Fields      []string `json:"fields"`
}

// schemaBuilder assigns contiguous offset ranges to features in the order
// they are processed. Offsets start at 0 and advance by each vector's
// length: append-only, monotonically increasing, no gaps, no overlaps.
// Given the same ordered input it always produces the same schema, so
// independent services encoding the same dataset agree on offsets without
// communicating.
type schemaBuilder struct {
	entries []SchemaEntry
	offset  int
}

func (b *schemaBuilder) add(name string, dt DataType, vec Vector, fields []string) {
	b.entries = append(b.entries, SchemaEntry{
		FeatureName: name,
		DataType:    dt.String(),
		Offset:      b.offset,
		Length:      len(vec),
		Fields:      fields,
	})
	b.offset += len(vec)
}

func (b *schemaBuilder) build() []SchemaEntry {
	if b.entries == nil {
		return []SchemaEntry{}
	}
	return b.entries
}
