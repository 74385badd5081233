package statvec

import "strings"

// DataType identifies the statistical kind of a feature. It is a closed set:
// unrecognized names parse to Unknown rather than erroring.
type DataType int

const (
	Unknown DataType = iota
	Boolean
	Numeric
	Nominal
	Ordinal
	Datetime
)

// String returns the canonical upper-case wire name of the data type.
func (d DataType) String() string {
	switch d {
	case Boolean:
		return "BOOLEAN"
	case Numeric:
		return "NUMERIC"
	case Nominal:
		return "NOMINAL"
	case Ordinal:
		return "ORDINAL"
	case Datetime:
		return "DATETIME"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType maps a declared data-type name to its DataType.
// Matching is case-insensitive; anything unrecognized is Unknown.
func ParseDataType(s string) DataType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BOOLEAN":
		return Boolean
	case "NUMERIC":
		return Numeric
	case "NOMINAL":
		return Nominal
	case "ORDINAL":
		return Ordinal
	case "DATETIME":
		return Datetime
	default:
		return Unknown
	}
}

// InferDataType guesses a feature's data type from the shape of its
// statistics record. Precedence:
//
//  1. numOfTrue present                    -> Boolean
//  2. valueSet and cardinalityPerItem      -> Nominal
//  3. min, max and avg present             -> Numeric
//  4. numOfNotNull with no other recognized statistic -> Datetime
//  5. anything else                        -> Unknown
//
// Datetime and Unknown features are excluded from vectorization but
// preserved unchanged in the enhanced dataset.
func InferDataType(stats Statistics) DataType {
	switch {
	case stats.Has("numOfTrue"):
		return Boolean
	case stats.Has("valueSet") && stats.Has("cardinalityPerItem"):
		return Nominal
	case stats.Has("min") && stats.Has("max") && stats.Has("avg"):
		return Numeric
	case stats.Has("numOfNotNull") && !hasRecognizedStat(stats):
		return Datetime
	default:
		return Unknown
	}
}

// recognizedStats are the statistic names the inference rules key on.
var recognizedStats = []string{
	"numOfTrue", "valueSet", "cardinalityPerItem",
	"min", "max", "avg", "q1", "q2", "q3",
}

func hasRecognizedStat(stats Statistics) bool {
	for _, key := range recognizedStats {
		if stats.Has(key) {
			return true
		}
	}
	return false
}
