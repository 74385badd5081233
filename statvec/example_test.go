package statvec_test

import (
	"fmt"

	"github.com/aethm/statvec/statvec"
)

func ExampleEngine_Enhance() {
	engine := statvec.NewEngine()

	dataset := statvec.Dataset{
		"features": []any{
			map[string]any{"name": "everSmoked", "dataType": "BOOLEAN"},
			map[string]any{"name": "age", "dataType": "NUMERIC"},
		},
		"entries": map[string]any{
			"everSmoked": map[string]any{
				"numOfNotNull": float64(100),
				"numOfTrue":    float64(75),
			},
			"age": map[string]any{
				"numOfNotNull": float64(10),
				"min":          1.5, "max": 98.7, "avg": 45.2,
				"q1": 25.0, "q2": 44.5, "q3": 65.8,
			},
		},
	}

	_, encoders, schema := engine.Enhance(dataset, "")

	fmt.Println("aggregated:", encoders[0].Data)
	for _, entry := range schema {
		fmt.Printf("%s %s offset=%d length=%d\n",
			entry.FeatureName, entry.DataType, entry.Offset, entry.Length)
	}
	// Output:
	// aggregated: [100 75 10 1.5 98.7 45.2 25 44.5 65.8]
	// everSmoked BOOLEAN offset=0 length=2
	// age NUMERIC offset=2 length=7
}
