package binfmt_test

import (
	"bytes"
	"fmt"

	"github.com/penguinmenac3/binrec/binfmt"
)

// Measurement is an application record type: a sensor id, a series of
// readings, and a label.
type Measurement struct {
	Sensor   int32
	Readings []any
	Label    string
}

// Example registers a record type under a tag, writes a batch of records
// as one concatenated stream, and reads them all back.
func Example() {
	reg := binfmt.NewRegistry()
	err := reg.Register('M', "i[d][s]",
		func(fields []any) (any, error) {
			return Measurement{
				Sensor:   fields[0].(int32),
				Readings: fields[1].([]any),
				Label:    fields[2].(string),
			}, nil
		},
		func(v any) ([]any, error) {
			m, ok := v.(Measurement)
			if !ok {
				return nil, fmt.Errorf("not a Measurement: %T", v)
			}
			return []any{m.Sensor, m.Readings, m.Label}, nil
		})
	if err != nil {
		fmt.Println(err)
		return
	}

	records := []any{
		Measurement{Sensor: 1, Readings: []any{1.5, 2.5}, Label: "front"},
		Measurement{Sensor: 2, Readings: []any{3.5}, Label: "rear"},
	}

	var buf bytes.Buffer
	if err := binfmt.Encode(reg, "M", records, &buf); err != nil {
		fmt.Println(err)
		return
	}

	decoded, err := binfmt.DecodeAll(reg, "M", bytes.NewReader(buf.Bytes()))
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, v := range decoded {
		m := v.(Measurement)
		fmt.Printf("sensor %d %s: %v\n", m.Sensor, m.Label, m.Readings)
	}

	// Output:
	// sensor 1 front: [1.5 2.5]
	// sensor 2 rear: [3.5]
}
