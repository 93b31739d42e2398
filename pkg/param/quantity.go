package param

import "fmt"

// Quantity is a physical value with a unit, e.g. 12.5 GHz. It is a
// registered external value type: the codec encodes it as a tagged wrapper
// with a canonical scalar payload, like timestamps.
//
// Units are opaque strings; no dimensional analysis is performed.
type Quantity struct {
	Value float64
	Unit  string
}

// String formats the quantity as "<value> <unit>".
func (q Quantity) String() string {
	return fmt.Sprintf("%v %s", q.Value, q.Unit)
}
