package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// wholeNumber decodes a JSON integer or float into a whole number.
// Floats truncate toward zero and saturate at the int range.
type wholeNumber struct {
	value int
	set   bool
}

func (n *wholeNumber) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*n = wholeNumber{}
		return nil
	}
	v, ok := decodeWhole(data)
	if !ok {
		return fmt.Errorf("expected a number, got %s", data)
	}
	*n = wholeNumber{value: v, set: true}
	return nil
}

func (n wholeNumber) or(def int) int {
	if !n.set {
		return def
	}
	return n.value
}

func decodeWhole(data []byte) (int, bool) {
	if isNull(data) {
		return 0, false
	}
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		return int(i), true
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return saturate(f), true
	}
	return 0, false
}

func saturate(f float64) int {
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	default:
		return int(f)
	}
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
