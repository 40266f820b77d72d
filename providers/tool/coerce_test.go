package tool

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name      string
		paramType ParamType
		value     any
		want      any
		wantErr   bool
	}{
		{"int64", Integer, int64(7), int64(7), false},
		{"int32", Integer, int32(-7), int64(-7), false},
		{"uint8", Integer, uint8(7), int64(7), false},
		{"uint64 overflow", Integer, uint64(math.MaxUint64), nil, true},
		{"json number", Integer, json.Number("42"), int64(42), false},
		{"json number exponent", Integer, json.Number("4.2e1"), int64(42), false},
		{"json number fraction", Integer, json.Number("4.5"), nil, true},
		{"float overflow", Integer, 1e19, nil, true},
		{"NaN", Integer, math.NaN(), nil, true},
		{"min int64 float", Integer, -9223372036854775808.0, int64(math.MinInt64), false},
		{"string garbage", Integer, "12abc", nil, true},
		{"number from int", Number, 3, 3.0, false},
		{"number from string", Number, "2.5", 2.5, false},
		{"number from bool", Number, false, nil, true},
		{"string", String, "x", "x", false},
		{"string from number", String, 3, nil, true},
		{"bool", Boolean, true, true, false},
		{"bool from string", Boolean, "false", false, false},
		{"bool from int", Boolean, 1, nil, true},
		{"unsupported type", ParamType("matrix"), 1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.paramType, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("coerce(%s, %v) error = %v, wantErr %v", tt.paramType, tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("coerce(%s, %v) = %v (%T), want %v (%T)", tt.paramType, tt.value, got, got, tt.want, tt.want)
			}
		})
	}
}
