package convert

import "testing"

func TestRoundFloat64(t *testing.T) {
	tests := []struct {
		number   float64
		decimals int32
		expected float64
	}{
		{number: 5.5, decimals: 2, expected: 5.5},
		{number: 1.005, decimals: 2, expected: 1.01},
		{number: -1.005, decimals: 2, expected: -1.01},
		{number: 2.344, decimals: 2, expected: 2.34},
		{number: 2.345, decimals: 0, expected: 2},
		{number: 12.3456, decimals: 3, expected: 12.346},
	}

	for _, tt := range tests {
		if got := RoundFloat64(tt.number, tt.decimals); got != tt.expected {
			t.Errorf("RoundFloat64(%v, %d) expected %v, got %v", tt.number, tt.decimals, tt.expected, got)
		}
	}
}

func TestAmount(t *testing.T) {
	d, err := Amount("16.50")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "16.5" {
		t.Errorf("Amount() expected 16.5, got %s", d.String())
	}
	if _, err := Amount("n/a"); err == nil {
		t.Errorf("Amount() expected error for non numeric input")
	}
}
