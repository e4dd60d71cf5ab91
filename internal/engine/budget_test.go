package engine

import "testing"

func TestBudget(t *testing.T) {
	cases := []struct {
		baseline   uint64
		multiplier float64
		want       uint64
	}{
		{100, 2.0, 200},
		{0, 2.0, 1},
		{1, 2.5, 3},
		{7, 1.1, 8},
	}
	for _, c := range cases {
		if got := Budget(c.baseline, c.multiplier); got != c.want {
			t.Errorf("Budget(%d, %v) = %d, want %d", c.baseline, c.multiplier, got, c.want)
		}
	}
}
