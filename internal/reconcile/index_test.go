package reconcile

import "testing"

func TestFromDevice(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{-1, -1},
		{1, 0},
		{5, 4},
		{20, 19},
	}
	for _, tt := range tests {
		if got := FromDevice(tt.in); got != tt.want {
			t.Errorf("FromDevice(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
