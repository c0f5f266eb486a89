package pinger

import (
	"testing"
	"time"
)

func TestSecondsCeil(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{3 * time.Second, 3},
		{0, 1},
	}
	for _, tc := range cases {
		if got := secondsCeil(tc.d); got != tc.want {
			t.Errorf("secondsCeil(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestNewPingerDefaultsTimeout(t *testing.T) {
	p := NewPinger(0)
	if p.Timeout != time.Second {
		t.Errorf("default timeout = %v, want 1s", p.Timeout)
	}
}
