package service

import (
	"testing"

	"chamber_control/internal/actuator"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current float64
		target  float64
		want    actuator.Command
	}{
		{name: "below target heats", current: 21.9, target: 22.0, want: actuator.CommandOn},
		{name: "equal is off", current: 22.0, target: 22.0, want: actuator.CommandOff},
		{name: "above target is off", current: 22.1, target: 22.0, want: actuator.CommandOff},
		{name: "negative temperatures", current: -5, target: -3, want: actuator.CommandOn},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Decide(tc.current, tc.target); got != tc.want {
				t.Fatalf("Decide(%v, %v) = %s, want %s", tc.current, tc.target, got, tc.want)
			}
		})
	}
}
