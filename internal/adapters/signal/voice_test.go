package signal

import (
	"math"
	"testing"
)

func TestDurationMs(t *testing.T) {
	tests := []struct {
		name string
		sec  float64
		want int64
	}{
		{"zero", 0, 0},
		{"fractional", 1.25, 1250},
		{"negative", -3, 0},
		{"nan", math.NaN(), 0},
		{"at cap", maxVoiceSeconds, maxVoiceSeconds * 1000},
		{"huge", 1e300, maxVoiceSeconds * 1000},
		{"infinite", math.Inf(1), maxVoiceSeconds * 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := durationMs(tt.sec); got != tt.want {
				t.Fatalf("durationMs(%v) = %d, want %d", tt.sec, got, tt.want)
			}
		})
	}
}
