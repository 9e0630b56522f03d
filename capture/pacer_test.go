package capture

import (
	"testing"
	"time"
)

func TestPacerRates(t *testing.T) {
	tests := []struct {
		name string
		tick time.Duration
		want int
	}{
		{"60Hz display", time.Second / 60, 30},
		{"144Hz display", time.Second / 144, 30},
		{"30Hz display", time.Second / 30, 30},
		{"20Hz display", time.Second / 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Unix(1000, 0)
			p := NewPacer(30)
			p.Reset(start)
			n := 0
			for now := start; now.Before(start.Add(time.Second)); now = now.Add(tt.tick) {
				if p.Ready(now) {
					n++
				}
			}
			if n < tt.want-1 || n > tt.want+1 {
				t.Errorf("admitted %d frames in 1s, want about %d", n, tt.want)
			}
		})
	}
}

func TestPacerReanchorsAfterStall(t *testing.T) {
	start := time.Unix(0, 0)
	p := NewPacer(30)
	p.Reset(start)
	if !p.Ready(start) {
		t.Fatal("first frame not admitted")
	}
	late := start.Add(2 * time.Second)
	if !p.Ready(late) {
		t.Fatal("frame after stall not admitted")
	}
	if p.Ready(late.Add(time.Millisecond)) {
		t.Error("pacer burst to catch up after a stall")
	}
}
