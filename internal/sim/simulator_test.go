package sim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func testConfig() Config {
	return Config{Length: 8, MaxTime: 3, KNeighbour: 1, SeedCount: 1, Periodic: true}
}

func TestSimulatorRunGolden(t *testing.T) {
	series, err := New(testConfig(), 0).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	wantWidth := []float64{1.6583123951777, 2.6190408549696205, 3.0}
	wantMean := []float64{1.5, 4.875, 9.0}
	wantTime := []float64{1, 2, 3}

	if series.Len() != len(wantTime) {
		t.Fatalf("expected %d samples, got %d", len(wantTime), series.Len())
	}
	for i := range wantTime {
		if math.Abs(series.Width[i]-wantWidth[i]) > 1e-12 {
			t.Errorf("width[%d] = %v, want %v", i, series.Width[i], wantWidth[i])
		}
		if series.MeanHeight[i] != wantMean[i] {
			t.Errorf("mean[%d] = %v, want %v", i, series.MeanHeight[i], wantMean[i])
		}
		if series.Time[i] != wantTime[i] {
			t.Errorf("time[%d] = %v, want %v", i, series.Time[i], wantTime[i])
		}
	}
}

func TestSimulatorRandomDeposition(t *testing.T) {
	cfg := Config{Length: 8, MaxTime: 2, KNeighbour: 0, SeedCount: 1, Periodic: true}
	s := New(cfg, 0)
	series, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []uint32{1, 3, 4, 2, 2, 2, 1, 1}
	for i, h := range s.Surface().Heights() {
		if h != want[i] {
			t.Errorf("h[%d] = %d, want %d", i, h, want[i])
		}
	}
	if series.MeanHeight[1] != 2 || series.Width[1] != 1 {
		t.Errorf("final sample = (%v, %v), want (1, 2)", series.Width[1], series.MeanHeight[1])
	}
}

func TestSimulatorSamplesMatchSchedule(t *testing.T) {
	tests := []struct {
		length  uint32
		maxTime uint32
	}{
		{8, 100},
		{16, 250},
		{32, 50},
	}

	for _, tt := range tests {
		cfg := Config{Length: tt.length, MaxTime: tt.maxTime, KNeighbour: 1, SeedCount: 1}
		series, err := New(cfg, 0).Run(context.Background())
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if want := cfg.Schedule().Steps(); series.Len() != want {
			t.Errorf("L=%d: recorded %d samples, dry run predicted %d", tt.length, series.Len(), want)
		}

		times := cfg.Schedule().Times()
		for i := range times {
			if series.Time[i] != times[i] {
				t.Errorf("L=%d: time[%d] = %v, schedule %v", tt.length, i, series.Time[i], times[i])
			}
			if i > 0 && series.Time[i] <= series.Time[i-1] {
				t.Errorf("L=%d: time not strictly increasing at %d", tt.length, i)
			}
		}
		if last := series.Time[series.Len()-1]; last < float64(tt.maxTime) {
			t.Errorf("L=%d: last sample at %v before max time", tt.length, last)
		}
	}
}

func TestSimulatorHeightsNonDecreasing(t *testing.T) {
	cfg := Config{Length: 32, MaxTime: 200, KNeighbour: 2, SeedCount: 1}
	s := New(cfg, 3)

	prev := make([]uint32, cfg.Length)
	_, err := s.RunWithCallback(context.Background(), func(h []uint32, _ float64) bool {
		for i := range h {
			if h[i] < prev[i] {
				t.Fatalf("column %d decreased from %d to %d", i, prev[i], h[i])
			}
		}
		copy(prev, h)
		return true
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestSimulatorCallbackStops(t *testing.T) {
	calls := 0
	series, err := New(testConfig(), 0).RunWithCallback(context.Background(), func([]uint32, float64) bool {
		calls++
		return false
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 1 || series.Len() != 1 {
		t.Errorf("expected a single sample, got %d calls and %d samples", calls, series.Len())
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), 0).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero length", Config{Length: 0, MaxTime: 10, SeedCount: 1}},
		{"k equals length", Config{Length: 4, KNeighbour: 4, MaxTime: 10, SeedCount: 1}},
		{"zero seeds", Config{Length: 4, MaxTime: 10, SeedCount: 0}},
		{"zero max time", Config{Length: 4, MaxTime: 0, SeedCount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, 0).Run(context.Background())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
