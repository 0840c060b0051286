package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"CPU-bound", 1.0, 0, cpus},
		{"I/O-bound", 2.0, 0, cpus * 2},
		{"mixed", 1.5, 0, int(float64(cpus) * 1.5)},
		{"capped", 100.0, 2, 2},
		{"zero multiplier", 0, 0, 1},
		{"negative multiplier", -1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name     string
		envValue string
		limit    int
		want     int
	}{
		{"valid override", "8", 0, 8},
		{"override capped by limit", "20", 10, 10},
		{"override below limit", "5", 10, 5},
		{"non-numeric falls back", "invalid", 0, cpus},
		{"zero falls back", "0", 0, cpus},
		{"negative falls back", "-5", 0, cpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)

			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count(1.0, %d) with %s=%q = %d, want %d", tt.limit, EnvOverride, tt.envValue, got, tt.want)
			}
		})
	}
}

func TestOverride(t *testing.T) {
	t.Setenv(EnvOverride, "3")
	if n, ok := Override(); !ok || n != 3 {
		t.Errorf("Override() = %d, %v; want 3, true", n, ok)
	}

	t.Setenv(EnvOverride, "")
	if _, ok := Override(); ok {
		t.Error("Override() should be unset for an empty value")
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv(EnvOverride, "")

	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForIO(4); got < 1 || got > 4 {
		t.Errorf("ForIO(4) = %d, want 1..4", got)
	}
	if got, want := ForMixed(0), Count(1.5, 0); got != want {
		t.Errorf("ForMixed(0) = %d, want %d", got, want)
	}
}

func BenchmarkCount(b *testing.B) {
	b.Run("No override", func(b *testing.B) {
		b.Setenv(EnvOverride, "")
		for i := 0; i < b.N; i++ {
			_ = Count(1.5, 10)
		}
	})

	b.Run("With override", func(b *testing.B) {
		b.Setenv(EnvOverride, "8")
		for i := 0; i < b.N; i++ {
			_ = Count(1.5, 10)
		}
	})
}
