package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		if got := cfg.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDelayJitterStaysInBand(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2, Jitter: 0.5}
	for i := 0; i < 100; i++ {
		d := cfg.Delay(2)
		if d < 100*time.Millisecond || d > 300*time.Millisecond {
			t.Fatalf("Delay(2) = %v outside [100ms, 300ms]", d)
		}
	}
}

func TestBackoffConfigDefaults(t *testing.T) {
	var b BackoffConfig
	b.ApplyDefaults()
	if b.Initial != 100*time.Millisecond || b.Max != 2*time.Second || b.Factor != 2 || b.Jitter != 0.1 {
		t.Errorf("unexpected defaults %+v", b)
	}
	rc := b.RetryConfig(4)
	if rc.MaxAttempts != 4 || rc.InitialBackoff != b.Initial || rc.MaxBackoff != b.Max {
		t.Errorf("unexpected retry config %+v", rc)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("no records yet"), true},
		{context.Canceled, false},
		{fmt.Errorf("poll: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		if got := DefaultRetryIf(tt.err); got != tt.want {
			t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
