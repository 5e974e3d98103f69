package config

import (
	"testing"
	"time"
)

func TestGetCacheTTL(t *testing.T) {
	cases := []struct {
		value string
		want  time.Duration
	}{
		{"60", 60 * time.Minute},
		{"5", 5 * time.Minute},
		{"0", 60 * time.Minute},
		{"-10", 60 * time.Minute},
		{"garbage", 60 * time.Minute},
	}

	for _, tc := range cases {
		cfg := &Config{CacheTTLMinutes: tc.value}
		if got := cfg.GetCacheTTL(); got != tc.want {
			t.Errorf("GetCacheTTL with %q = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestGetLookupTimeout(t *testing.T) {
	cfg := &Config{LookupTimeoutSecs: "15"}
	if got := cfg.GetLookupTimeout(); got != 15*time.Second {
		t.Errorf("GetLookupTimeout = %v, want 15s", got)
	}

	cfg = &Config{LookupTimeoutSecs: "not-a-number"}
	if got := cfg.GetLookupTimeout(); got != 10*time.Second {
		t.Errorf("GetLookupTimeout fallback = %v, want 10s", got)
	}
}

func TestGetSweepInterval(t *testing.T) {
	cfg := &Config{SweepIntervalHours: "12"}
	if got := cfg.GetSweepInterval(); got != 12*time.Hour {
		t.Errorf("GetSweepInterval = %v, want 12h", got)
	}

	cfg = &Config{SweepIntervalHours: ""}
	if got := cfg.GetSweepInterval(); got != 6*time.Hour {
		t.Errorf("GetSweepInterval fallback = %v, want 6h", got)
	}
}

func TestGetSweepConfig(t *testing.T) {
	cfg := &Config{
		SweepBrand:     "Zara",
		SohoStoreID:    "5731",
		SohoLatitude:   "40.5",
		SohoLongitude:  "-74.5",
		SweepDelaySecs: "3",
		SweepChunkSize: "50",
	}

	sweep := cfg.GetSweepConfig()
	if sweep.Brand != "Zara" || sweep.StoreID != "5731" {
		t.Errorf("unexpected brand/store: %+v", sweep)
	}
	if sweep.Latitude != 40.5 || sweep.Longitude != -74.5 {
		t.Errorf("unexpected coordinates: %+v", sweep)
	}
	if sweep.Delay != 3*time.Second {
		t.Errorf("unexpected delay: %v", sweep.Delay)
	}
	if sweep.ChunkSize != 50 {
		t.Errorf("unexpected chunk size: %d", sweep.ChunkSize)
	}
}

func TestGetSweepConfigFallsBackOnBadValues(t *testing.T) {
	cfg := &Config{
		SweepBrand:     "Zara",
		SohoStoreID:    "5731",
		SohoLatitude:   "not-a-float",
		SohoLongitude:  "",
		SweepDelaySecs: "-1",
		SweepChunkSize: "0",
	}

	sweep := cfg.GetSweepConfig()
	if sweep.Latitude != 40.7243 || sweep.Longitude != -74.0018 {
		t.Errorf("expected SoHo default coordinates, got %+v", sweep)
	}
	if sweep.Delay != 2*time.Second {
		t.Errorf("expected default delay, got %v", sweep.Delay)
	}
	if sweep.ChunkSize != 200 {
		t.Errorf("expected default chunk size, got %d", sweep.ChunkSize)
	}
}
