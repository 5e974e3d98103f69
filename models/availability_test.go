package models

import (
	"testing"
	"time"
)

func TestAvailabilityRecordIsFresh(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"expiry in the future", now.Add(time.Minute), true},
		{"expiry exactly now", now, false},
		{"expiry in the past", now.Add(-time.Minute), false},
		{"expiry one nanosecond ahead", now.Add(time.Nanosecond), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := AvailabilityRecord{ExpiresAt: tc.expiresAt}
			if got := record.IsFresh(now); got != tc.want {
				t.Errorf("IsFresh = %v, want %v", got, tc.want)
			}
		})
	}
}
