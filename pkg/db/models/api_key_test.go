package models

import (
	"testing"
	"time"
)

func TestApiKeyValidAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	cases := []struct {
		name string
		key  ApiKey
		want bool
	}{
		{"active without expiry", ApiKey{IsActive: true}, true},
		{"active with future expiry", ApiKey{IsActive: true, ExpiresAt: &future}, true},
		{"active but expired", ApiKey{IsActive: true, ExpiresAt: &past}, false},
		{"inactive never valid", ApiKey{IsActive: false, ExpiresAt: &future}, false},
		{"expiry exactly now", ApiKey{IsActive: true, ExpiresAt: &now}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.key.ValidAt(now); got != tc.want {
				t.Fatalf("ValidAt = %v, want %v", got, tc.want)
			}
		})
	}
}
