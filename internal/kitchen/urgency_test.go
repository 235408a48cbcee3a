package kitchen

import (
	"testing"
	"time"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want Tier
	}{
		{0, TierNormal},
		{9 * time.Minute, TierNormal},
		{10*time.Minute - time.Millisecond, TierNormal},
		{10 * time.Minute, TierAttention},
		{14*time.Minute + 59*time.Second, TierAttention},
		{15 * time.Minute, TierUrgent},
		{3 * time.Hour, TierUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.age.String(), func(t *testing.T) {
			if got := Classify(tt.age); got != tt.want {
				t.Fatalf("Classify(%s) = %s, want %s", tt.age, got, tt.want)
			}
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0)
	for age := time.Duration(0); age <= 30*time.Minute; age += 7 * time.Second {
		cur := Classify(age)
		if cur < prev {
			t.Fatalf("tier dropped from %s to %s at %s", prev, cur, age)
		}
		prev = cur
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{45_000, "45s"},
		{59_999, "59s"},
		{60_000, "1m 0s"},
		{125_000, "2m 5s"},
		{3_599_000, "59m 59s"},
		{3_600_000, "1h 00m"},
		{3_900_000, "1h 05m"},
		{-5_000, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatAge(time.Duration(tt.ms) * time.Millisecond)
			if got != tt.want {
				t.Fatalf("FormatAge(%dms) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}
