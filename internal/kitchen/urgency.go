// Package kitchen turns repeated full snapshots of open orders into a live
// board: which orders are new, how they are ordered and how urgent each one is.
package kitchen

import (
	"fmt"
	"time"
)

// Tier is the urgency bucket of an order, derived from its age.
type Tier int

const (
	TierNormal Tier = iota
	TierAttention
	TierUrgent
)

// Age thresholds for each tier. Both are inclusive lower bounds.
const (
	AttentionAfter = 10 * time.Minute
	UrgentAfter    = 15 * time.Minute
)

// String returns a human-readable tier.
func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierAttention:
		return "attention"
	case TierUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// Classify maps an age to its tier. Older never means less urgent.
func Classify(age time.Duration) Tier {
	switch {
	case age >= UrgentAfter:
		return TierUrgent
	case age >= AttentionAfter:
		return TierAttention
	default:
		return TierNormal
	}
}

// FormatAge renders an age for the board: "45s", "2m 5s", "1h 05m".
// Negative ages are shown as zero.
func FormatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	total := int64(age / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
