package domain

// Session is the table/customer context an order is being built against.
// The cart lives next to it in a cart.Ledger.
type Session struct {
	Mode         Mode
	Phase        Phase
	TableRef     string // currently selected table, "" when none
	LockedTable  string // authoritative table in append mode, "" until hydrated
	CustomerName string
	Phone        string
	Guests       int
	OrderID      string // remote order being appended to, "" in new mode
	Payment      string // payment method for submission, "" means the configured default
}

// Mode distinguishes building a fresh order from appending to an existing one.
type Mode int

const (
	ModeNew Mode = iota
	ModeAppend
)

// String returns a human-readable mode.
func (m Mode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Phase tracks the lifecycle of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHydrating
	PhaseBuilding
	PhaseSubmitted
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHydrating:
		return "hydrating"
	case PhaseBuilding:
		return "building"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// TableLocked reports whether the table lock is in force.
func (s Session) TableLocked() bool {
	return s.Mode == ModeAppend && s.LockedTable != ""
}
