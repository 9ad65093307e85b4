package meetingdates

import (
	"fmt"
	"time"
)

// State is the override confirmation state of a Picker.
type State int

const (
	// Idle means no override is waiting for confirmation.
	Idle State = iota
	// PendingConfirmation means a date outside the cell's weekday was
	// picked and must be confirmed or cancelled.
	PendingConfirmation
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingConfirmation:
		return "pending_confirmation"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mismatch describes a picked date whose weekday differs from the cell's.
type Mismatch struct {
	Date     time.Time
	Chosen   time.Weekday
	Expected time.Weekday
}

// Message is the user-facing explanation for the confirmation prompt.
func (m Mismatch) Message() string {
	return fmt.Sprintf("%s is a %s, but this cell meets on %s. Confirm to use this date anyway.",
		Format(m.Date), m.Chosen, m.Expected)
}

// MismatchFor returns the mismatch for date on c, or nil when date is valid.
func MismatchFor(date time.Time, c Cell) *Mismatch {
	if IsValidDate(date, c) {
		return nil
	}
	wd, _ := weekdayOf(c)
	d := Day(date)
	return &Mismatch{Date: d, Chosen: d.Weekday(), Expected: wd}
}

// Picker holds the report date for the selected cell and any override
// waiting for confirmation.
//
// Valid picks commit immediately. Invalid picks move the Picker to
// PendingConfirmation; Confirm commits the candidate and Cancel drops it,
// both returning to Idle. A Picker is not safe for concurrent use.
type Picker struct {
	policy    Policy
	cell      Cell
	committed *time.Time
	pending   *time.Time
}

// NewPicker returns an Idle Picker with no cell and no date.
func NewPicker(policy Policy) *Picker {
	return &Picker{policy: policy}
}

// SelectCell switches the selected cell, drops any pending override and
// commits the policy's default date for the new cell.
func (p *Picker) SelectCell(c Cell, today time.Time) {
	p.cell = c
	p.pending = nil
	p.committed = p.policy.DefaultDate(c, today)
}

// State reports whether an override is waiting.
func (p *Picker) State() State {
	if p.pending != nil {
		return PendingConfirmation
	}
	return Idle
}

// Date returns the committed report date, or nil.
func (p *Picker) Date() *time.Time {
	if p.committed == nil {
		return nil
	}
	d := *p.committed
	return &d
}

// Pending returns the mismatch waiting for confirmation, or nil when Idle.
func (p *Picker) Pending() *Mismatch {
	if p.pending == nil {
		return nil
	}
	return MismatchFor(*p.pending, p.cell)
}

// Pick handles a user-chosen date. It returns true when the date was
// committed and false when it now awaits confirmation.
func (p *Picker) Pick(date time.Time) bool {
	d := Day(date)
	if IsValidDate(d, p.cell) {
		p.pending = nil
		p.committed = &d
		return true
	}
	p.pending = &d
	return false
}

// Confirm commits the pending date. It returns false when nothing was pending.
func (p *Picker) Confirm() bool {
	if p.pending == nil {
		return false
	}
	p.committed = p.pending
	p.pending = nil
	return true
}

// Cancel drops the pending date and leaves the committed date unchanged.
func (p *Picker) Cancel() {
	p.pending = nil
}
