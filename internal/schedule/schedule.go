// Package schedule maps wall-clock time to the operating mode of the chamber.
//
// A schedule is an ordered list of time-of-day slots. The first slot that
// contains the current time wins; gaps are allowed and mean "do nothing".
// A slot whose end is before its start wraps past midnight.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode is the operating mode bound to a slot.
type Mode string

const (
	ModeSleep Mode = "sleep" // light off, heater off
	ModeWait  Mode = "wait"  // light on, heater off
	ModeHeat  Mode = "heat"  // light on, heater bang-bang controlled
)

// ParseMode normalizes a mode name. Unknown names are returned as-is so the
// executor can log and skip them.
func ParseMode(s string) Mode {
	return Mode(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether m is one of the three supported modes.
func (m Mode) Known() bool {
	switch m {
	case ModeSleep, ModeWait, ModeHeat:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }

var (
	ErrEmptySchedule = errors.New("schedule: no slots configured")
	ErrInvalidRange  = errors.New("schedule: invalid time range, want HH:MM-HH:MM")
	ErrZeroLength    = errors.New("schedule: slot start equals end")
)

// Entry is the raw configuration form of a slot.
type Entry struct {
	Range string `mapstructure:"range" json:"range"`
	Mode  string `mapstructure:"mode" json:"mode"`
}

// Slot binds a time-of-day range to a mode.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	Mode  Mode      `json:"mode"`
}

// Wraps reports whether the slot crosses midnight.
func (s Slot) Wraps() bool { return s.End.Before(s.Start) }

// Range renders the slot in its configuration form.
func (s Slot) Range() string { return s.Start.String() + "-" + s.End.String() }

// Contains reports whether now falls in [start, end). For a wrapping slot the
// end lies on the day after the start, and the start may be either today or
// yesterday relative to now.
func (s Slot) Contains(now time.Time) bool {
	start := s.Start.On(now)
	end := s.End.On(now)
	if !s.Wraps() {
		return within(now, start, end)
	}
	end = end.AddDate(0, 0, 1)
	if within(now, start, end) {
		return true
	}
	return within(now, start.AddDate(0, 0, -1), end.AddDate(0, 0, -1))
}

func within(now, start, end time.Time) bool {
	return !now.Before(start) && now.Before(end)
}

// ParseSlot parses "HH:MM-HH:MM" and a mode name.
func ParseSlot(rng, mode string) (Slot, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(rng), "-")
	if !ok {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
	}
	start, err := ParseTimeOfDay(startStr)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, rng, err)
	}
	end, err := ParseTimeOfDay(endStr)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, rng, err)
	}
	if start == end {
		return Slot{}, fmt.Errorf("%w: %q", ErrZeroLength, rng)
	}
	return Slot{Start: start, End: end, Mode: ParseMode(mode)}, nil
}

// Schedule is an ordered slot list; order is evaluation priority.
type Schedule []Slot

// Parse validates entries once at load time.
func Parse(entries []Entry) (Schedule, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySchedule
	}
	out := make(Schedule, 0, len(entries))
	for i, e := range entries {
		slot, err := ParseSlot(e.Range, e.Mode)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i+1, err)
		}
		out = append(out, slot)
	}
	return out, nil
}

// Active returns the first slot containing now.
func (s Schedule) Active(now time.Time) (Slot, bool) {
	for _, slot := range s {
		if slot.Contains(now) {
			return slot, true
		}
	}
	return Slot{}, false
}

// UnknownModes lists slots whose mode the executor will skip.
func (s Schedule) UnknownModes() []Slot {
	var out []Slot
	for _, slot := range s {
		if !slot.Mode.Known() {
			out = append(out, slot)
		}
	}
	return out
}
