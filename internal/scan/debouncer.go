package scan

import (
	"sync"
	"time"
)

const defaultDebounceWindow = 3 * time.Second

// Debouncer suppresses duplicate processing of rapid repeat scans per driver.
// A scan is accepted when the debounce window has elapsed since the last
// accepted scan for that driver, or when the session status label differs
// from the last recorded one (a genuine state transition overrides timing).
//
// Entries are independent per driver: the read-modify-write of one driver's
// record is guarded by that entry's own lock, so unrelated drivers are never
// serialized against each other.
type Debouncer struct {
	mu      sync.Mutex
	entries map[string]*driverEntry
	window  time.Duration
	now     func() time.Time
}

type driverEntry struct {
	mu           sync.Mutex
	lastAccepted time.Time
	lastStatus   string
	seen         bool
}

// NewDebouncer builds an isolated debouncer instance. A non-positive window
// falls back to 3s.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = defaultDebounceWindow
	}
	return &Debouncer{
		entries: make(map[string]*driverEntry),
		window:  window,
		now:     time.Now,
	}
}

// NewDebouncerWithClock is NewDebouncer with an injected time source, so
// callers in other packages can drive the window deterministically in tests.
func NewDebouncerWithClock(window time.Duration, now func() time.Time) *Debouncer {
	d := NewDebouncer(window)
	if now != nil {
		d.now = now
	}
	return d
}

// ShouldProcess reports whether a scan for driverID with the given session
// status label should proceed. On acceptance it records the decision time and
// label atomically; on rejection nothing is mutated.
func (d *Debouncer) ShouldProcess(driverID, statusLabel string) bool {
	e := d.entry(driverID)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := d.now()
	if e.seen && statusLabel == e.lastStatus && now.Sub(e.lastAccepted) < d.window {
		return false
	}

	e.seen = true
	e.lastAccepted = now
	e.lastStatus = statusLabel
	return true
}

// Reset clears one driver's record.
func (d *Debouncer) Reset(driverID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, driverID)
}

// ClearAll drops every record, e.g. on process restart.
func (d *Debouncer) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make(map[string]*driverEntry)
}

func (d *Debouncer) entry(driverID string) *driverEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[driverID]
	if !ok {
		e = &driverEntry{}
		d.entries[driverID] = e
	}
	return e
}
