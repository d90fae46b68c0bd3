// Package penalty tracks per-line contention scores used when choosing an
// interrupt line for a link device. Lower scores are preferred.
package penalty

import "sync"

const (
	// MaxLines is the number of interrupt lines tracked by a Table.
	MaxLines = 256
	// MaxISALine bounds the legacy ISA range (lines 0..15).
	MaxISALine = 16
)

// Contention classes. Each is one hex digit above the previous so that a
// single higher-class claim outweighs any number of lower-class ones.
const (
	Available  = 0
	Possible   = 16 * 16
	Using      = 16 * 16 * 16
	ISATypical = 16 * 16 * 16 * 16
	ISAUsed    = 16 * 16 * 16 * 16 * 16
	ISAAlways  = 16 * 16 * 16 * 16 * 16 * 16
)

var baseline = [MaxISALine]int{
	ISAAlways,  // 0 timer
	ISAAlways,  // 1 keyboard
	ISAAlways,  // 2 cascade
	ISATypical, // 3 serial
	ISATypical, // 4 serial
	ISATypical, // 5 sometimes sound
	ISATypical, // 6
	ISATypical, // 7 parallel, spurious
	ISATypical, // 8 rtc, sometimes
	Available,  // 9 pci, often acpi
	Available,  // 10 pci
	Available,  // 11 pci
	ISAUsed,    // 12 mouse
	ISAUsed,    // 13 fpe, sometimes
	ISAUsed,    // 14 ide0
	ISAUsed,    // 15 ide1
}

// Baseline returns the seed score for line before any bias is applied.
func Baseline(line uint32) int {
	if line < MaxISALine {
		return baseline[line]
	}
	return Available
}

// Table is a fixed-size map of line number to contention score.
//
// Table has its own mutex so it may be read outside the link registry, but
// callers that need a read-modify-write sequence across several lines must
// serialise on their own lock.
type Table struct {
	mu     sync.Mutex
	scores [MaxLines]int
}

// NewTable returns a table seeded with the legacy baseline.
func NewTable() *Table {
	t := &Table{}
	copy(t.scores[:], baseline[:])
	return t
}

// InRange reports whether line indexes the table.
func InRange(line uint32) bool {
	return line < MaxLines
}

// Get returns the score for line. Lines outside the table score zero.
func (t *Table) Get(line uint32) int {
	if !InRange(line) {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores[line]
}

// Add increases the score for line by delta. Out of range lines are ignored.
func (t *Table) Add(line uint32, delta int) {
	if !InRange(line) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scores[line] += delta
}

// SetAvailable resets line to the Available score, discarding any bias.
func (t *Table) SetAvailable(line uint32) {
	if !InRange(line) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scores[line] = Available
}

// AddUsedBias marks line as claimed by a legacy device.
func (t *Table) AddUsedBias(line uint32) {
	t.Add(line, ISAUsed)
}

// PenalizeISA records that a legacy device claims line. An active claim
// weighs as ISAUsed, an inactive one as Using.
func (t *Table) PenalizeISA(line uint32, active bool) {
	if active {
		t.Add(line, ISAUsed)
		return
	}
	t.Add(line, Using)
}

// Snapshot returns a copy of every score.
func (t *Table) Snapshot() [MaxLines]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores
}
