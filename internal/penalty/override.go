package penalty

import "fmt"

// Mode selects how an administrative override changes a line's score.
type Mode int

const (
	// ModeAvailable clears the line back to Available.
	ModeAvailable Mode = iota
	// ModeUsedBias adds a flat ISAUsed bias.
	ModeUsedBias
)

func (m Mode) String() string {
	switch m {
	case ModeAvailable:
		return "available"
	case ModeUsedBias:
		return "used"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MaxOverrides caps how many entries of an override list are honoured.
const MaxOverrides = 16

// Apply performs a single override on line.
func (t *Table) Apply(line uint32, mode Mode) error {
	if !InRange(line) {
		return fmt.Errorf("penalty: line %d out of range", line)
	}
	switch mode {
	case ModeAvailable:
		t.SetAvailable(line)
	case ModeUsedBias:
		t.AddUsedBias(line)
	default:
		return fmt.Errorf("penalty: unknown override mode %d", int(mode))
	}
	return nil
}

// ApplyList applies mode to each line in order. Only the first MaxOverrides
// entries are considered; negative and out of range entries are skipped.
// It returns the number of lines that were changed.
func (t *Table) ApplyList(lines []int, mode Mode) int {
	applied := 0
	for i, line := range lines {
		if i >= MaxOverrides {
			break
		}
		if line < 0 || line >= MaxLines {
			continue
		}
		if err := t.Apply(uint32(line), mode); err != nil {
			continue
		}
		applied++
	}
	return applied
}
