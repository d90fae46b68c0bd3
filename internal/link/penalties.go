package link

import (
	"github.com/tinyrange/irqlink/internal/penalty"
)

// InitPenalties biases the penalty table with every registered link's
// possible lines and charges the SCI line. It runs once, after all links are
// registered and before any administrative overrides.
func (s *State) InitPenalties() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.penaltiesDone {
		return &Error{Op: "init penalties", Err: ErrPenaltiesInitialized}
	}

	for _, r := range s.links {
		switch {
		case len(r.possible) > 0:
			share := penalty.Possible / len(r.possible)
			for _, line := range r.possible {
				if line < penalty.MaxISALine {
					s.penalties.Add(line, share)
				}
			}
		case r.active != 0:
			s.penalties.Add(r.active, penalty.Possible)
		}
	}

	s.penalties.Add(s.sci, penalty.Using)
	s.penaltiesDone = true
	return nil
}

// ApplyPenaltyOverride changes a single line's score by administrative
// request.
func (s *State) ApplyPenaltyOverride(line uint32, mode penalty.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.penalties.Apply(line, mode); err != nil {
		return &Error{Op: "penalty override", Err: err}
	}
	s.logger.Debug("penalty override", "irq", line, "mode", mode, "penalty", s.penalties.Get(line))
	return nil
}

// ApplyPenaltyOverrides applies mode to a list of lines in the order given
// and returns how many were applied. See penalty.Table.ApplyList.
func (s *State) ApplyPenaltyOverrides(lines []int, mode penalty.Mode) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.penalties.ApplyList(lines, mode)
}

// PenalizeISA records a legacy ISA device's claim on line.
func (s *State) PenalizeISA(line uint32, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.penalties.PenalizeISA(line, active)
}
