package link

import (
	"fmt"
	"slices"

	"github.com/tinyrange/irqlink/internal/penalty"
)

// allocate binds r to a line. The caller holds s.mu.
//
// Once bound, a link keeps its line: an unreferenced link is re-programmed
// with it and a referenced one is left alone.
func (s *State) allocate(r *record, balance, strict bool) error {
	if r.initialized {
		if r.refcount == 0 {
			// disabled by the last release, turn it back on
			if err := s.program(r, r.active, strict); err != nil {
				s.logger.Warn("re-enable link", "link", r.name(), "irq", r.active, "err", err)
			}
		}
		return nil
	}

	// Forget a current line the firmware never offered.
	if r.active != 0 && !slices.Contains(r.possible, r.active) {
		if strict {
			s.logger.Warn("_CRS not found in _PRS", "link", r.name(), "irq", r.active)
		}
		r.active = 0
	}

	var irq uint32
	switch {
	case r.active != 0:
		irq = r.active
	case len(r.possible) > 0:
		irq = r.possible[len(r.possible)-1]
	default:
		return ErrNoLineAssigned
	}

	if balance || r.active == 0 {
		// Reverse scan to promote 9, 10, 11 and lines above 15.
		for i := len(r.possible) - 1; i >= 0; i-- {
			if s.penalties.Get(r.possible[i]) < s.penalties.Get(irq) {
				irq = r.possible[i]
			}
		}
	}

	if err := s.program(r, irq, strict); err != nil {
		s.logger.Error("unable to set IRQ", "link", r.name(), "irq", irq, "err", err)
		return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}

	s.penalties.Add(r.active, penalty.Using)
	r.initialized = true
	s.logger.Info("link enabled", "link", r.name(), "irq", r.active)
	return nil
}

// program writes irq into firmware and reconciles r.active with the
// readback. A readback that disagrees with what was just set is a firmware
// bug; the set value wins.
func (s *State) program(r *record, irq uint32, strict bool) error {
	if irq == 0 {
		return fmt.Errorf("link: cannot program IRQ 0")
	}

	if err := s.provider.SetCurrent(r.handle, r.setting(irq)); err != nil {
		return fmt.Errorf("evaluating _SRS: %w", err)
	}

	if !s.provider.IsEnabled(r.handle) {
		s.logger.Warn("link disabled and referenced, BIOS bug", "link", r.name(), "handle", r.handle)
	}

	if err := s.discoverCurrent(r, strict); err != nil {
		s.logger.Warn("reading back current resource", "link", r.name(), "err", err)
	}

	if r.active != irq {
		s.logger.Warn("BIOS reported wrong IRQ",
			"link", r.name(),
			"reported", r.active,
			"using", irq,
		)
		r.active = irq
	}

	s.logger.Debug("set IRQ", "link", r.name(), "irq", r.active)
	return nil
}
