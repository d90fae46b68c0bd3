package link

import (
	"fmt"

	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/penalty"
)

// discoverPossible fills r.possible from the first IRQ descriptor that
// yields at least one valid line. Later descriptors are alternatives and are
// not consulted.
func (s *State) discoverPossible(r *record) error {
	descs, err := s.provider.EnumeratePossible(r.handle)
	if err != nil {
		return fmt.Errorf("%w: evaluating _PRS: %w", ErrResourceQuery, err)
	}

	for _, d := range descs {
		switch d.Kind {
		case firmware.KindStartDependent, firmware.KindEndTag:
			continue
		case firmware.KindIRQ, firmware.KindExtendedIRQ:
		default:
			s.logger.Error("_PRS resource type isn't an IRQ", "link", r.name(), "kind", d.Kind)
			continue
		}

		if len(d.Lines) == 0 {
			s.logger.Warn("blank _PRS IRQ resource", "link", r.name(), "kind", d.Kind)
			continue
		}

		possible := make([]uint32, 0, min(len(d.Lines), MaxPossible))
		for i, line := range d.Lines {
			if i >= MaxPossible {
				break
			}
			if line == 0 || !penalty.InRange(line) {
				s.logger.Warn("invalid _PRS IRQ", "link", r.name(), "irq", line)
				continue
			}
			possible = append(possible, line)
		}
		if len(possible) == 0 {
			continue
		}

		r.possible = possible
		r.kind = d.Kind
		r.triggering = d.Triggering
		r.polarity = d.Polarity
		break
	}

	s.logger.Debug("found possible IRQs", "link", r.name(), "count", len(r.possible))
	return nil
}

// discoverCurrent sets r.active from the firmware's current resource. In
// strict mode a disabled link is not queried and reads as 0, and an enabled
// link reporting 0 is an error.
func (s *State) discoverCurrent(r *record, strict bool) error {
	r.active = 0

	if strict && !s.provider.IsEnabled(r.handle) {
		s.logger.Debug("link disabled", "link", r.name())
		return nil
	}

	line, err := s.provider.QueryCurrent(r.handle)
	if err != nil {
		return fmt.Errorf("%w: evaluating _CRS: %w", ErrResourceQuery, err)
	}
	if strict && line == 0 {
		s.logger.Error("_CRS returned 0", "link", r.name())
		return ErrInvalidCurrentResource
	}

	r.active = line
	s.logger.Debug("link at IRQ", "link", r.name(), "irq", r.active)
	return nil
}
