package link

// OnResume re-programs every bound, referenced link with its stored line
// after a power-state transition. Failures are logged and skipped. It
// returns the number of links that were re-programmed.
func (s *State) OnResume() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.links {
		if r.refcount == 0 || r.active == 0 || !r.initialized {
			continue
		}
		if err := s.program(r, r.active, s.strict); err != nil {
			s.logger.Warn("resume link", "link", r.name(), "irq", r.active, "err", err)
			continue
		}
		n++
	}
	return n
}
