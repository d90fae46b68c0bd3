package link

import "fmt"

// AcquireLine takes a reference on the link's line, allocating one on first
// use. Only index 0 is supported; links carry a single line.
func (s *State) AcquireLine(id ID, index int) (Assignment, error) {
	if index != 0 {
		return Assignment{}, &Error{Op: "acquire", Link: id.String(), Err: fmt.Errorf("%w %d", ErrInvalidIndex, index)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup("acquire", id)
	if err != nil {
		return Assignment{}, err
	}

	if err := s.allocate(r, s.balance, s.strict); err != nil {
		return Assignment{}, &Error{Op: "acquire", Link: r.name(), Err: err}
	}
	if r.active == 0 {
		s.logger.Error("link active IRQ is 0", "link", r.name())
		return Assignment{}, &Error{Op: "acquire", Link: r.name(), Err: ErrNoLineAssigned}
	}

	r.refcount++
	s.logger.Debug("link is referenced", "link", r.name(), "refcount", r.refcount)

	return Assignment{
		Line:       r.active,
		Triggering: r.triggering,
		Polarity:   r.polarity,
		Name:       r.name(),
	}, nil
}

// ReleaseLine drops a reference and returns the link's line. Dropping the
// last reference disables the firmware object. Releasing more times than
// acquired fails with ErrNotReferenced and does not disable again.
func (s *State) ReleaseLine(id ID) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup("release", id)
	if err != nil {
		return 0, err
	}
	if !r.initialized {
		return 0, &Error{Op: "release", Link: r.name(), Err: ErrNotInitialized}
	}
	if r.refcount == 0 {
		return r.active, &Error{Op: "release", Link: r.name(), Err: ErrNotReferenced}
	}

	r.refcount--
	s.logger.Debug("link is dereferenced", "link", r.name(), "refcount", r.refcount)

	if r.refcount == 0 {
		s.provider.Disable(r.handle)
	}
	return r.active, nil
}
