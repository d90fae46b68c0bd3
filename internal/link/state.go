// Package link arbitrates interrupt lines for firmware-described PCI
// interrupt link devices.
//
// A State owns the registry of links and the global penalty table. Every
// operation holds a single registry lock for its full duration, including
// calls into the firmware provider, so concurrent acquire and release calls
// from different drivers are totally ordered.
package link

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/penalty"
)

// IRQModel is the platform interrupt routing model.
type IRQModel int

const (
	ModelPIC IRQModel = iota
	ModelIOAPIC
)

func (m IRQModel) String() string {
	switch m {
	case ModelPIC:
		return "pic"
	case ModelIOAPIC:
		return "ioapic"
	default:
		return fmt.Sprintf("IRQModel(%d)", int(m))
	}
}

// DefaultSCI is the line used for the system control interrupt when none
// is configured.
const DefaultSCI = 9

// State is the allocator: link registry, penalty table and policy switches.
type State struct {
	mu sync.Mutex

	provider  firmware.Provider
	penalties *penalty.Table
	logger    *slog.Logger

	links []*record
	byID  map[ID]*record

	strict  bool
	balance bool
	sci     uint32

	penaltiesDone bool
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger used for firmware diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStrict enables strict validation of firmware answers.
func WithStrict(strict bool) Option {
	return func(s *State) { s.strict = strict }
}

// WithSCI sets the system control interrupt line.
func WithSCI(line uint32) Option {
	return func(s *State) { s.sci = line }
}

// WithIRQModel picks the balancing default for the routing model: on for
// IOAPIC, off for PIC. A later WithBalancing overrides it.
func WithIRQModel(m IRQModel) Option {
	return func(s *State) { s.balance = m == ModelIOAPIC }
}

// WithBalancing forces balancing on or off.
func WithBalancing(on bool) Option {
	return func(s *State) { s.balance = on }
}

// NewState returns an allocator backed by provider. Balancing defaults to
// the IOAPIC model.
func NewState(provider firmware.Provider, opts ...Option) *State {
	s := &State{
		provider:  provider,
		penalties: penalty.NewTable(),
		logger:    slog.Default(),
		byID:      make(map[ID]*record),
		balance:   true,
		sci:       DefaultSCI,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBalancingEnabled toggles penalty balancing for future allocations.
func (s *State) SetBalancingEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = on
}

// BalancingEnabled reports the current balancing policy.
func (s *State) BalancingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Strict reports whether strict validation is enabled.
func (s *State) Strict() bool {
	return s.strict
}

// SCI returns the configured system control interrupt line.
func (s *State) SCI() uint32 {
	return s.sci
}

// RegisterLink discovers the possible and current lines of the firmware
// object at h and adds it to the registry. The firmware object is disabled
// afterwards whether or not discovery succeeded; it is re-enabled on first
// acquire. A handle that is already registered is rejected without touching
// firmware.
func (s *State) RegisterLink(h firmware.Handle) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.links {
		if r.handle == h {
			return uuid.Nil, &Error{Op: "register", Link: h.BusID(), Err: ErrAlreadyRegistered}
		}
	}

	defer s.provider.Disable(h)

	r := &record{id: uuid.New(), handle: h}
	if err := s.discoverPossible(r); err != nil {
		return uuid.Nil, &Error{Op: "register", Link: r.name(), Err: err}
	}
	if err := s.discoverCurrent(r, s.strict); err != nil {
		return uuid.Nil, &Error{Op: "register", Link: r.name(), Err: err}
	}

	s.logger.Info("PCI interrupt link",
		"link", r.name(),
		"irqs", describeLines(r.possible, r.active),
		"enabled", s.provider.IsEnabled(h),
	)

	s.links = append(s.links, r)
	s.byID[r.id] = r
	return r.id, nil
}

// UnregisterLink removes a link from the registry. Callers are responsible
// for releasing all references first.
func (s *State) UnregisterLink(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return &Error{Op: "unregister", Err: ErrUnknownLink}
	}
	delete(s.byID, id)
	for i, other := range s.links {
		if other == r {
			s.links = append(s.links[:i], s.links[i+1:]...)
			break
		}
	}
	return nil
}

// Link returns a snapshot of the link with the given ID.
func (s *State) Link(id ID) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return Info{}, false
	}
	return r.info(), true
}

// Links returns snapshots of every registered link in registration order.
func (s *State) Links() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, 0, len(s.links))
	for _, r := range s.links {
		out = append(out, r.info())
	}
	return out
}

// Penalty returns the current score of line.
func (s *State) Penalty(line uint32) int {
	return s.penalties.Get(line)
}

// Penalties returns a copy of the whole penalty table.
func (s *State) Penalties() [penalty.MaxLines]int {
	return s.penalties.Snapshot()
}

func (s *State) lookup(op string, id ID) (*record, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, &Error{Op: op, Link: id.String(), Err: ErrUnknownLink}
	}
	return r, nil
}

// describeLines renders a possible list with the active line starred, for
// example "5 10 *11". An active line outside the list is appended.
func describeLines(possible []uint32, active uint32) string {
	var b strings.Builder
	found := false
	for i, line := range possible {
		if i > 0 {
			b.WriteByte(' ')
		}
		if line == active {
			b.WriteByte('*')
			found = true
		}
		fmt.Fprintf(&b, "%d", line)
	}
	if !found {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "*%d", active)
	}
	return b.String()
}
