// Package firmware describes the contract between the link allocator and
// the platform firmware that owns each interrupt link object.
package firmware

import (
	"errors"
	"fmt"
	"strings"
)

// Handle identifies a firmware link object, typically its namespace path
// (for example `\_SB.LNKA`).
type Handle string

// BusID returns the final path segment of the handle.
func (h Handle) BusID() string {
	s := string(h)
	if i := strings.LastIndexAny(s, `.\/`); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Kind is the type tag of a resource descriptor.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindIRQ
	KindExtendedIRQ
	KindStartDependent
	KindEndTag
	KindIO
	KindMemory
)

var kindNames = map[Kind]string{
	KindIRQ:            "irq",
	KindExtendedIRQ:    "extended",
	KindStartDependent: "start-dependent",
	KindEndTag:         "end-tag",
	KindIO:             "io",
	KindMemory:         "memory",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(0x%x)", uint8(k))
}

// IsIRQ reports whether descriptors of this kind carry interrupt lines.
func (k Kind) IsIRQ() bool {
	return k == KindIRQ || k == KindExtendedIRQ
}

// ParseKind maps a descriptor kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("firmware: unknown resource kind %q", s)
}

// Triggering is the interrupt trigger mode carried by IRQ descriptors.
type Triggering uint8

const (
	LevelSensitive Triggering = 0
	EdgeSensitive  Triggering = 1
)

func (t Triggering) String() string {
	switch t {
	case LevelSensitive:
		return "level"
	case EdgeSensitive:
		return "edge"
	default:
		return fmt.Sprintf("Triggering(%d)", uint8(t))
	}
}

// ParseTriggering accepts "level" or "edge".
func ParseTriggering(s string) (Triggering, error) {
	switch s {
	case "", "level":
		return LevelSensitive, nil
	case "edge":
		return EdgeSensitive, nil
	}
	return 0, fmt.Errorf("firmware: unknown triggering %q", s)
}

// Polarity is the active level of an interrupt line.
type Polarity uint8

const (
	ActiveHigh Polarity = 0
	ActiveLow  Polarity = 1
)

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "high"
	case ActiveLow:
		return "low"
	default:
		return fmt.Sprintf("Polarity(%d)", uint8(p))
	}
}

// ParsePolarity accepts "high" or "low".
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "", "low":
		return ActiveLow, nil
	case "high":
		return ActiveHigh, nil
	}
	return 0, fmt.Errorf("firmware: unknown polarity %q", s)
}

// Descriptor is one decoded entry of a possible-resource list.
type Descriptor struct {
	Kind       Kind
	Lines      []uint32
	Triggering Triggering
	Polarity   Polarity
}

// Setting is the single-line resource programmed back into firmware.
type Setting struct {
	Line       uint32
	Triggering Triggering
	Polarity   Polarity
	Kind       Kind
}

// Shared reports whether the line is programmed as shareable. Edge
// triggered lines are exclusive.
func (s Setting) Shared() bool {
	return s.Triggering != EdgeSensitive
}

var (
	// ErrUnknownDevice is returned for handles the provider does not own.
	ErrUnknownDevice = errors.New("firmware: unknown device")
	// ErrResourceSet is returned when firmware rejects or cannot encode a setting.
	ErrResourceSet = errors.New("firmware: set resource failed")
	// ErrQuery is returned when evaluating a resource method fails.
	ErrQuery = errors.New("firmware: resource query failed")
)

// Provider evaluates resource methods on firmware link objects.
//
// Implementations may block while firmware bytecode runs; callers serialise
// access themselves.
type Provider interface {
	// EnumeratePossible returns the possible-resource descriptors in
	// firmware order.
	EnumeratePossible(h Handle) ([]Descriptor, error)
	// QueryCurrent returns the currently programmed line, or 0 if none.
	QueryCurrent(h Handle) (uint32, error)
	// SetCurrent programs a single line.
	SetCurrent(h Handle, s Setting) error
	// IsEnabled reports the device status bit.
	IsEnabled(h Handle) bool
	// Disable turns the link off. Errors are not reported.
	Disable(h Handle)
}
