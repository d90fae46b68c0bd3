package link

import (
	"slices"

	"github.com/google/uuid"
	"github.com/tinyrange/irqlink/internal/firmware"
)

// MaxPossible is the most lines retained from a possible-resource list.
const MaxPossible = 16

// ID identifies a registered link.
type ID = uuid.UUID

// record is the per-device state. All fields are guarded by State.mu.
type record struct {
	id     ID
	handle firmware.Handle

	possible   []uint32
	kind       firmware.Kind
	triggering firmware.Triggering
	polarity   firmware.Polarity

	active      uint32
	initialized bool
	refcount    uint
}

func (r *record) name() string {
	return r.handle.BusID()
}

func (r *record) setting(line uint32) firmware.Setting {
	return firmware.Setting{
		Line:       line,
		Triggering: r.triggering,
		Polarity:   r.polarity,
		Kind:       r.kind,
	}
}

func (r *record) info() Info {
	return Info{
		ID:          r.id,
		Handle:      r.handle,
		Name:        r.name(),
		Possible:    slices.Clone(r.possible),
		Kind:        r.kind,
		Triggering:  r.triggering,
		Polarity:    r.polarity,
		Active:      r.active,
		Initialized: r.initialized,
		Refcount:    r.refcount,
	}
}

// Info is a point-in-time copy of a link's state.
type Info struct {
	ID          ID
	Handle      firmware.Handle
	Name        string
	Possible    []uint32
	Kind        firmware.Kind
	Triggering  firmware.Triggering
	Polarity    firmware.Polarity
	Active      uint32
	Initialized bool
	Refcount    uint
}

// Assignment is handed to a consumer that acquired a link's line.
type Assignment struct {
	Line       uint32
	Triggering firmware.Triggering
	Polarity   firmware.Polarity
	Name       string
}
