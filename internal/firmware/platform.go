package firmware

import (
	"fmt"
	"slices"
	"sync"
)

// DeviceSpec describes a simulated link object.
type DeviceSpec struct {
	Descriptors []Descriptor
	Current     uint32
	Enabled     bool

	// RejectSet lists lines the firmware refuses to program.
	RejectSet []uint32
	// Readback, when non-nil, is returned by QueryCurrent regardless of
	// what was last programmed.
	Readback *uint32
	// DisableOnSet leaves the device disabled after a successful set.
	DisableOnSet bool
	// FailQuery makes every enumerate and query call fail.
	FailQuery bool
}

// Stats counts method evaluations against a simulated device.
type Stats struct {
	Enumerate int
	Query     int
	Set       int
	Disable   int
}

type simDevice struct {
	spec    DeviceSpec
	current uint32
	enabled bool
	setting Setting
	stats   Stats
}

// Platform is an in-memory Provider driven by a static description. It is
// safe for concurrent use.
type Platform struct {
	mu      sync.Mutex
	devices map[Handle]*simDevice
	order   []Handle
}

var _ Provider = (*Platform)(nil)

// NewPlatform returns an empty simulated firmware.
func NewPlatform() *Platform {
	return &Platform{devices: make(map[Handle]*simDevice)}
}

// AddDevice registers a simulated link object.
func (p *Platform) AddDevice(h Handle, spec DeviceSpec) error {
	if h == "" {
		return fmt.Errorf("firmware: empty device handle")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.devices[h]; ok {
		return fmt.Errorf("firmware: device %s already exists", h)
	}
	p.devices[h] = &simDevice{
		spec:    spec,
		current: spec.Current,
		enabled: spec.Enabled,
	}
	p.order = append(p.order, h)
	return nil
}

// Handles returns every device handle in the order they were added.
func (p *Platform) Handles() []Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}

// Stats returns the evaluation counters for h.
func (p *Platform) Stats(h Handle) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dev, ok := p.devices[h]; ok {
		return dev.stats
	}
	return Stats{}
}

// Programmed returns the last setting accepted for h.
func (p *Platform) Programmed(h Handle) (Setting, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dev, ok := p.devices[h]
	if !ok || dev.setting.Line == 0 {
		return Setting{}, false
	}
	return dev.setting, true
}

func (p *Platform) lookup(h Handle) (*simDevice, error) {
	dev, ok := p.devices[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, h)
	}
	return dev, nil
}

func (p *Platform) EnumeratePossible(h Handle) ([]Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dev, err := p.lookup(h)
	if err != nil {
		return nil, err
	}
	dev.stats.Enumerate++
	if dev.spec.FailQuery {
		return nil, fmt.Errorf("%w: %s _PRS", ErrQuery, h)
	}
	out := make([]Descriptor, len(dev.spec.Descriptors))
	for i, d := range dev.spec.Descriptors {
		d.Lines = slices.Clone(d.Lines)
		out[i] = d
	}
	return out, nil
}

func (p *Platform) QueryCurrent(h Handle) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dev, err := p.lookup(h)
	if err != nil {
		return 0, err
	}
	dev.stats.Query++
	if dev.spec.FailQuery {
		return 0, fmt.Errorf("%w: %s _CRS", ErrQuery, h)
	}
	if dev.spec.Readback != nil {
		return *dev.spec.Readback, nil
	}
	return dev.current, nil
}

func (p *Platform) SetCurrent(h Handle, s Setting) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	dev, err := p.lookup(h)
	if err != nil {
		return err
	}
	dev.stats.Set++
	if s.Line == 0 {
		return fmt.Errorf("%w: %s: line 0", ErrResourceSet, h)
	}
	if !s.Kind.IsIRQ() {
		return fmt.Errorf("%w: %s: invalid resource kind %s", ErrResourceSet, h, s.Kind)
	}
	if slices.Contains(dev.spec.RejectSet, s.Line) {
		return fmt.Errorf("%w: %s: line %d rejected", ErrResourceSet, h, s.Line)
	}
	dev.current = s.Line
	dev.setting = s
	dev.enabled = !dev.spec.DisableOnSet
	return nil
}

func (p *Platform) IsEnabled(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	dev, err := p.lookup(h)
	if err != nil {
		return false
	}
	return dev.enabled
}

func (p *Platform) Disable(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dev, err := p.lookup(h)
	if err != nil {
		return
	}
	dev.stats.Disable++
	dev.enabled = false
}
