// Package irqlink allocates interrupt lines for firmware-described PCI
// interrupt link devices. A State discovers which lines each link may use,
// balances links across lines by a per-line penalty score, programs the
// choice back into firmware and replays it after resume.
//
// Firmware access goes through a Provider; NewPlatform returns an in-memory
// Provider for tests and simulation.
package irqlink

import (
	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/link"
	"github.com/tinyrange/irqlink/internal/penalty"
)

// -----------------------------------------------------------------------------
// Type Aliases - These re-export types from the internal packages
// -----------------------------------------------------------------------------

// State is the link registry and allocator.
type State = link.State

// Option configures a State.
type Option = link.Option

// ID identifies a registered link.
type ID = link.ID

// Info is a snapshot of a registered link.
type Info = link.Info

// Assignment is returned to a consumer that acquired a line.
type Assignment = link.Assignment

// Error carries the failed operation and link.
type Error = link.Error

// IRQModel is the platform interrupt routing model.
type IRQModel = link.IRQModel

// OverrideMode selects how ApplyPenaltyOverride changes a line.
type OverrideMode = penalty.Mode

// Provider evaluates resource methods on firmware link objects.
type Provider = firmware.Provider

// Handle identifies a firmware link object.
type Handle = firmware.Handle

// Descriptor is one entry of a link's possible-resource list.
type Descriptor = firmware.Descriptor

// Setting is a single-line resource programmed into firmware.
type Setting = firmware.Setting

// DeviceSpec describes a simulated link object.
type DeviceSpec = firmware.DeviceSpec

// Platform is an in-memory Provider.
type Platform = firmware.Platform

// Routing models.
const (
	ModelPIC    = link.ModelPIC
	ModelIOAPIC = link.ModelIOAPIC
)

// Override modes.
const (
	// Available clears a line back to the unbiased score.
	Available = penalty.ModeAvailable
	// UsedBias marks a line as used by a legacy device.
	UsedBias = penalty.ModeUsedBias
)

// Descriptor kinds, trigger modes and polarities.
const (
	KindIRQ         = firmware.KindIRQ
	KindExtendedIRQ = firmware.KindExtendedIRQ

	LevelSensitive = firmware.LevelSensitive
	EdgeSensitive  = firmware.EdgeSensitive

	ActiveHigh = firmware.ActiveHigh
	ActiveLow  = firmware.ActiveLow
)

// Sentinel errors.
var (
	ErrResourceQuery          = link.ErrResourceQuery
	ErrInvalidCurrentResource = link.ErrInvalidCurrentResource
	ErrAllocationFailed       = link.ErrAllocationFailed
	ErrInvalidIndex           = link.ErrInvalidIndex
	ErrNoLineAssigned         = link.ErrNoLineAssigned
	ErrNotInitialized         = link.ErrNotInitialized
	ErrNotReferenced          = link.ErrNotReferenced
	ErrUnknownLink            = link.ErrUnknownLink
	ErrAlreadyRegistered      = link.ErrAlreadyRegistered
	ErrPenaltiesInitialized   = link.ErrPenaltiesInitialized

	// ErrResourceSet is returned by providers that reject a setting.
	ErrResourceSet = firmware.ErrResourceSet
)

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

var (
	WithLogger    = link.WithLogger
	WithStrict    = link.WithStrict
	WithSCI       = link.WithSCI
	WithIRQModel  = link.WithIRQModel
	WithBalancing = link.WithBalancing
)

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

// New returns an allocator backed by provider.
func New(provider Provider, opts ...Option) *State {
	return link.NewState(provider, opts...)
}

// NewPlatform returns an empty simulated firmware.
func NewPlatform() *Platform {
	return firmware.NewPlatform()
}
