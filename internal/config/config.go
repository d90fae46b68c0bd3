// Package config loads platform descriptions for the interrupt link
// allocator: routing policy, penalty overrides and, for simulation, the
// link objects firmware exposes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/link"
)

// Balance selects the balancing policy.
type Balance string

const (
	BalanceAuto Balance = "auto"
	BalanceOn   Balance = "on"
	BalanceOff  Balance = "off"
)

// Config is the top-level platform description.
type Config struct {
	IRQModel  string          `yaml:"irq_model"`
	Balance   Balance         `yaml:"balance"`
	Strict    bool            `yaml:"strict"`
	SCI       *uint32         `yaml:"sci"`
	Penalties PenaltyConfig   `yaml:"penalties"`
	Links     []LinkConfig    `yaml:"links"`
	Consumers []ConsumerEntry `yaml:"consumers"`
}

// PenaltyConfig lists administrative overrides applied after the
// automatic penalty pass.
type PenaltyConfig struct {
	// ISA lines receive a flat "used" bias.
	ISA []int `yaml:"isa"`
	// PCI lines are reset to available.
	PCI []int `yaml:"pci"`
}

// LinkConfig describes one simulated link object.
type LinkConfig struct {
	Name        string             `yaml:"name"`
	Descriptors []DescriptorConfig `yaml:"descriptors"`
	Current     uint32             `yaml:"current"`
	Enabled     *bool              `yaml:"enabled,omitempty"`
	Quirks      QuirkConfig        `yaml:"quirks"`
}

// DescriptorConfig is one possible-resource entry.
type DescriptorConfig struct {
	Kind       string   `yaml:"kind"`
	Lines      []uint32 `yaml:"lines"`
	Triggering string   `yaml:"triggering"`
	Polarity   string   `yaml:"polarity"`
}

// QuirkConfig injects firmware misbehaviour.
type QuirkConfig struct {
	RejectSet    []uint32 `yaml:"reject_set"`
	Readback     *uint32  `yaml:"readback,omitempty"`
	DisableOnSet bool     `yaml:"disable_on_set"`
	FailQuery    bool     `yaml:"fail_query"`
}

// ConsumerEntry is a device driver asking for a link's line.
type ConsumerEntry struct {
	Link  string `yaml:"link"`
	Index int    `yaml:"index"`
}

// Load reads and validates a platform description.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a platform description.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns an empty IOAPIC platform.
func Default() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.IRQModel == "" {
		c.IRQModel = link.ModelIOAPIC.String()
	}
	if c.Balance == "" {
		c.Balance = BalanceAuto
	}
	if c.SCI == nil {
		sci := uint32(link.DefaultSCI)
		c.SCI = &sci
	}
	for i := range c.Links {
		for j := range c.Links[i].Descriptors {
			if c.Links[i].Descriptors[j].Kind == "" {
				c.Links[i].Descriptors[j].Kind = firmware.KindIRQ.String()
			}
		}
	}
}

// Validate reports the first inconsistency in the description.
func (c *Config) Validate() error {
	if _, err := c.Model(); err != nil {
		return err
	}
	switch c.Balance {
	case BalanceAuto, BalanceOn, BalanceOff:
	default:
		return fmt.Errorf("config: unknown balance policy %q", c.Balance)
	}

	names := make(map[string]bool, len(c.Links))
	for _, l := range c.Links {
		if l.Name == "" {
			return fmt.Errorf("config: link without a name")
		}
		if names[l.Name] {
			return fmt.Errorf("config: duplicate link %q", l.Name)
		}
		names[l.Name] = true
		if _, err := l.DeviceSpec(); err != nil {
			return fmt.Errorf("config: link %q: %w", l.Name, err)
		}
	}
	for _, cons := range c.Consumers {
		if !names[cons.Link] {
			return fmt.Errorf("config: consumer references unknown link %q", cons.Link)
		}
	}
	return nil
}

// Model returns the configured interrupt routing model.
func (c *Config) Model() (link.IRQModel, error) {
	switch c.IRQModel {
	case "pic":
		return link.ModelPIC, nil
	case "ioapic", "":
		return link.ModelIOAPIC, nil
	}
	return 0, fmt.Errorf("config: unknown irq model %q", c.IRQModel)
}

// Options translates the policy section into allocator options.
func (c *Config) Options() ([]link.Option, error) {
	model, err := c.Model()
	if err != nil {
		return nil, err
	}
	opts := []link.Option{
		link.WithIRQModel(model),
		link.WithStrict(c.Strict),
		link.WithSCI(*c.SCI),
	}
	switch c.Balance {
	case BalanceOn:
		opts = append(opts, link.WithBalancing(true))
	case BalanceOff:
		opts = append(opts, link.WithBalancing(false))
	}
	return opts, nil
}

// DeviceSpec converts the link description into a simulated device.
func (l LinkConfig) DeviceSpec() (firmware.DeviceSpec, error) {
	spec := firmware.DeviceSpec{
		Current:      l.Current,
		Enabled:      l.Enabled == nil || *l.Enabled,
		RejectSet:    l.Quirks.RejectSet,
		Readback:     l.Quirks.Readback,
		DisableOnSet: l.Quirks.DisableOnSet,
		FailQuery:    l.Quirks.FailQuery,
	}
	for _, d := range l.Descriptors {
		kind, err := firmware.ParseKind(d.Kind)
		if err != nil {
			return firmware.DeviceSpec{}, err
		}
		trig, err := firmware.ParseTriggering(d.Triggering)
		if err != nil {
			return firmware.DeviceSpec{}, err
		}
		pol, err := firmware.ParsePolarity(d.Polarity)
		if err != nil {
			return firmware.DeviceSpec{}, err
		}
		spec.Descriptors = append(spec.Descriptors, firmware.Descriptor{
			Kind:       kind,
			Lines:      d.Lines,
			Triggering: trig,
			Polarity:   pol,
		})
	}
	return spec, nil
}

// Platform builds a simulated firmware holding every configured link.
func (c *Config) Platform() (*firmware.Platform, error) {
	p := firmware.NewPlatform()
	for _, l := range c.Links {
		spec, err := l.DeviceSpec()
		if err != nil {
			return nil, fmt.Errorf("config: link %q: %w", l.Name, err)
		}
		if err := p.AddDevice(Handle(l.Name), spec); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Handle maps a configured link name to its firmware namespace path.
func Handle(name string) firmware.Handle {
	return firmware.Handle(`\_SB.` + name)
}
