package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/link"
)

const samplePlatform = `
irq_model: pic
balance: on
strict: true
sci: 9
penalties:
  isa: [5]
  pci: [10]
links:
  - name: LNKA
    descriptors:
      - kind: start-dependent
      - lines: [5, 10, 11]
        triggering: edge
        polarity: high
    current: 10
  - name: LNKB
    enabled: false
    descriptors:
      - kind: extended
        lines: [16, 17]
    quirks:
      reject_set: [17]
      readback: 0
      disable_on_set: true
consumers:
  - link: LNKA
  - link: LNKB
    index: 0
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(samplePlatform))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Balance != BalanceOn || !cfg.Strict || *cfg.SCI != 9 {
		t.Fatalf("policy: %+v", cfg)
	}
	if model, _ := cfg.Model(); model != link.ModelPIC {
		t.Fatalf("model: got %v", model)
	}
	if len(cfg.Penalties.ISA) != 1 || cfg.Penalties.PCI[0] != 10 {
		t.Fatalf("penalties: %+v", cfg.Penalties)
	}

	a, err := cfg.Links[0].DeviceSpec()
	if err != nil {
		t.Fatal(err)
	}
	if !a.Enabled || a.Current != 10 || len(a.Descriptors) != 2 {
		t.Fatalf("LNKA spec: %+v", a)
	}
	d := a.Descriptors[1]
	if d.Kind != firmware.KindIRQ || d.Triggering != firmware.EdgeSensitive || d.Polarity != firmware.ActiveHigh {
		t.Fatalf("LNKA descriptor: %+v", d)
	}

	b, err := cfg.Links[1].DeviceSpec()
	if err != nil {
		t.Fatal(err)
	}
	if b.Enabled || b.Readback == nil || *b.Readback != 0 || !b.DisableOnSet {
		t.Fatalf("LNKB quirks: %+v", b)
	}
	if b.Descriptors[0].Polarity != firmware.ActiveLow || b.Descriptors[0].Triggering != firmware.LevelSensitive {
		t.Fatalf("LNKB defaults: %+v", b.Descriptors[0])
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("links: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IRQModel != "ioapic" || cfg.Balance != BalanceAuto || *cfg.SCI != link.DefaultSCI {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if d := Default(); d.IRQModel != cfg.IRQModel || *d.SCI != *cfg.SCI {
		t.Fatalf("Default() disagrees with parsed defaults: %+v", d)
	}
}

func TestExplicitZeroSCI(t *testing.T) {
	cfg, err := Parse([]byte("sci: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SCI == nil || *cfg.SCI != 0 {
		t.Fatalf("sci: got %v want 0", cfg.SCI)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Platform()
	if err != nil {
		t.Fatal(err)
	}
	if s := link.NewState(p, opts...); s.SCI() != 0 {
		t.Fatalf("state sci: got %d want 0", s.SCI())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"model":      "irq_model: apic\n",
		"balance":    "balance: sometimes\n",
		"no name":    "links:\n  - current: 3\n",
		"duplicate":  "links:\n  - name: A\n  - name: A\n",
		"kind":       "links:\n  - name: A\n    descriptors:\n      - kind: dma\n",
		"triggering": "links:\n  - name: A\n    descriptors:\n      - triggering: rising\n",
		"polarity":   "links:\n  - name: A\n    descriptors:\n      - polarity: sideways\n",
		"consumer":   "links:\n  - name: A\nconsumers:\n  - link: B\n",
		"yaml":       "links: [\n",
	}
	for name, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestOptionsAndPlatform(t *testing.T) {
	cfg, err := Parse([]byte(samplePlatform))
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Platform()
	if err != nil {
		t.Fatalf("platform: %v", err)
	}
	hs := p.Handles()
	if len(hs) != 2 || hs[0] != Handle("LNKA") || !strings.HasSuffix(string(hs[1]), "LNKB") {
		t.Fatalf("handles: %v", hs)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	s := link.NewState(p, opts...)
	if !s.BalancingEnabled() {
		t.Fatalf("balance: on should override pic default")
	}
	if !s.Strict() || s.SCI() != 9 {
		t.Fatalf("strict/sci not applied")
	}

	cfg.Balance = BalanceAuto
	opts, _ = cfg.Options()
	if link.NewState(p, opts...).BalancingEnabled() {
		t.Fatalf("auto balance on pic should be off")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform.yaml")
	if err := os.WriteFile(path, []byte(samplePlatform), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Links) != 2 || len(cfg.Consumers) != 2 {
		t.Fatalf("loaded %+v", cfg)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
