package link

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/penalty"
)

func TestAllocateTailBiasOnEqualPenalties(t *testing.T) {
	p := firmware.NewPlatform()
	addDevice(t, p, "LNKA", irqDevice(0, 9, 10, 11))
	s, _ := newTestState(t, p, WithBalancing(true))
	id := mustRegister(t, s, "LNKA")

	got, err := s.AcquireLine(id, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if got.Line != 11 {
		t.Fatalf("line: got %d want 11", got.Line)
	}
}

func TestAllocateReverseScan(t *testing.T) {
	tests := []struct {
		name     string
		elevated uint32
		want     uint32
	}{
		{"middle elevated keeps tail", 10, 11},
		{"tail elevated picks highest remaining", 11, 10},
		{"head elevated keeps tail", 9, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := firmware.NewPlatform()
			addDevice(t, p, "LNKA", irqDevice(0, 9, 10, 11))
			s, _ := newTestState(t, p)
			id := mustRegister(t, s, "LNKA")
			s.penalties.Add(tt.elevated, penalty.Using)

			got, err := s.AcquireLine(id, 0)
			if err != nil {
				t.Fatalf("acquire: %v", err)
			}
			if got.Line != tt.want {
				t.Fatalf("line: got %d want %d", got.Line, tt.want)
			}
		})
	}
}

func TestAllocateAvoidsLegacyLines(t *testing.T) {
	p := firmware.NewPlatform()
	addDevice(t, p, "LNKA", irqDevice(0, 3, 4, 5, 7, 10, 12, 14, 15))
	s, _ := newTestState(t, p)
	id := mustRegister(t, s, "LNKA")

	got, err := s.AcquireLine(id, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if got.Line != 10 {
		t.Fatalf("line: got %d want 10", got.Line)
	}
}

func TestAllocateClearsUntrustedActive(t *testing.T) {
	p := firmware.NewPlatform()
	h := firmware.Handle("LNKA")
	addDevice(t, p, h, firmware.DeviceSpec{Enabled: true})
	s, logs := newTestState(t, p, WithStrict(true))

	r := &record{
		id:       uuid.New(),
		handle:   h,
		possible: []uint32{9, 10, 11},
		kind:     firmware.KindIRQ,
		active:   7,
	}

	s.mu.Lock()
	err := s.allocate(r, false, true)
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if r.active != 11 {
		t.Fatalf("active: got %d want 11", r.active)
	}
	if !r.initialized {
		t.Fatalf("record not bound")
	}
	if !strings.Contains(logs.String(), "_CRS not found in _PRS") {
		t.Fatalf("missing untrusted-current warning:\n%s", logs)
	}
}

func TestAllocateUntrustedActiveNonStrictIsSilent(t *testing.T) {
	p := firmware.NewPlatform()
	addDevice(t, p, "LNKA", irqDevice(7, 9, 10, 11))
	s, logs := newTestState(t, p)
	id := mustRegister(t, s, "LNKA")

	got, err := s.AcquireLine(id, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if got.Line != 11 {
		t.Fatalf("line: got %d want 11", got.Line)
	}
	if strings.Contains(logs.String(), "_CRS not found in _PRS") {
		t.Fatalf("non-strict mode should not warn:\n%s", logs)
	}
}

func TestAllocateBalancingPolicy(t *testing.T) {
	for _, balance := range []bool{false, true} {
		p := firmware.NewPlatform()
		addDevice(t, p, "LNKA", irqDevice(10, 9, 10, 11))
		s, _ := newTestState(t, p, WithBalancing(balance))
		id := mustRegister(t, s, "LNKA")
		s.penalties.Add(10, penalty.Using)

		got, err := s.AcquireLine(id, 0)
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		want := uint32(10)
		if balance {
			want = 11
		}
		if got.Line != want {
			t.Fatalf("balance=%v: got %d want %d", balance, got.Line, want)
		}
	}
}

func TestAllocateChargesUsingPenalty(t *testing.T) {
	p := firmware.NewPlatform()
	addDevice(t, p, "LNKA", irqDevice(0, 9, 10, 11))
	addDevice(t, p, "LNKB", irqDevice(0, 9, 10, 11))
	s, _ := newTestState(t, p)
	a := mustRegister(t, s, "LNKA")
	b := mustRegister(t, s, "LNKB")

	before := s.Penalties()
	ga, err := s.AcquireLine(a, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Penalty(ga.Line); got != before[ga.Line]+penalty.Using {
		t.Fatalf("penalty[%d]: got %d want %d", ga.Line, got, before[ga.Line]+penalty.Using)
	}

	// The second link sees the first one's charge and moves on.
	gb, err := s.AcquireLine(b, 0)
	if err != nil {
		t.Fatal(err)
	}
	if gb.Line == ga.Line {
		t.Fatalf("second link shared line %d despite free alternatives", ga.Line)
	}
	if gb.Line != 10 {
		t.Fatalf("second link: got %d want 10", gb.Line)
	}
}

func TestAllocateIdempotentWhileReferenced(t *testing.T) {
	p := firmware.NewPlatform()
	addDevice(t, p, "LNKA", irqDevice(0, 9, 10, 11))
	s, _ := newTestState(t, p)
	id := mustRegister(t, s, "LNKA")

	first, err := s.AcquireLine(id, 0)
	if err != nil {
		t.Fatal(err)
	}
	pen := s.Penalty(first.Line)
	for i := 0; i < 3; i++ {
		again, err := s.AcquireLine(id, 0)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("assignment changed: %+v != %+v", again, first)
		}
	}
	if st := p.Stats("LNKA"); st.Set != 1 {
		t.Fatalf("set calls: got %d want 1", st.Set)
	}
	if got := s.Penalty(first.Line); got != pen {
		t.Fatalf("penalty changed on re-acquire: %d -> %d", pen, got)
	}
	info, _ := s.Link(id)
	if info.Refcount != 4 {
		t.Fatalf("refcount: got %d want 4", info.Refcount)
	}
}

func TestAllocateFailureLeavesLinkUnbound(t *testing.T) {
	p := firmware.NewPlatform()
	spec := irqDevice(0, 9, 10, 11)
	spec.RejectSet = []uint32{11}
	addDevice(t, p, "LNKA", spec)
	s, _ := newTestState(t, p)
	id := mustRegister(t, s, "LNKA")
	before := s.Penalties()

	_, err := s.AcquireLine(id, 0)
	if !errors.Is(err, ErrAllocationFailed) || !errors.Is(err, firmware.ErrResourceSet) {
		t.Fatalf("got %v want ErrAllocationFailed wrapping firmware.ErrResourceSet", err)
	}
	info, _ := s.Link(id)
	if info.Initialized || info.Refcount != 0 {
		t.Fatalf("failed link should stay unbound: %+v", info)
	}
	if s.Penalties() != before {
		t.Fatalf("penalties changed after failed allocation")
	}
}

func TestAllocateTrustsSetOverReadback(t *testing.T) {
	p := firmware.NewPlatform()
	spec := irqDevice(0, 9, 10, 11)
	bogus := uint32(5)
	spec.Readback = &bogus
	addDevice(t, p, "LNKA", spec)
	s, logs := newTestState(t, p)
	id := mustRegister(t, s, "LNKA")

	got, err := s.AcquireLine(id, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if got.Line != 9 && got.Line != 10 && got.Line != 11 {
		t.Fatalf("line %d not in possible set", got.Line)
	}
	info, _ := s.Link(id)
	if info.Active != got.Line {
		t.Fatalf("active %d != assigned %d", info.Active, got.Line)
	}
	if !strings.Contains(logs.String(), "BIOS reported wrong IRQ") {
		t.Fatalf("missing readback warning:\n%s", logs)
	}
}

func TestAllocateStrictZeroReadbackIsNotFatal(t *testing.T) {
	p := firmware.NewPlatform()
	spec := irqDevice(11, 9, 10, 11)
	zero := uint32(0)
	spec.Readback = &zero
	addDevice(t, p, "LNKA", spec)
	s, _ := newTestState(t, p, WithStrict(true))

	// Registration reads back 0 while enabled, which strict mode rejects.
	if _, err := s.RegisterLink("LNKA"); !errors.Is(err, ErrInvalidCurrentResource) {
		t.Fatalf("register: got %v want ErrInvalidCurrentResource", err)
	}

	r := &record{id: uuid.New(), handle: "LNKA", possible: []uint32{9, 10, 11}, kind: firmware.KindIRQ}
	s.mu.Lock()
	err := s.allocate(r, true, true)
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if r.active != 11 {
		t.Fatalf("active: got %d want 11", r.active)
	}
}

func TestAllocateWarnsWhenDisabledAfterSet(t *testing.T) {
	p := firmware.NewPlatform()
	spec := irqDevice(0, 10)
	spec.DisableOnSet = true
	addDevice(t, p, "LNKA", spec)
	s, logs := newTestState(t, p)
	id := mustRegister(t, s, "LNKA")

	if _, err := s.AcquireLine(id, 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !strings.Contains(logs.String(), "BIOS bug") {
		t.Fatalf("missing disabled-after-set warning:\n%s", logs)
	}
}

func TestAllocateActiveAlwaysInPossible(t *testing.T) {
	sets := [][]uint32{
		{3},
		{5, 7},
		{9, 10, 11},
		{3, 4, 5, 6, 7, 9, 10, 11, 12, 14, 15},
		{16, 17, 18, 19},
		{11, 20, 5},
	}
	for _, possible := range sets {
		p := firmware.NewPlatform()
		addDevice(t, p, "LNKA", irqDevice(0, possible...))
		s, _ := newTestState(t, p)
		id := mustRegister(t, s, "LNKA")
		if err := s.InitPenalties(); err != nil {
			t.Fatal(err)
		}

		got, err := s.AcquireLine(id, 0)
		if err != nil {
			t.Fatalf("%v: acquire: %v", possible, err)
		}
		found := false
		for _, line := range possible {
			if line == got.Line {
				found = true
			}
		}
		if !found {
			t.Fatalf("%v: allocated %d outside possible set", possible, got.Line)
		}
	}
}
