package irqlink_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tinyrange/irqlink"
)

func Example() {
	fw := irqlink.NewPlatform()
	for _, name := range []irqlink.Handle{`\_SB.LNKA`, `\_SB.LNKB`} {
		_ = fw.AddDevice(name, irqlink.DeviceSpec{
			Descriptors: []irqlink.Descriptor{{
				Kind:       irqlink.KindIRQ,
				Lines:      []uint32{3, 4, 5, 7, 9, 10, 11},
				Triggering: irqlink.LevelSensitive,
				Polarity:   irqlink.ActiveLow,
			}},
			Enabled: true,
		})
	}

	s := irqlink.New(fw,
		irqlink.WithIRQModel(irqlink.ModelIOAPIC),
		irqlink.WithSCI(9),
		irqlink.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	a, _ := s.RegisterLink(`\_SB.LNKA`)
	b, _ := s.RegisterLink(`\_SB.LNKB`)
	_ = s.InitPenalties()

	for _, id := range []irqlink.ID{a, b} {
		got, err := s.AcquireLine(id, 0)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%s -> IRQ %d (%s, active %s)\n", got.Name, got.Line, got.Triggering, got.Polarity)
	}

	line, _ := s.ReleaseLine(a)
	fmt.Println("released IRQ", line)
	fmt.Println("re-applied on resume:", s.OnResume())

	// Output:
	// LNKA -> IRQ 11 (level, active low)
	// LNKB -> IRQ 10 (level, active low)
	// released IRQ 11
	// re-applied on resume: 1
}
