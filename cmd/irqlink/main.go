package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type globalFlags struct {
	config   string
	strict   bool
	balance  string
	isa      []int
	pci      []int
	logLevel string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "irqlink",
		Short:         "Simulate PCI interrupt link routing",
		Long:          "irqlink registers firmware-described PCI interrupt links from a platform description, balances them across interrupt lines and reports the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Platform description (YAML)")
	pf.BoolVar(&flags.strict, "strict", false, "Reject ambiguous firmware answers")
	pf.StringVar(&flags.balance, "balance", "", "Balancing policy: auto, on or off")
	pf.IntSliceVar(&flags.isa, "irq-isa", nil, "Lines to mark as used by legacy devices")
	pf.IntSliceVar(&flags.pci, "irq-pci", nil, "Lines to mark as available to PCI")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		newRouteCmd(flags),
		newPenaltiesCmd(flags),
		newResumeCmd(flags),
	)
	return root
}

func (f *globalFlags) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func (f *globalFlags) color(cmd *cobra.Command) bool {
	if f.noColor {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(out.Fd()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "irqlink:", err)
		os.Exit(1)
	}
}
