package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tinyrange/irqlink/internal/penalty"
)

func newPenaltiesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "penalties",
		Short: "Show the penalty table after link registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			p := painter{color: flags.color(cmd)}

			t := &table{header: []string{"IRQ", "BASELINE", "PENALTY", "SCI"}}
			for line, score := range s.state.Penalties() {
				base := penalty.Baseline(uint32(line))
				if line >= penalty.MaxISALine && score == base {
					continue
				}
				sci := ""
				if uint32(line) == s.state.SCI() {
					sci = "*"
				}
				value := strconv.Itoa(score)
				if score != base {
					value = p.paint(styleWarning, value)
				}
				t.add(strconv.Itoa(line), strconv.Itoa(base), value, sci)
			}
			t.render(cmd.OutOrStdout(), p)
			return nil
		},
	}
}
