package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tinyrange/irqlink/internal/link"
)

func newResumeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Route every consumer, then replay link settings as after a resume",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			p := painter{color: flags.color(cmd)}
			out := cmd.OutOrStdout()

			s.acquireConsumers()
			before := make(map[link.ID]int)
			links := s.state.Links()
			for _, info := range links {
				before[info.ID] = s.platform.Stats(info.Handle).Set
			}

			n := s.state.OnResume()

			renderLinks(out, p, s.state.Links(), &linkColumn{
				header: "REAPPLIED",
				value: func(info link.Info) string {
					return strconv.Itoa(s.platform.Stats(info.Handle).Set - before[info.ID])
				},
			})
			fmt.Fprintf(out, "\n%d of %d links re-applied\n", n, len(links))
			return nil
		},
	}
}
