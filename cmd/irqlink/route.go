package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinyrange/irqlink/internal/link"
	"github.com/tinyrange/irqlink/internal/penalty"
)

func newRouteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "route",
		Short: "Register links, acquire every consumer and show the routing",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			p := painter{color: flags.color(cmd)}
			out := cmd.OutOrStdout()

			results := s.acquireConsumers()
			renderConsumers(out, p, results)
			fmt.Fprintln(out)
			renderLinks(out, p, s.state.Links(), nil)
			fmt.Fprintln(out)
			renderPenaltyChanges(out, p, s.state)

			for _, r := range results {
				if r.err != nil {
					return fmt.Errorf("%d of %d consumers failed", countFailed(results), len(results))
				}
			}
			return nil
		},
	}
}

func countFailed(results []consumerResult) int {
	n := 0
	for _, r := range results {
		if r.err != nil {
			n++
		}
	}
	return n
}

func renderConsumers(w io.Writer, p painter, results []consumerResult) {
	t := &table{header: []string{"CONSUMER", "LINK", "LINE", "TRIGGER", "POLARITY", "STATUS"}}
	for i, r := range results {
		name := fmt.Sprintf("#%d", i)
		if r.err != nil {
			t.add(name, r.consumer.Link, "-", "-", "-", p.paint(styleError, r.err.Error()))
			continue
		}
		a := r.assignment
		t.add(name, a.Name, strconv.FormatUint(uint64(a.Line), 10), a.Triggering.String(), a.Polarity.String(), p.paint(styleActive, "ok"))
	}
	t.render(w, p)
}

// linkColumn is an extra per-link column appended by renderLinks.
type linkColumn struct {
	header string
	value  func(link.Info) string
}

func renderLinks(w io.Writer, p painter, links []link.Info, extra *linkColumn) {
	header := []string{"LINK", "IRQS", "ACTIVE", "REFS", "STATE"}
	if extra != nil {
		header = append(header, extra.header)
	}
	t := &table{header: header}
	for _, info := range links {
		state := p.paint(styleDim, "unbound")
		if info.Initialized {
			state = p.paint(styleActive, "bound")
		}
		row := []string{
			info.Name,
			formatPossible(p, info.Possible, info.Active),
			strconv.FormatUint(uint64(info.Active), 10),
			strconv.FormatUint(uint64(info.Refcount), 10),
			state,
		}
		if extra != nil {
			row = append(row, extra.value(info))
		}
		t.add(row...)
	}
	t.render(w, p)
}

func formatPossible(p painter, possible []uint32, active uint32) string {
	if len(possible) == 0 {
		return p.paint(styleWarning, "none")
	}
	parts := make([]string, len(possible))
	for i, line := range possible {
		s := strconv.FormatUint(uint64(line), 10)
		if line == active {
			s = p.paint(styleActive, "*"+s)
		}
		parts[i] = s
	}
	return strings.Join(parts, " ")
}

func renderPenaltyChanges(w io.Writer, p painter, s *link.State) {
	t := &table{header: []string{"IRQ", "BASELINE", "PENALTY"}}
	scores := s.Penalties()
	for line, score := range scores {
		base := penalty.Baseline(uint32(line))
		if score == base {
			continue
		}
		t.add(strconv.Itoa(line), strconv.Itoa(base), p.paint(styleWarning, strconv.Itoa(score)))
	}
	if len(t.rows) == 0 {
		fmt.Fprintln(w, p.paint(styleDim, "no penalty changes"))
		return
	}
	t.render(w, p)
}
