package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tinyrange/irqlink/internal/config"
	"github.com/tinyrange/irqlink/internal/firmware"
	"github.com/tinyrange/irqlink/internal/link"
	"github.com/tinyrange/irqlink/internal/penalty"
)

// session is a booted platform: every link registered and penalties
// initialised, ready for consumers.
type session struct {
	cfg      *config.Config
	platform *firmware.Platform
	state    *link.State
	logger   *slog.Logger

	ids    map[string]link.ID
	failed map[string]error
}

func newSession(cmd *cobra.Command, flags *globalFlags) (*session, error) {
	logger, err := flags.logger()
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if flags.config != "" {
		if cfg, err = config.Load(flags.config); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = flags.strict
	}
	if flags.balance != "" {
		cfg.Balance = config.Balance(flags.balance)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	platform, err := cfg.Platform()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, link.WithLogger(logger))

	s := &session{
		cfg:      cfg,
		platform: platform,
		state:    link.NewState(platform, opts...),
		logger:   logger,
		ids:      make(map[string]link.ID),
		failed:   make(map[string]error),
	}

	for _, l := range cfg.Links {
		id, err := s.state.RegisterLink(config.Handle(l.Name))
		if err != nil {
			logger.Warn("link left unregistered", "link", l.Name, "err", err)
			s.failed[l.Name] = err
			continue
		}
		s.ids[l.Name] = id
	}

	if err := s.state.InitPenalties(); err != nil {
		return nil, err
	}
	isa := append(append([]int{}, cfg.Penalties.ISA...), flags.isa...)
	pci := append(append([]int{}, cfg.Penalties.PCI...), flags.pci...)
	s.state.ApplyPenaltyOverrides(isa, penalty.ModeUsedBias)
	s.state.ApplyPenaltyOverrides(pci, penalty.ModeAvailable)

	return s, nil
}

// consumerResult is the outcome of one consumer's acquire.
type consumerResult struct {
	consumer   config.ConsumerEntry
	assignment link.Assignment
	err        error
}

func (s *session) acquireConsumers() []consumerResult {
	results := make([]consumerResult, 0, len(s.cfg.Consumers))
	for _, c := range s.cfg.Consumers {
		res := consumerResult{consumer: c}
		id, ok := s.ids[c.Link]
		if !ok {
			res.err = fmt.Errorf("link %s not registered: %w", c.Link, s.failed[c.Link])
		} else {
			res.assignment, res.err = s.state.AcquireLine(id, c.Index)
		}
		results = append(results, res)
	}
	return results
}
