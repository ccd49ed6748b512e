package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/cribbage/config"
	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/internal/bot"
	"github.com/luca-patrignani/cribbage/network"
	"github.com/luca-patrignani/cribbage/observability"
	"github.com/luca-patrignani/cribbage/session"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Watch two bots play a whole game",
	Long:  `Runs two sessions connected by an in-memory channel, each played by the bot, and prints every move.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		seed, _ := cmd.Flags().GetString("seed")
		quiet, _ := cmd.Flags().GetBool("quiet")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		metrics := observability.New()
		srv, err := serveMetrics(cfg.Metrics.Listen, metrics)
		if err != nil {
			return err
		}
		if srv != nil {
			defer srv.Close()
			pterm.Info.Printfln("Metrics on http://%s/metrics", cfg.Metrics.Listen)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		_, err = runDemo(ctx, cmd.OutOrStdout(), demoOptions{
			cfg:     cfg,
			seed:    deck.Seed(seed),
			quiet:   quiet,
			logger:  logger,
			metrics: metrics,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().String("seed", "", "Shuffle seed, random when empty")
	demoCmd.Flags().String("counting", "", "Counting mode: manual or automatic")
	demoCmd.Flags().String("metrics", "", "Serve Prometheus metrics on this address")
	demoCmd.Flags().BoolP("quiet", "q", false, "Only print the result")
	demoCmd.Flags().Duration("timeout", time.Minute, "Give up after this long")
}

type demoOptions struct {
	cfg     config.Config
	seed    deck.Seed
	quiet   bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// runDemo plays a bot against a bot and returns the final state.
func runDemo(ctx context.Context, out io.Writer, o demoOptions) (*cribbage.Game, error) {
	rules, err := o.cfg.Options()
	if err != nil {
		return nil, err
	}
	names := players{"north", "south"}
	a, b := network.Pipe(network.WithLogger(o.logger))
	common := func(seat cribbage.Seat) []session.Option {
		return []session.Option{
			session.WithLogger(o.logger),
			session.WithName(names[seat]),
			session.WithMugginsTimeout(o.cfg.Game.MugginsTimeout),
		}
	}
	var printMu sync.Mutex
	report := func(e session.Event) {
		if o.quiet || e.Kind != session.EventStateChanged || e.Action == nil {
			return
		}
		printMu.Lock()
		defer printMu.Unlock()
		fmt.Fprintln(out, describeAction(*e.Action, e.Outcome, names))
		if e.Outcome != nil && e.Outcome.To == cribbage.PhaseRoundComplete && e.Outcome.From != cribbage.PhaseRoundComplete {
			panel, err := pterm.DefaultPanel.WithPanels([][]pterm.Panel{{countPanel(e.Game, names)}}).Srender()
			if err == nil {
				fmt.Fprintln(out, panel)
			}
			fmt.Fprintln(out, scoreLine(e.Game, names))
		}
	}

	host := session.New(a, cribbage.Host, append(common(cribbage.Host),
		session.WithSeed(o.seed),
		session.WithGameOptions(rules),
		session.WithMetrics(o.metrics),
		session.WithObserver(report),
	)...)
	guest := session.New(b, cribbage.Guest, common(cribbage.Guest)...)
	defer guest.Close()
	defer host.Close()

	finished := make(chan session.Event, 2)
	autoplay(host, finished)
	autoplay(guest, finished)
	if err := host.Start(); err != nil {
		return nil, err
	}
	if err := guest.Start(); err != nil {
		return nil, err
	}

	for range 2 {
		select {
		case e := <-finished:
			if e.Kind != session.EventGameOver {
				return host.Game(), fmt.Errorf("game interrupted: %s", e)
			}
		case <-ctx.Done():
			return host.Game(), ctx.Err()
		}
	}

	g := host.Game()
	if other := guest.Game(); other == nil || other.Digest() != g.Digest() {
		return g, fmt.Errorf("the two peers disagree on the final state")
	}
	if err := host.Ledger().Verify(); err != nil {
		return g, fmt.Errorf("ledger: %w", err)
	}
	panel, err := pterm.DefaultPanel.WithPanels([][]pterm.Panel{{winnerPanel(g, names)}}).Srender()
	if err != nil {
		return g, err
	}
	fmt.Fprintln(out, panel)
	fmt.Fprintf(out, "%d transitions recorded\n", host.Ledger().Len())
	return g, nil
}

// autoplay lets the bot make every move of the session's seat. The first
// event ending the game is sent on finished.
func autoplay(s *session.Session, finished chan<- session.Event) {
	var once sync.Once
	s.OnEvent(func(e session.Event) {
		switch e.Kind {
		case session.EventGameOver, session.EventRoundAbandoned, session.EventDisconnected:
			once.Do(func() { finished <- e })
			return
		case session.EventStateChanged, session.EventResynced:
		default:
			return
		}
		for range 8 {
			g := s.Game()
			if g == nil {
				return
			}
			a, ok := bot.Move(g, s.Seat())
			if !ok {
				return
			}
			if err := s.Do(a); err != nil {
				return
			}
		}
	})
}
