package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/cribbage/config"
	"github.com/luca-patrignani/cribbage/discovery"
	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/network"
	"github.com/luca-patrignani/cribbage/observability"
	"github.com/luca-patrignani/cribbage/persistence"
	"github.com/luca-patrignani/cribbage/protocol"
	"github.com/luca-patrignani/cribbage/session"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Open a room and wait for an opponent",
	Long:  `Listens for one opponent and advertises a 3-digit room code on the discovery port range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, f, err := setupPlay(cmd)
		if err != nil {
			return err
		}
		return hostGame(cmd.Context(), cfg, logger, f)
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <room-code|address>",
	Short: "Join a room by its code or by the host's address",
	Example: `  cribbage join 417
  cribbage join 192.168.1.20:41235
  cribbage join 20:41235      same /24 network as this machine`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, f, err := setupPlay(cmd)
		if err != nil {
			return err
		}
		return joinGame(cmd.Context(), cfg, logger, args[0], f)
	},
}

func init() {
	for _, c := range []*cobra.Command{hostCmd, joinCmd} {
		rootCmd.AddCommand(c)
		c.Flags().Bool("bot", false, "Let the bot play for you")
		c.Flags().Bool("resume", false, "Resume the last saved game")
		c.Flags().String("transport", "", "Channel to use: ws or http")
		c.Flags().String("listen", "", "Address to listen on")
		c.Flags().String("metrics", "", "Serve Prometheus metrics on this address")
		c.Flags().String("snapshot", "", "Snapshot backend: none, memory, file or redis")
	}
	hostCmd.Flags().String("counting", "", "Counting mode: manual or automatic")
	hostCmd.Flags().String("seed", "", "Shuffle seed, random when empty")
	joinCmd.Flags().String("host", "localhost", "Machine to look for the room on, may be partial (e.g. 20 or 1.20)")
}

type playFlags struct {
	bot      bool
	resume   bool
	seed     string
	scanHost string
}

func setupPlay(cmd *cobra.Command) (config.Config, *slog.Logger, playFlags, error) {
	var f playFlags
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, f, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, f, err
	}
	f.bot, _ = cmd.Flags().GetBool("bot")
	f.resume, _ = cmd.Flags().GetBool("resume")
	if fl := cmd.Flags().Lookup("seed"); fl != nil {
		f.seed = fl.Value.String()
	}
	if fl := cmd.Flags().Lookup("host"); fl != nil {
		f.scanHost = fl.Value.String()
	}
	return cfg, logger, f, nil
}

func banner() {
	_ = pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("C", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("ribbage", pterm.FgDarkGray.ToStyle()),
	).Render()
}

func networkOptions(cfg config.Config, logger *slog.Logger) []network.Option {
	return []network.Option{
		network.WithLogger(logger),
		network.WithRetry(cfg.Retry.Attempts, cfg.Retry.Backoff),
		network.WithTimeout(cfg.Retry.Timeout),
	}
}

func discoveryOptions(cfg config.Config, logger *slog.Logger) []discovery.Option {
	return []discovery.Option{
		discovery.WithLogger(logger),
		discovery.WithPortRange(uint16(cfg.Discovery.StartPort), uint16(cfg.Discovery.EndPort)),
		discovery.WithAttempts(uint(cfg.Retry.Attempts)),
		discovery.WithInterval(cfg.Retry.Backoff),
	}
}

func firstDealer(s string) cribbage.Seat {
	switch s {
	case "guest":
		return cribbage.Guest
	case "random":
		return cribbage.Seat(rand.IntN(2))
	}
	return cribbage.Host
}

func hostGame(ctx context.Context, cfg config.Config, logger *slog.Logger, f playFlags) error {
	banner()
	l, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}
	addr := advertisedAddr(l)
	pterm.Info.Printfln("Listening on %s", addr)
	if tl, ok := l.(*net.TCPListener); ok {
		if subnet, err := subnetOfListener(tl); err == nil {
			pterm.Info.Printfln("Players on %s can join with the last octets of the address", subnet.String())
		}
	}

	code := discovery.NewRoomCode()
	ad, err := discovery.Advertise(discovery.Room{
		Code:      code,
		Host:      cfg.Player,
		Transport: cfg.Transport,
		Address:   addr,
	}, discoveryOptions(cfg, logger)...)
	if err != nil {
		pterm.Warning.Printfln("Cannot advertise a room (%v), join with the address instead", err)
	} else {
		defer ad.Close()
		pterm.Success.Printfln("Room %d is open: cribbage join %d", code, code)
	}

	metrics := observability.New()
	if srv, err := serveMetrics(cfg.Metrics.Listen, metrics); err != nil {
		return err
	} else if srv != nil {
		defer srv.Close()
	}

	var ch protocol.Channel
	switch cfg.Transport {
	case "http":
		peer := network.NewPeer(l, "", networkOptions(cfg, logger)...)
		peer.Advertise(addr)
		peer.Router().Get("/metrics", metrics.Handler().ServeHTTP)
		ch = peer
	default:
		accepted := make(chan *network.WSChannel, 1)
		r := metricsRouter(metrics)
		r.Get("/ws", network.WebSocketHandler(func(c *network.WSChannel) {
			select {
			case accepted <- c:
			default:
				_ = c.Close()
			}
		}, networkOptions(cfg, logger)...))
		srv := &http.Server{Handler: r}
		go func() {
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("game server stopped", "error", err)
			}
		}()
		defer srv.Close()

		spinner, _ := pterm.DefaultSpinner.Start("Waiting for an opponent ...")
		select {
		case c := <-accepted:
			spinner.Success("Opponent connected")
			ch = c
		case <-ctx.Done():
			spinner.Fail("Nobody joined")
			return ctx.Err()
		}
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	s, err := newSession(ctx, ch, cribbage.Host, cfg, logger, metrics, store, f, "")
	if err != nil {
		_ = ch.Close()
		return err
	}
	return play(ctx, s, cfg, f.bot, logger)
}

func joinGame(ctx context.Context, cfg config.Config, logger *slog.Logger, target string, f playFlags) error {
	banner()
	transport := cfg.Transport
	var addr string
	if code, err := strconv.Atoi(target); err == nil && len(target) == 3 && discovery.ValidCode(code) {
		scan := f.scanHost
		if isNumericHost(scan) {
			ip, err := guessIpAddress(localIP(), scan)
			if err != nil {
				return err
			}
			scan = ip.String()
		}
		spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Looking for room %d on %s ...", code, scan))
		room, err := discovery.Find(ctx, code, append(discoveryOptions(cfg, logger), discovery.WithScanHost(scan))...)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success(fmt.Sprintf("Found %s's room", room.Host))
		addr, transport = room.Address, room.Transport
	} else {
		addr, err = resolveAddr(localIP(), target)
		if err != nil {
			return err
		}
	}

	metrics := observability.New()
	if srv, err := serveMetrics(cfg.Metrics.Listen, metrics); err != nil {
		return err
	} else if srv != nil {
		defer srv.Close()
	}

	spinner, _ := pterm.DefaultSpinner.Start("Connecting to " + addr + " ...")
	ch, err := connect(ctx, transport, addr, cfg, logger)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("Connected to " + addr)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		_ = ch.Close()
		return err
	}
	defer closeStore()
	s, err := newSession(ctx, ch, cribbage.Guest, cfg, logger, metrics, store, f, addr)
	if err != nil {
		_ = ch.Close()
		return err
	}
	return play(ctx, s, cfg, f.bot, logger)
}

func connect(ctx context.Context, transport, addr string, cfg config.Config, logger *slog.Logger) (protocol.Channel, error) {
	opts := networkOptions(cfg, logger)
	if transport == "http" {
		l, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
		}
		peer := network.NewPeer(l, addr, opts...)
		peer.Advertise(advertisedAddr(l))
		if err := peer.Connect(ctx); err != nil {
			_ = peer.Close()
			return nil, err
		}
		return peer, nil
	}
	c, err := network.DialWebSocket(ctx, "ws://"+addr+"/ws", opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newSession(ctx context.Context, ch protocol.Channel, seat cribbage.Seat, cfg config.Config, logger *slog.Logger,
	metrics *observability.Metrics, store persistence.Store, f playFlags, peer string) (*session.Session, error) {
	rules, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithMetrics(metrics),
		session.WithName(cfg.Player),
		session.WithGameOptions(rules),
		session.WithMugginsTimeout(cfg.Game.MugginsTimeout),
		session.WithFirstDealer(firstDealer(cfg.Game.FirstDealer)),
		session.WithPeerAddress(peer),
	}
	if f.seed != "" {
		opts = append(opts, session.WithSeed(deck.Seed(f.seed)))
	}
	if store != nil {
		opts = append(opts, session.WithStore(store))
	}
	if !f.resume {
		return session.New(ch, seat, opts...), nil
	}
	if store == nil {
		return nil, errors.New("--resume needs a snapshot backend")
	}
	snap, err := latestFor(ctx, store, seat)
	if err != nil {
		return nil, fmt.Errorf("nothing to resume: %w", err)
	}
	pterm.Info.Printfln("Resuming the game against %s, round %d, saved %s ago",
		snap.Opponent, snap.Game.Round.Number, time.Since(snap.SavedAt).Round(time.Second))
	return session.Resume(ch, snap, opts...)
}

// latestFor returns the most recent fresh snapshot played from seat.
func latestFor(ctx context.Context, store persistence.Store, seat cribbage.Seat) (*persistence.Snapshot, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	var latest *persistence.Snapshot
	for _, id := range ids {
		snap, err := store.Load(ctx, id)
		if err != nil || snap.LocalSeat != seat {
			continue
		}
		if latest == nil || snap.SavedAt.After(latest.SavedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, persistence.ErrSnapshotNotFound
	}
	return latest, nil
}
