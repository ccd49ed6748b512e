package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/cribbage/config"
	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/internal/bot"
	"github.com/luca-patrignani/cribbage/session"
)

// terminal plays the local seat of a session, asking the user for every
// move or letting the bot choose.
type terminal struct {
	s       *session.Session
	seat    cribbage.Seat
	names   players
	bot     bool
	logger  *slog.Logger
	resends int
	retries int
	backoff time.Duration
}

// play runs the session until the game ends, the peer leaves or ctx is
// cancelled.
func play(ctx context.Context, s *session.Session, cfg config.Config, useBot bool, logger *slog.Logger) error {
	t := &terminal{
		s:       s,
		seat:    s.Seat(),
		bot:     useBot,
		logger:  logger,
		retries: cfg.Retry.Attempts,
		backoff: cfg.Retry.Backoff,
	}
	t.names[t.seat] = cfg.Player
	t.names[t.seat.Other()] = s.PeerName()

	events := make(chan session.Event, 256)
	done := make(chan struct{})
	unsubscribe := s.OnEvent(func(e session.Event) {
		select {
		case events <- e:
		case <-done:
		}
	})
	defer s.Close()
	defer unsubscribe()
	defer close(done)
	if err := s.Start(); err != nil {
		return err
	}
	pterm.Info.Printfln("Playing as %s (%s)", pterm.LightCyan(cfg.Player), t.seat)
	if err := t.act(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			pterm.Warning.Println("Leaving the game")
			return nil
		case e := <-events:
			done, err := t.handle(e)
			if done || err != nil {
				return err
			}
		}
	}
}

func (t *terminal) opponent() string {
	return pterm.LightCyan(t.names.of(t.seat.Other()))
}

func (t *terminal) handle(e session.Event) (done bool, err error) {
	t.logger.Debug("session event", "event", e.String())
	switch e.Kind {
	case session.EventPeerJoined:
		t.names[t.seat.Other()] = e.Text
		pterm.Success.Printfln("%s joined the game", t.opponent())
	case session.EventRemoteAction:
		pterm.Info.Println(eventLine(e, t.names))
	case session.EventStateChanged:
		t.resends = 0
		return false, t.act()
	case session.EventResynced:
		pterm.Warning.Printfln("Game state reconciled with %s", t.opponent())
		return false, t.act()
	case session.EventDesync:
		pterm.Warning.Printfln("Out of sync with %s: %v", t.opponent(), e.Err)
	case session.EventPeerError:
		pterm.Warning.Printfln("%s reported: %s", t.opponent(), e.Text)
	case session.EventConnectionError:
		pterm.Error.Println(e.Err)
		return false, t.retry()
	case session.EventGameOver:
		if g := t.s.Game(); g != nil {
			printState(g, t.seat, t.names, winnerPanel(g, t.names))
		}
		return true, nil
	case session.EventRoundAbandoned:
		pterm.Error.Println(e.Text)
		return true, e.Err
	case session.EventDisconnected:
		pterm.Warning.Printfln("The connection with %s was closed", t.opponent())
		if g := t.s.Game(); g != nil && g.Phase != cribbage.PhaseGameOver {
			pterm.Info.Println("The game was saved, continue it later with --resume")
		}
		return true, nil
	}
	return false, nil
}

// retry sends again what could not be delivered, up to the configured
// number of attempts.
func (t *terminal) retry() error {
	if t.resends >= t.retries {
		return errors.New("connection lost")
	}
	t.resends++
	time.Sleep(t.backoff)
	n := t.s.Resend()
	t.logger.Info("resending messages", "count", n, "attempt", t.resends)
	return nil
}

// act makes local moves until the opponent has to move.
func (t *terminal) act() error {
	for {
		g := t.s.Game()
		if g == nil {
			return nil
		}
		a, ok := bot.Move(g, t.seat)
		if !ok {
			return nil
		}
		if !t.bot {
			var err error
			if a, err = t.ask(g, a); err != nil {
				return err
			}
		}
		err := t.s.Do(a)
		switch {
		case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrDesync):
			return nil
		case err != nil && t.bot:
			return err
		case err != nil:
			pterm.Error.Println(err)
			if a.Kind == cribbage.ActionCallGo || a.Kind == cribbage.ActionAdvanceRound {
				return nil
			}
			continue
		}
		if t.bot {
			pterm.Info.Println(describeAction(a, nil, t.names))
		}
	}
}

// ask prompts for the move of the kind suggested.
func (t *terminal) ask(g *cribbage.Game, suggested cribbage.Action) (cribbage.Action, error) {
	if suggested.Kind != cribbage.ActionAdvanceRound {
		printState(g, t.seat, t.names)
	}
	switch suggested.Kind {
	case cribbage.ActionConfirmCrib:
		return t.askCrib(g)
	case cribbage.ActionPlayCard:
		return t.askPlay(g)
	case cribbage.ActionCallGo:
		pterm.Info.Printfln("No card keeps the count within %d: Go", cribbage.MaxCount)
	case cribbage.ActionDeclareScore:
		return t.askDeclare(g)
	case cribbage.ActionClaimMuggins:
		return t.askMuggins(g)
	case cribbage.ActionAdvanceRound:
		printState(g, t.seat, t.names, countPanel(g, t.names))
		_, _ = pterm.DefaultInteractiveConfirm.WithDefaultText("Deal the next round?").WithDefaultValue(true).Show()
	}
	return suggested, nil
}

func (t *terminal) askCrib(g *cribbage.Game) (cribbage.Action, error) {
	hand := g.Hand(t.seat)
	options := make([]string, len(hand))
	for i, c := range hand {
		options[i] = c.String()
	}
	whose := "your"
	if g.Dealer != t.seat {
		whose = t.names.of(g.Dealer) + "'s"
	}
	for {
		selected, err := pterm.DefaultInteractiveMultiselect.
			WithDefaultText(fmt.Sprintf("Choose two cards for %s crib", whose)).
			WithOptions(options).
			Show()
		if err != nil {
			return cribbage.Action{}, err
		}
		cards, err := parseCards(selected)
		if err == nil {
			err = t.s.SelectCribCards(cards...)
		}
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		confirm, _ := pterm.DefaultInteractiveConfirm.
			WithDefaultText(fmt.Sprintf("Give %s to the crib?", cardsText(cards))).
			WithDefaultValue(true).
			Show()
		if confirm {
			return cribbage.ConfirmCrib(t.seat, cards...), nil
		}
	}
}

func (t *terminal) askPlay(g *cribbage.Game) (cribbage.Action, error) {
	legal := g.LegalPlays(t.seat)
	options := make([]string, len(legal))
	for i, c := range legal {
		options[i] = c.String()
	}
	selected, err := pterm.DefaultInteractiveSelect.
		WithDefaultText(fmt.Sprintf("Count is %d, play a card", g.Round.Count)).
		WithOptions(options).
		Show()
	if err != nil {
		return cribbage.Action{}, err
	}
	c, err := deck.ParseCard(selected)
	if err != nil {
		return cribbage.Action{}, err
	}
	return cribbage.PlayCard(t.seat, c), nil
}

func (t *terminal) askDeclare(g *cribbage.Game) (cribbage.Action, error) {
	step := g.Round.Counting.Step
	pterm.Info.Printfln("Count your %s: %s + %s", step, cardsText(g.StepCards(step)), cardText(g.Round.Starter))
	n, err := askNumber("Points")
	if err != nil {
		return cribbage.Action{}, err
	}
	return cribbage.DeclareScore(t.seat, n), nil
}

func (t *terminal) askMuggins(g *cribbage.Game) (cribbage.Action, error) {
	rec, _ := g.PendingClaim()
	pterm.Info.Printfln("%s declared %d for %s + %s", t.opponent(), rec.Declared, cardsText(rec.Cards), cardText(g.Round.Starter))
	n, err := askNumber("Points they missed, 0 accepts")
	if err != nil {
		return cribbage.Action{}, err
	}
	return cribbage.ClaimMuggins(t.seat, n), nil
}

func askNumber(prompt string) (int, error) {
	for {
		text, err := pterm.DefaultInteractiveTextInput.WithDefaultText(prompt).Show()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err == nil && n >= 0 {
			return n, nil
		}
		pterm.Error.Printfln("%q is not a number of points", text)
	}
}

func parseCards(names []string) ([]deck.Card, error) {
	cards := make([]deck.Card, 0, len(names))
	for _, name := range names {
		c, err := deck.ParseCard(name)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
