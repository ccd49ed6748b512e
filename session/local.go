package session

import (
	"fmt"
	"time"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/ledger"
	"github.com/luca-patrignani/cribbage/protocol"
)

// ready checks that local moves are accepted. Called with the lock held.
func (s *Session) ready() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.game == nil:
		return ErrNotStarted
	case s.awaitingSync:
		return ErrDesync
	}
	return nil
}

// SelectCribCards chooses the two cards to give to the crib. The choice can
// change until ConfirmCrib.
func (s *Session) SelectCribCards(cards ...deck.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	r := &s.game.Round
	switch {
	case s.game.Phase != cribbage.PhaseCribSelection:
		return fmt.Errorf("%w: %s", cribbage.ErrWrongPhase, s.game.Phase)
	case r.CribDone[s.seat]:
		return cribbage.ErrAlreadyConfirmed
	case len(cards) != cribbage.CribDiscard || cards[0] == cards[1]:
		return cribbage.ErrInvalidCribSelection
	}
	for _, c := range cards {
		if !deck.Contains(r.Hands[s.seat], c) {
			return fmt.Errorf("%w: %s", cribbage.ErrCardNotInHand, c)
		}
	}
	s.selected = append([]deck.Card(nil), cards...)
	return nil
}

// Selected returns the cards chosen for the crib and not yet confirmed.
func (s *Session) Selected() []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]deck.Card(nil), s.selected...)
}

// ConfirmCrib gives the selected cards to the crib. It cannot be undone.
func (s *Session) ConfirmCrib() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	if len(s.selected) != cribbage.CribDiscard {
		return cribbage.ErrInvalidCribSelection
	}
	if err := s.applyLocal(cribbage.ConfirmCrib(s.seat, s.selected...)); err != nil {
		return err
	}
	s.selected = nil
	return nil
}

// Discard selects and confirms in one step.
func (s *Session) Discard(cards ...deck.Card) error {
	if err := s.SelectCribCards(cards...); err != nil {
		return err
	}
	return s.ConfirmCrib()
}

func (s *Session) PlayCard(c deck.Card) error {
	return s.local(cribbage.PlayCard(s.seat, c))
}

func (s *Session) CallGo() error {
	return s.local(cribbage.CallGo(s.seat))
}

// DeclareScore announces the points of the hand or crib being counted.
func (s *Session) DeclareScore(points int) error {
	return s.local(cribbage.DeclareScore(s.seat, points))
}

// ClaimMuggins answers the opponent's declaration. Zero accepts it.
func (s *Session) ClaimMuggins(points int) error {
	return s.local(cribbage.ClaimMuggins(s.seat, points))
}

// AdvanceRound starts the next round. If the peer did it first this is a
// no-op.
func (s *Session) AdvanceRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.applyLocal(cribbage.AdvanceRound(s.seat, s.game.Round.Number+1))
}

// Do applies an action built elsewhere, e.g. by a bot. It must be a move
// of the local seat.
func (s *Session) Do(a cribbage.Action) error {
	if a.Seat != s.seat {
		return fmt.Errorf("%w: action for %s on %s's session", cribbage.ErrNotYourTurn, a.Seat, s.seat)
	}
	if a.Kind == cribbage.ActionStartGame {
		return fmt.Errorf("%w: the game is started by the handshake", cribbage.ErrUnknownAction)
	}
	return s.local(a)
}

func (s *Session) local(a cribbage.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.applyLocal(a)
}

// applyLocal runs a local move through the state machine and announces it.
// Called with the lock held.
func (s *Session) applyLocal(a cribbage.Action) error {
	round := s.game.Round.Number
	out, err := s.game.Apply(a)
	if err != nil {
		s.opts.metrics.Rejected("local")
		s.opts.logger.Debug("local move rejected", "action", a.String(), "error", err)
		return err
	}
	if out.NoOp {
		return nil
	}
	m, err := protocol.FromAction(a, out, round, s.game.Options)
	if err != nil {
		return err
	}
	s.outbox.push(m)
	s.opts.logger.Debug("applied local move", "action", a.String(), "points", out.Points())
	s.afterTransition(a, out, m.ID, ledger.OriginLocal)
	if out.To == cribbage.PhaseGameOver && out.From != cribbage.PhaseGameOver {
		if over, err := protocol.GameOverFor(s.game); err == nil {
			s.outbox.push(over)
		}
	}
	return nil
}

// afterTransition records and announces an applied move. Called with the
// lock held.
func (s *Session) afterTransition(a cribbage.Action, out cribbage.Outcome, msgID string, origin ledger.Origin) {
	if s.chain != nil {
		if err := s.chain.Append(s.game.Round.Number, origin, &a, msgID, s.game.Digest(), out.Awards); err != nil {
			s.opts.logger.Error("cannot record transition", "error", err)
		}
	}
	s.opts.metrics.Transition(out.From.String(), out.To.String())
	for _, aw := range out.Awards {
		s.opts.metrics.Points(aw.Seat.String(), string(aw.Reason), aw.Points)
	}
	if n := s.game.Round.Number; n != s.syncRound {
		s.syncRound = n
		s.syncAttempts = 0
		s.selected = nil
	}

	if origin == ledger.OriginRemote {
		s.emit(Event{Kind: EventRemoteAction, Action: &a, Outcome: &out})
	}
	s.emit(Event{Kind: EventStateChanged, Action: &a, Outcome: &out})
	if out.To == cribbage.PhaseGameOver && out.From != cribbage.PhaseGameOver {
		s.gameOver()
	}
	s.armMugginsTimer()
	s.save()
	s.drainEarly()
}

func (s *Session) gameOver() {
	result := "lost"
	if s.game.Winner != nil && *s.game.Winner == s.seat {
		result = "won"
	}
	s.opts.metrics.GameFinished(result)
	s.opts.logger.Info("game over", "result", result,
		"host", s.game.Scores[cribbage.Host], "guest", s.game.Scores[cribbage.Guest])
	s.emit(Event{Kind: EventGameOver, Text: result})
}

// armMugginsTimer accepts the opponent's declaration on our behalf when we
// do not answer in time. Called with the lock held.
func (s *Session) armMugginsTimer() {
	rec, ok := s.game.PendingClaim()
	if !ok || rec.Owner == s.seat || s.opts.mugginsTimeout <= 0 {
		s.stopMugginsTimer()
		return
	}
	if s.mugginsTimer != nil {
		return
	}
	s.mugginsGen++
	gen, round, step := s.mugginsGen, s.game.Round.Number, rec.Step
	s.mugginsTimer = time.AfterFunc(s.opts.mugginsTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.mugginsGen || s.ready() != nil {
			return
		}
		s.mugginsTimer = nil
		rec, ok := s.game.PendingClaim()
		if !ok || s.game.Round.Number != round || rec.Step != step {
			return
		}
		s.opts.logger.Info("muggins timeout, accepting declared score", "step", step.String(), "declared", rec.Declared)
		if err := s.applyLocal(cribbage.ClaimMuggins(s.seat, 0)); err != nil {
			s.opts.logger.Warn("cannot accept declared score", "error", err)
		}
	})
}

func (s *Session) stopMugginsTimer() {
	if s.mugginsTimer != nil {
		s.mugginsTimer.Stop()
		s.mugginsTimer = nil
	}
	s.mugginsGen++
}
