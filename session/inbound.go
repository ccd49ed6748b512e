package session

import (
	"errors"
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/ledger"
	"github.com/luca-patrignani/cribbage/protocol"
)

// handleMessage is the channel callback. Every message id is processed at
// most once.
func (s *Session) handleMessage(m protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.opts.metrics.MessageReceived(string(m.Type))
	if err := m.Validate(); err != nil {
		s.opts.logger.Warn("dropping invalid message", "error", err)
		return
	}
	if _, dup := s.seen[m.ID]; dup {
		s.opts.metrics.Duplicate()
		s.opts.logger.Debug("duplicate message", "message", m.String())
		return
	}
	s.seen[m.ID] = struct{}{}
	s.opts.logger.Debug("received", "message", m.String())

	switch m.Type {
	case protocol.TypeHandshake:
		s.onHandshake(m)
	case protocol.TypeAck:
		s.onAck(m)
	case protocol.TypeStateSync:
		s.onStateSync(m)
	case protocol.TypeError:
		s.onError(m)
	case protocol.TypeGameSeed:
		s.onSeed(m)
	default:
		if s.awaitingSync {
			// Whatever the peer sent before its answer is part of the
			// state it will send.
			s.opts.logger.Debug("dropping message while waiting for peer state", "message", m.String())
			return
		}
		if s.process(m) {
			s.hold(m)
		}
	}
}

func (s *Session) onHandshake(m protocol.Message) {
	if s.seat != cribbage.Host {
		s.reject(m, errors.New("only the host accepts a handshake"))
		return
	}
	var p protocol.Handshake
	if err := protocol.DecodePayload(m, &p); err != nil {
		s.reject(m, err)
		return
	}
	if !compatible(p.Version) {
		s.refuseVersion(p.Version)
		return
	}
	s.peerName = p.Name
	s.enqueue(protocol.TypeAck, 0, protocol.Ack{Name: s.opts.name, Version: protocol.Version})
	if !s.joined {
		s.joined = true
		s.emit(Event{Kind: EventPeerJoined, Text: p.Name})
	}
	switch {
	case s.game != nil:
		s.sendSyncRequest()
	case !p.Resuming:
		s.startGame()
	}
}

func (s *Session) onAck(m protocol.Message) {
	var p protocol.Ack
	if err := protocol.DecodePayload(m, &p); err != nil {
		s.reject(m, err)
		return
	}
	if !compatible(p.Version) {
		s.refuseVersion(p.Version)
		return
	}
	s.peerName = p.Name
	if !s.joined {
		s.joined = true
		s.emit(Event{Kind: EventPeerJoined, Text: p.Name})
	}
}

func (s *Session) refuseVersion(v string) {
	err := fmt.Errorf("peer speaks protocol %q, want %q", v, protocol.Version)
	s.enqueue(protocol.TypeError, 0, protocol.Error{Code: protocol.CodeVersion, Reason: err.Error()})
	s.emit(Event{Kind: EventConnectionError, Err: err})
}

// startGame draws the seed and deals the first round. Called on the host.
func (s *Session) startGame() {
	seed := s.opts.seed
	if seed == "" {
		seed = deck.NewSeed()
	}
	s.game = cribbage.NewGame(s.opts.game)
	s.chain = ledger.NewBlockchain(s.id, s.game.Digest())
	if err := s.applyLocal(cribbage.StartGame(seed, s.opts.dealer)); err != nil {
		s.opts.logger.Error("cannot start game", "error", err)
	}
}

func (s *Session) onSeed(m protocol.Message) {
	if s.seat == cribbage.Host {
		s.reject(m, errors.New("only the host deals the seed"))
		return
	}
	if s.game != nil {
		s.opts.logger.Debug("ignoring seed, game already started", "message", m.String())
		return
	}
	var p protocol.GameSeed
	if err := protocol.DecodePayload(m, &p); err != nil {
		s.reject(m, err)
		return
	}
	opts, err := p.Options()
	if err != nil {
		s.reject(m, err)
		return
	}
	a, err := m.Action(cribbage.Host)
	if err != nil {
		s.reject(m, err)
		return
	}
	g := cribbage.NewGame(opts)
	chain := ledger.NewBlockchain(s.id, g.Digest())
	out, err := g.Apply(a)
	if err != nil {
		s.reject(m, err)
		return
	}
	s.game, s.chain = g, chain
	s.afterTransition(a, out, m.ID, ledger.OriginRemote)
}

func (s *Session) onError(m protocol.Message) {
	var p protocol.Error
	if err := protocol.DecodePayload(m, &p); err != nil {
		s.opts.logger.Warn("malformed error message", "error", err)
		return
	}
	s.opts.logger.Warn("peer reported an error", "code", p.Code, "reason", p.Reason)
	switch p.Code {
	case protocol.CodeUnrecovered:
		s.abandon(false, fmt.Errorf("%w: %s", ErrUnrecoverableDesync, p.Reason))
	case protocol.CodeSessionEnded:
		s.emit(Event{Kind: EventDisconnected, Text: "the opponent left"})
		s.markClosed()
		go s.teardown(true)
	case protocol.CodeVersion:
		s.emit(Event{Kind: EventConnectionError, Err: errors.New(p.Reason)})
	default:
		s.emit(Event{Kind: EventPeerError, Text: p.Reason})
	}
}

// reject tells the peer one of its messages was refused.
func (s *Session) reject(m protocol.Message, err error) {
	s.opts.metrics.Rejected("remote")
	s.opts.logger.Warn("rejected message", "message", m.String(), "error", err)
	s.enqueue(protocol.TypeError, s.roundNumber(), protocol.Error{
		Code:   protocol.CodeRejected,
		Reason: fmt.Sprintf("%s: %v", m.Type, err),
	})
}

// process applies a game move or a game over confirmation and reports
// whether the message arrived too early and must wait.
func (s *Session) process(m protocol.Message) (early bool) {
	if s.game == nil {
		return true
	}
	if m.Type == protocol.TypeGameOver {
		return s.checkGameOver(m)
	}
	if !m.Type.IsGameMove() {
		return false
	}
	cur := s.game.Round.Number
	if m.Type != protocol.TypeNewRound {
		if m.Round < cur {
			s.opts.logger.Debug("stale message", "message", m.String(), "round", cur)
			return false
		}
		if m.Round > cur {
			return true
		}
	}
	return s.applyRemote(m)
}

// applyRemote runs a move of the peer through the same transition as local
// moves. The figures announced by the peer must match the local outcome.
func (s *Session) applyRemote(m protocol.Message) (early bool) {
	a, err := m.Action(s.seat.Other())
	if err != nil {
		s.reject(m, err)
		s.desync(err)
		return false
	}
	next := s.game.Clone()
	out, err := next.Apply(a)
	if err != nil {
		if s.plausiblyEarly(m) {
			return true
		}
		s.reject(m, err)
		s.desync(fmt.Errorf("%s: %w", m, err))
		return false
	}
	if err := protocol.Verify(m, out); err != nil {
		s.reject(m, err)
		s.desync(err)
		return false
	}
	if out.NoOp {
		return false
	}
	s.game = next
	s.opts.logger.Debug("applied remote move", "action", a.String(), "points", out.Points())
	s.afterTransition(a, out, m.ID, ledger.OriginRemote)
	return false
}

// plausiblyEarly tells a move that belongs to a later round or phase from
// one that contradicts the local state.
func (s *Session) plausiblyEarly(m protocol.Message) bool {
	cur := s.game.Round.Number
	switch {
	case m.Round > cur:
		return true
	case m.Round < cur:
		return false
	}
	return movePhase(m.Type) > s.game.Phase
}

func movePhase(t protocol.Type) cribbage.Phase {
	switch t {
	case protocol.TypeCribCards:
		return cribbage.PhaseCribSelection
	case protocol.TypePlayCard, protocol.TypeCallGo:
		return cribbage.PhasePlay
	case protocol.TypeDeclareScore, protocol.TypeMugginsClaim:
		return cribbage.PhaseCounting
	case protocol.TypeNewRound:
		return cribbage.PhaseRoundComplete
	}
	return cribbage.PhaseDeal
}

func (s *Session) checkGameOver(m protocol.Message) (early bool) {
	if s.game.Phase != cribbage.PhaseGameOver {
		if len(s.early) > 0 {
			return true
		}
		s.desync(fmt.Errorf("%w: peer declares the game over", protocol.ErrMismatch))
		return false
	}
	if err := protocol.CheckGameOver(m, s.game); err != nil {
		s.desync(err)
		return false
	}
	s.opts.logger.Info("peer confirmed game over", "winner", s.game.Winner.String())
	return false
}

// hold keeps a message until the local state catches up.
func (s *Session) hold(m protocol.Message) {
	if len(s.early) >= MaxEarlyMessages {
		s.desync(fmt.Errorf("more than %d messages ahead of the local state", MaxEarlyMessages))
		return
	}
	s.early = append(s.early, m)
	s.opts.metrics.Buffered()
	s.opts.logger.Debug("holding early message", "message", m.String(), "held", len(s.early))
}

// drainEarly retries the held messages in arrival order, stopping at the
// first one that is still early.
func (s *Session) drainEarly() {
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()
	for len(s.early) > 0 && s.game != nil && !s.awaitingSync && !s.closed {
		m := s.early[0]
		s.early = s.early[1:]
		if s.process(m) {
			s.early = append([]protocol.Message{m}, s.early...)
			return
		}
	}
}
