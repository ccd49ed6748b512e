package session

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/ledger"
	"github.com/luca-patrignani/cribbage/protocol"
)

// desync reacts to a message that contradicts the local state: the peer's
// state is requested, and after too many attempts in one round the round
// is abandoned. Called with the lock held.
func (s *Session) desync(cause error) {
	s.opts.metrics.Desync()
	s.opts.logger.Warn("desync", "error", cause, "attempt", s.syncAttempts+1)
	s.emit(Event{Kind: EventDesync, Err: cause})
	if s.awaitingSync {
		return
	}
	if s.syncAttempts >= s.opts.maxSyncAttempts {
		s.abandon(true, fmt.Errorf("%w after %d attempts: %v", ErrUnrecoverableDesync, s.syncAttempts, cause))
		return
	}
	s.syncAttempts++
	s.sendSyncRequest()
}

func (s *Session) sendSyncRequest() {
	digest := ""
	if s.game != nil {
		digest = s.game.Digest()
	}
	s.awaitingSync = true
	s.enqueue(protocol.TypeStateSync, s.roundNumber(), protocol.StateSync{Request: true, Digest: digest})
}

func (s *Session) onStateSync(m protocol.Message) {
	var p protocol.StateSync
	if err := protocol.DecodePayload(m, &p); err != nil {
		s.reject(m, err)
		return
	}
	if p.Request {
		s.answerSync(p)
		return
	}
	switch {
	case p.InSync:
		if !s.awaitingSync {
			return
		}
		s.awaitingSync = false
		s.opts.metrics.Resync("in_sync")
		s.emit(Event{Kind: EventResynced, Text: "states match"})
		s.drainEarly()
	case p.Snapshot != "":
		if !s.awaitingSync && s.game != nil {
			s.opts.logger.Debug("ignoring unrequested state")
			return
		}
		g, err := cribbage.Restore([]byte(p.Snapshot))
		if err != nil {
			s.awaitingSync = false
			s.abandon(true, fmt.Errorf("%w: %v", ErrUnrecoverableDesync, err))
			return
		}
		s.adopt(g)
	default:
		// The peer has no game: ours is the only state left.
		s.awaitingSync = false
		if s.game != nil {
			s.pushState()
		}
	}
}

// answerSync replies to a request. When both peers asked at the same time
// the host's state wins, so the host stops waiting for an answer.
func (s *Session) answerSync(p protocol.StateSync) {
	if s.awaitingSync && s.seat == cribbage.Host {
		s.awaitingSync = false
		defer s.drainEarly()
	}
	switch {
	case s.game == nil:
		s.enqueue(protocol.TypeStateSync, 0, protocol.StateSync{})
	case p.Digest == s.game.Digest():
		s.enqueue(protocol.TypeStateSync, s.roundNumber(), protocol.StateSync{Digest: p.Digest, InSync: true})
	default:
		s.pushState()
	}
}

func (s *Session) pushState() {
	b, err := s.game.Snapshot()
	if err != nil {
		s.opts.logger.Error("cannot encode state", "error", err)
		return
	}
	s.enqueue(protocol.TypeStateSync, s.roundNumber(), protocol.StateSync{
		Digest:   s.game.Digest(),
		Snapshot: string(b),
	})
}

// adopt replaces the local state with the peer's. Held messages were sent
// before the peer's answer and are already part of it.
func (s *Session) adopt(g *cribbage.Game) {
	from := cribbage.PhaseDeal
	if s.game != nil {
		from = s.game.Phase
	}
	s.game = g
	s.awaitingSync = false
	s.early = nil
	s.selected = nil
	if s.chain == nil {
		s.chain = ledger.NewBlockchain(s.id, "")
	}
	if err := s.chain.Append(g.Round.Number, ledger.OriginSync, nil, "", g.Digest(), nil,
		map[string]string{"reason": "state sync"}); err != nil {
		s.opts.logger.Error("cannot record state sync", "error", err)
	}
	if g.Round.Number != s.syncRound {
		s.syncRound = g.Round.Number
		s.syncAttempts = 0
	}
	s.opts.metrics.Resync("recovered")
	s.opts.logger.Info("adopted peer state", "round", g.Round.Number, "phase", g.Phase.String())
	s.emit(Event{Kind: EventResynced, Text: "adopted the opponent's state"})
	s.emit(Event{Kind: EventStateChanged})
	if g.Phase == cribbage.PhaseGameOver && from != cribbage.PhaseGameOver {
		s.gameOver()
	}
	s.stopMugginsTimer()
	s.armMugginsTimer()
	s.save()
}

// abandon ends the session after an unrecoverable desync. notify tells
// the peer, unless the peer is the one who gave up.
func (s *Session) abandon(notify bool, cause error) {
	s.opts.metrics.Resync("failed")
	s.opts.logger.Error("abandoning round", "error", cause)
	if notify {
		s.enqueue(protocol.TypeError, s.roundNumber(), protocol.Error{
			Code:   protocol.CodeUnrecovered,
			Reason: cause.Error(),
		})
	}
	s.emit(Event{Kind: EventRoundAbandoned, Err: cause, Text: AbandonedText})
	s.markClosed()
	go s.teardown(true)
}
