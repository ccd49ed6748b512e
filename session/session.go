package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/ledger"
	"github.com/luca-patrignani/cribbage/persistence"
	"github.com/luca-patrignani/cribbage/protocol"
)

var (
	ErrClosed     = errors.New("session closed")
	ErrNotStarted = errors.New("game not started")
	// ErrDesync is returned for local moves while the session waits for
	// the peer's state.
	ErrDesync              = errors.New("state out of sync with peer")
	ErrUnrecoverableDesync = errors.New("state could not be reconciled with peer")
)

// AbandonedText is shown to the user when a round cannot be reconciled.
const AbandonedText = "Sorry, the two game states could not be reconciled. The round has been abandoned."

// Session is one game between the local player and the peer at the other
// end of a channel. Local calls and channel callbacks take the same lock,
// which makes every transition a critical section. Messages are sent and
// observers notified from separate goroutines, outside the lock.
type Session struct {
	opts options
	ch   protocol.Channel
	seat cribbage.Seat
	id   string

	mu       sync.Mutex
	game     *cribbage.Game
	chain    *ledger.Blockchain
	peerName string
	joined   bool
	resumed  bool
	selected []deck.Card
	closed   bool
	started  bool

	seen  map[string]struct{}
	early []protocol.Message

	awaitingSync bool
	syncRound    int
	syncAttempts int

	mugginsTimer *time.Timer
	mugginsGen   int
	draining     bool
	failed       []protocol.Message

	outbox    *worker[protocol.Message]
	notifier  *worker[func()]
	observers map[int]func(Event)
	nextObs   int
	unsub     []func()

	closeOnce sync.Once
}

// New creates a session for the given seat. The host starts the game once
// the guest's handshake arrives.
func New(ch protocol.Channel, seat cribbage.Seat, opts ...Option) *Session {
	s := &Session{
		opts:      newOptions(opts),
		ch:        ch,
		seat:      seat,
		id:        uuid.NewString(),
		seen:      make(map[string]struct{}),
		observers: make(map[int]func(Event)),
	}
	for _, f := range s.opts.observers {
		s.nextObs++
		s.observers[s.nextObs] = f
	}
	s.opts.logger = s.opts.logger.With("seat", seat.String())
	s.outbox = newWorker(s.send)
	s.notifier = newWorker(func(f func()) { f() })
	s.unsub = append(s.unsub,
		ch.OnMessage(s.handleMessage),
		ch.OnStatus(s.handleStatus),
	)
	return s
}

// Resume rebuilds a session from a saved snapshot. The state is reconciled
// with the peer when Start is called.
func Resume(ch protocol.Channel, snap *persistence.Snapshot, opts ...Option) (*Session, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("cannot resume: %w", err)
	}
	opts = append([]Option{WithPeerAddress(snap.Peer), WithName(snap.Player)}, opts...)
	s := New(ch, snap.LocalSeat, opts...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = snap.SessionID
	s.game = snap.Game.Clone()
	s.peerName = snap.Opponent
	s.resumed = true
	s.chain = ledger.NewBlockchain(s.id, "")
	_ = s.chain.Append(s.game.Round.Number, ledger.OriginSync, nil, "", s.game.Digest(), nil,
		map[string]string{"reason": "resumed"})
	s.syncRound = s.game.Round.Number
	return s, nil
}

// Start greets the peer. The guest sends the handshake, a resumed session
// also asks the peer to compare states.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}
	s.started = true
	if s.seat == cribbage.Guest {
		s.enqueue(protocol.TypeHandshake, 0, protocol.Handshake{
			Name:     s.opts.name,
			Version:  protocol.Version,
			Resuming: s.game != nil,
		})
	}
	// A resumed host compares states once the guest's handshake arrives.
	if s.resumed && s.seat == cribbage.Guest {
		s.sendSyncRequest()
	}
	return nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Seat() cribbage.Seat {
	return s.seat
}

// PeerName returns the name announced by the opponent.
func (s *Session) PeerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerName
}

// Game returns a copy of the current state, nil before the seed is known.
func (s *Session) Game() *cribbage.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return nil
	}
	return s.game.Clone()
}

// Ledger returns the log of applied transitions, nil before the game starts.
func (s *Session) Ledger() *ledger.Blockchain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// OnEvent registers an observer. Observers are called one at a time, in
// order, and may call the session.
func (s *Session) OnEvent(f func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextObs++
	id := s.nextObs
	s.observers[id] = f
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// emit queues an event for the observers. Called with the lock held.
func (s *Session) emit(e Event) {
	if e.Game == nil && s.game != nil {
		e.Game = s.game.Clone()
	}
	obs := make([]func(Event), 0, len(s.observers))
	for id := 1; id <= s.nextObs; id++ {
		if f, ok := s.observers[id]; ok {
			obs = append(obs, f)
		}
	}
	s.notifier.push(func() {
		for _, f := range obs {
			f(e)
		}
	})
}

// enqueue builds a message and hands it to the outbox. Called with the
// lock held.
func (s *Session) enqueue(t protocol.Type, round int, payload any) {
	m, err := protocol.New(t, round, payload)
	if err != nil {
		s.opts.logger.Error("cannot build message", "type", t, "error", err)
		return
	}
	s.outbox.push(m)
}

// send runs on the outbox goroutine.
func (s *Session) send(m protocol.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.sendTimeout)
	defer cancel()
	start := time.Now()
	err := s.ch.Send(ctx, m)
	if err == nil {
		s.opts.metrics.MessageSent(string(m.Type), time.Since(start))
		s.opts.logger.Debug("sent", "message", m.String())
		return
	}
	s.opts.metrics.SendFailed()
	s.opts.logger.Error("send failed", "message", m.String(), "error", err)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.failed = append(s.failed, m)
	s.emit(Event{Kind: EventConnectionError, Err: fmt.Errorf("sending %s: %w", m.Type, err)})
}

// Resend queues again the messages whose delivery failed. The peer drops
// the ones it already received.
func (s *Session) Resend() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	failed := s.failed
	s.failed = nil
	for _, m := range failed {
		s.outbox.push(m)
	}
	return len(failed)
}

func (s *Session) handleStatus(st protocol.Status, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch st {
	case protocol.StatusConnected:
		s.emit(Event{Kind: EventConnected})
	case protocol.StatusError:
		s.emit(Event{Kind: EventConnectionError, Err: err})
	case protocol.StatusDisconnected:
		s.emit(Event{Kind: EventDisconnected, Err: err, Text: "the opponent left"})
		s.markClosed()
		s.mu.Unlock()
		go s.teardown(false)
		return
	}
	s.mu.Unlock()
}

// markClosed stops timers and refuses further moves. Called with the lock held.
func (s *Session) markClosed() {
	s.closed = true
	s.stopMugginsTimer()
}

// Close ends the session and tells the peer.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.enqueue(protocol.TypeError, s.roundNumber(), protocol.Error{
			Code:   protocol.CodeSessionEnded,
			Reason: "player left",
		})
		s.markClosed()
	}
	s.mu.Unlock()
	return s.teardown(true)
}

// teardown flushes the outbox and releases the channel. It runs without
// the lock since closing the channel reports back through handleStatus.
func (s *Session) teardown(closeChannel bool) error {
	var err error
	s.closeOnce.Do(func() {
		s.outbox.shutdown()
		s.outbox.wait()
		for _, u := range s.unsub {
			u()
		}
		if closeChannel {
			err = s.ch.Close()
		}
		s.notifier.shutdown()
	})
	return err
}

func (s *Session) roundNumber() int {
	if s.game == nil {
		return 0
	}
	return s.game.Round.Number
}

// save writes a snapshot on the notifier goroutine. Called with the lock held.
func (s *Session) save() {
	store := s.opts.store
	if store == nil || s.game == nil {
		return
	}
	snap := &persistence.Snapshot{
		SessionID: s.id,
		LocalSeat: s.seat,
		Player:    s.opts.name,
		Opponent:  s.peerName,
		Peer:      s.opts.peerAddr,
		SavedAt:   time.Now(),
		Game:      s.game.Clone(),
	}
	logger := s.opts.logger
	s.notifier.push(func() {
		ctx := context.Background()
		var err error
		if snap.Game.Phase == cribbage.PhaseGameOver {
			err = store.Delete(ctx, snap.SessionID)
		} else {
			err = store.Save(ctx, snap)
		}
		if err != nil {
			logger.Warn("cannot save snapshot", "session", snap.SessionID, "error", err)
		}
	})
}

func compatible(version string) bool {
	major, _, _ := strings.Cut(version, ".")
	want, _, _ := strings.Cut(protocol.Version, ".")
	return major == want
}
