package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/internal/bot"
	"github.com/luca-patrignani/cribbage/protocol"
)

// fakeChannel records what the session sends and lets the test deliver
// messages one at a time.
type fakeChannel struct {
	mu       sync.Mutex
	sent     []protocol.Message
	onMsg    func(protocol.Message)
	onStatus func(protocol.Status, error)
}

func (f *fakeChannel) Send(_ context.Context, m protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeChannel) OnMessage(h func(protocol.Message)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMsg = h
	return func() {}
}

func (f *fakeChannel) OnStatus(h func(protocol.Status, error)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onStatus = h
	return func() {}
}

func (f *fakeChannel) Close() error {
	return nil
}

func (f *fakeChannel) deliver(m protocol.Message) {
	f.mu.Lock()
	h := f.onMsg
	f.mu.Unlock()
	h(m)
}

func (f *fakeChannel) sentOf(t protocol.Type) []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Message
	for _, m := range f.sent {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// mirror plays the host's side of the game, so the test can build the
// messages a real host would send.
type mirror struct {
	t    *testing.T
	game *cribbage.Game
}

func newMirror(t *testing.T, seed deck.Seed, dealer cribbage.Seat) (*mirror, protocol.Message) {
	m := &mirror{t: t, game: cribbage.NewGame(cribbage.DefaultOptions())}
	return m, m.apply(cribbage.StartGame(seed, dealer))
}

// apply advances the mirror and returns the message announcing the move.
func (m *mirror) apply(a cribbage.Action) protocol.Message {
	m.t.Helper()
	round := m.game.Round.Number
	out, err := m.game.Apply(a)
	require.NoError(m.t, err)
	msg, err := protocol.FromAction(a, out, round, m.game.Options)
	require.NoError(m.t, err)
	return msg
}

// dealtGuest returns a guest session that received the seed of a game
// dealt by the guest, so the host leads the play.
func dealtGuest(t *testing.T, opts ...Option) (*Session, *fakeChannel, *mirror) {
	t.Helper()
	fc := &fakeChannel{}
	s := New(fc, cribbage.Guest, opts...)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Start())
	m, seed := newMirror(t, "inbound", cribbage.Guest)
	fc.deliver(seed)
	require.NotNil(t, s.Game())
	require.Equal(t, m.game.Digest(), s.Game().Digest())
	return s, fc, m
}

func noErrorsSent(t *testing.T, fc *fakeChannel) {
	t.Helper()
	assert.Never(t, func() bool { return len(fc.sentOf(protocol.TypeError)) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestGuestSendsHandshake(t *testing.T) {
	fc := &fakeChannel{}
	s := New(fc, cribbage.Guest, WithName("bob"))
	defer s.Close()
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())

	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeHandshake)) == 1 }, "handshake sent once")
	var p protocol.Handshake
	require.NoError(t, protocol.DecodePayload(fc.sentOf(protocol.TypeHandshake)[0], &p))
	assert.Equal(t, "bob", p.Name)
	assert.Equal(t, protocol.Version, p.Version)
	assert.False(t, p.Resuming)
}

func TestHostRefusesIncompatibleVersion(t *testing.T) {
	fc := &fakeChannel{}
	rec := &recorder{}
	s := New(fc, cribbage.Host, WithObserver(rec.observe))
	defer s.Close()
	require.NoError(t, s.Start())

	fc.deliver(protocol.MustNew(protocol.TypeHandshake, 0, protocol.Handshake{Name: "old", Version: "9.0"}))
	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeError)) == 1 }, "version error sent")
	var p protocol.Error
	require.NoError(t, protocol.DecodePayload(fc.sentOf(protocol.TypeError)[0], &p))
	assert.Equal(t, protocol.CodeVersion, p.Code)
	assert.Nil(t, s.Game())
	waitFor(t, func() bool { return rec.has(EventConnectionError) }, "connection error event")
}

func TestHostStartsGameOnHandshake(t *testing.T) {
	fc := &fakeChannel{}
	s := New(fc, cribbage.Host, WithSeed("start"), WithFirstDealer(cribbage.Guest))
	defer s.Close()
	require.NoError(t, s.Start())

	fc.deliver(protocol.MustNew(protocol.TypeHandshake, 0, protocol.Handshake{Name: "bob", Version: protocol.Version}))
	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeGameSeed)) == 1 }, "seed sent")
	assert.Len(t, fc.sentOf(protocol.TypeAck), 1)

	var p protocol.GameSeed
	require.NoError(t, protocol.DecodePayload(fc.sentOf(protocol.TypeGameSeed)[0], &p))
	assert.Equal(t, "start", p.Seed)
	assert.False(t, p.HostDealer)
	assert.Equal(t, cribbage.PhaseCribSelection, s.Game().Phase)
	assert.Equal(t, "bob", s.PeerName())
}

func TestEarlyMoveIsHeld(t *testing.T) {
	s, fc, m := dealtGuest(t)
	g := s.Game()

	guestCrib := bot.Discard(g.Hand(cribbage.Guest), true)
	require.NoError(t, s.Discard(guestCrib...))
	m.apply(cribbage.ConfirmCrib(cribbage.Guest, guestCrib...))

	hostCrib := bot.Discard(g.Hand(cribbage.Host), false)
	crib := m.apply(cribbage.ConfirmCrib(cribbage.Host, hostCrib...))
	lead := m.game.LegalPlays(cribbage.Host)[0]
	play := m.apply(cribbage.PlayCard(cribbage.Host, lead))

	// The lead overtakes the host's crib cards.
	before := s.Game().Digest()
	fc.deliver(play)
	assert.Equal(t, before, s.Game().Digest())

	fc.deliver(crib)
	assert.Equal(t, m.game.Digest(), s.Game().Digest())
	assert.Equal(t, cribbage.Guest, s.Game().Round.Turn)
	noErrorsSent(t, fc)
}

func TestMoveOfLaterRoundIsHeld(t *testing.T) {
	s, fc, _ := dealtGuest(t)
	before := s.Game().Digest()

	later := protocol.MustNew(protocol.TypeCallGo, 3, protocol.CallGo{})
	fc.deliver(later)
	assert.Equal(t, before, s.Game().Digest())
	noErrorsSent(t, fc)
}

func TestStaleAndDuplicateMessagesAreIgnored(t *testing.T) {
	s, fc, m := dealtGuest(t)
	g := s.Game()

	hostCrib := bot.Discard(g.Hand(cribbage.Host), false)
	crib := m.apply(cribbage.ConfirmCrib(cribbage.Host, hostCrib...))
	fc.deliver(crib)
	want := s.Game().Digest()
	assert.Equal(t, m.game.Digest(), want)

	fc.deliver(crib)
	stale := protocol.MustNew(protocol.TypeCribCards, 0, protocol.CribCards{Cards: protocol.FromCards(hostCrib)})
	fc.deliver(stale)
	assert.Equal(t, want, s.Game().Digest())
	noErrorsSent(t, fc)
}

func TestTooManyEarlyMessagesRequestState(t *testing.T) {
	s, fc, _ := dealtGuest(t)
	for i := 0; i <= MaxEarlyMessages; i++ {
		fc.deliver(protocol.MustNew(protocol.TypeCallGo, 5, protocol.CallGo{}))
	}
	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeStateSync)) == 1 }, "state requested")
	assert.ErrorIs(t, s.CallGo(), ErrDesync)
}

func TestIllegalMoveIsRejectedAndReconciled(t *testing.T) {
	rec := &recorder{}
	s, fc, m := dealtGuest(t, WithObserver(rec.observe))
	g := s.Game()

	guestCrib := bot.Discard(g.Hand(cribbage.Guest), true)
	require.NoError(t, s.Discard(guestCrib...))
	m.apply(cribbage.ConfirmCrib(cribbage.Guest, guestCrib...))
	hostCrib := bot.Discard(g.Hand(cribbage.Host), false)
	fc.deliver(m.apply(cribbage.ConfirmCrib(cribbage.Host, hostCrib...)))
	require.Equal(t, cribbage.PhasePlay, s.Game().Phase)

	// The host plays a card it does not hold.
	stolen := s.Game().Hand(cribbage.Guest)[0]
	fc.deliver(protocol.MustNew(protocol.TypePlayCard, 1, protocol.PlayCard{Card: protocol.FromCard(stolen), Count: stolen.Value()}))

	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeStateSync)) == 1 }, "state requested")
	errs := fc.sentOf(protocol.TypeError)
	require.Len(t, errs, 1)
	var p protocol.Error
	require.NoError(t, protocol.DecodePayload(errs[0], &p))
	assert.Equal(t, protocol.CodeRejected, p.Code)
	assert.ErrorIs(t, s.PlayCard(stolen), ErrDesync)
	assert.Equal(t, m.game.Digest(), s.Game().Digest())

	// The host answers with its state, which now includes a real lead.
	m.apply(cribbage.PlayCard(cribbage.Host, m.game.LegalPlays(cribbage.Host)[0]))
	snap, err := m.game.Snapshot()
	require.NoError(t, err)
	fc.deliver(protocol.MustNew(protocol.TypeStateSync, 1, protocol.StateSync{Digest: m.game.Digest(), Snapshot: string(snap)}))

	assert.Equal(t, m.game.Digest(), s.Game().Digest())
	waitFor(t, func() bool { return rec.has(EventResynced) }, "resynced event")
	assert.NoError(t, s.PlayCard(s.Game().LegalPlays(cribbage.Guest)[0]))
}

func TestSyncRequestIsAnswered(t *testing.T) {
	s, fc, m := dealtGuest(t)

	fc.deliver(protocol.MustNew(protocol.TypeStateSync, 1, protocol.StateSync{Request: true, Digest: m.game.Digest()}))
	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeStateSync)) == 1 }, "answer sent")
	var p protocol.StateSync
	require.NoError(t, protocol.DecodePayload(fc.sentOf(protocol.TypeStateSync)[0], &p))
	assert.True(t, p.InSync)
	assert.Empty(t, p.Snapshot)

	fc.deliver(protocol.MustNew(protocol.TypeStateSync, 1, protocol.StateSync{Request: true, Digest: "other"}))
	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeStateSync)) == 2 }, "snapshot sent")
	require.NoError(t, protocol.DecodePayload(fc.sentOf(protocol.TypeStateSync)[1], &p))
	assert.False(t, p.InSync)
	restored, err := cribbage.Restore([]byte(p.Snapshot))
	require.NoError(t, err)
	assert.Equal(t, s.Game().Digest(), restored.Digest())
}

func TestSessionEndedByPeer(t *testing.T) {
	rec := &recorder{}
	s, fc, _ := dealtGuest(t, WithObserver(rec.observe))

	fc.deliver(protocol.MustNew(protocol.TypeError, 1, protocol.Error{Code: protocol.CodeSessionEnded, Reason: "player left"}))
	assert.True(t, s.Closed())
	waitFor(t, func() bool { return rec.has(EventDisconnected) }, "disconnected event")
	assert.ErrorIs(t, s.CallGo(), ErrClosed)
}

func TestFailedSendsCanBeRetried(t *testing.T) {
	fc := &flakyChannel{fakeChannel: fakeChannel{}, fail: true}
	rec := &recorder{}
	s := New(fc, cribbage.Guest, WithObserver(rec.observe))
	defer s.Close()
	require.NoError(t, s.Start())
	waitFor(t, func() bool { return rec.has(EventConnectionError) }, "send failure reported")

	fc.setFail(false)
	assert.Equal(t, 1, s.Resend())
	waitFor(t, func() bool { return len(fc.sentOf(protocol.TypeHandshake)) == 1 }, "handshake resent")
}

type flakyChannel struct {
	fakeChannel
	failMu sync.Mutex
	fail   bool
}

func (f *flakyChannel) setFail(v bool) {
	f.failMu.Lock()
	defer f.failMu.Unlock()
	f.fail = v
}

func (f *flakyChannel) Send(ctx context.Context, m protocol.Message) error {
	f.failMu.Lock()
	fail := f.fail
	f.failMu.Unlock()
	if fail {
		return context.DeadlineExceeded
	}
	return f.fakeChannel.Send(ctx, m)
}
