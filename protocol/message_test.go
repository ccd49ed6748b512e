package protocol

import (
	"testing"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m, err := New(TypePlayCard, 3, PlayCard{Card: WireCard{Suit: "hearts", Rank: "10"}, Count: 25, Points: 2})
	require.NoError(t, err)
	assert.Equal(t, TypePlayCard, m.Type)
	assert.Len(t, m.ID, 36)
	assert.NotZero(t, m.Timestamp)
	assert.Equal(t, 3, m.Round)
	assert.Equal(t, map[string]any{"suit": "hearts", "rank": "10"}, m.Payload["card"])

	other := MustNew(TypePlayCard, 3, nil)
	assert.NotEqual(t, m.ID, other.ID)
	assert.Nil(t, other.Payload)
}

func TestEncodeDecode(t *testing.T) {
	m := MustNew(TypeCribCards, 1, CribCards{Cards: FromCards(deck.MustParse("5h", "Js"))})
	b, err := Encode(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"messageId":`)
	assert.Contains(t, string(b), `"type":"CRIB_CARDS"`)

	back, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, m.ID, back.ID)

	var p CribCards
	require.NoError(t, DecodePayload(back, &p))
	assert.Equal(t, []WireCard{{"hearts", "5"}, {"spades", "J"}}, p.Cards)
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want error
	}{
		"not json":     {`{"type":`, ErrMalformed},
		"unknown type": {`{"type":"SHUFFLE","messageId":"x"}`, ErrUnknownType},
		"missing id":   {`{"type":"ACK"}`, ErrMalformed},
		"bad round":    {`{"type":"ACK","messageId":"x","round":-1}`, ErrMalformed},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodePayloadNumbers(t *testing.T) {
	b := []byte(`{"type":"DECLARE_SCORE","messageId":"x","round":1,"payload":{"points":12}}`)
	m, err := Decode(b)
	require.NoError(t, err)
	var p DeclareScore
	require.NoError(t, DecodePayload(m, &p))
	assert.Equal(t, 12, p.Points)

	m.Payload["points"] = "many"
	assert.ErrorIs(t, DecodePayload(m, &p), ErrMalformed)
}

func TestActionRoundTrip(t *testing.T) {
	opts := cribbage.Options{Counting: cribbage.CountingAutomatic, Muggins: true}
	actions := []cribbage.Action{
		cribbage.StartGame("seed", cribbage.Guest),
		cribbage.ConfirmCrib(cribbage.Guest, deck.MustParse("Ah", "10c")...),
		cribbage.PlayCard(cribbage.Guest, deck.MustParse("Qd")[0]),
		cribbage.CallGo(cribbage.Guest),
		cribbage.DeclareScore(cribbage.Guest, 8),
		cribbage.ClaimMuggins(cribbage.Guest, 2),
		cribbage.AdvanceRound(cribbage.Guest, 4),
	}
	for _, a := range actions {
		t.Run(a.Kind.String(), func(t *testing.T) {
			m, err := FromAction(a, cribbage.Outcome{}, 3, opts)
			require.NoError(t, err)
			assert.True(t, m.Type.IsGameMove())
			b, err := Encode(m)
			require.NoError(t, err)
			back, err := Decode(b)
			require.NoError(t, err)
			got, err := back.Action(cribbage.Guest)
			require.NoError(t, err)
			if a.Kind == cribbage.ActionStartGame {
				got.Seat = a.Seat
			}
			assert.Equal(t, a, got)
		})
	}
}

func TestGameSeedOptions(t *testing.T) {
	opts := cribbage.Options{Counting: cribbage.CountingAutomatic, Muggins: false}
	m, err := FromAction(cribbage.StartGame("s", cribbage.Host), cribbage.Outcome{}, 0, opts)
	require.NoError(t, err)
	var p GameSeed
	require.NoError(t, DecodePayload(m, &p))
	assert.True(t, p.HostDealer)
	got, err := p.Options()
	require.NoError(t, err)
	assert.Equal(t, opts, got)
}

func TestVerify(t *testing.T) {
	out := cribbage.Outcome{Count: 15, Awards: []cribbage.Award{{Seat: cribbage.Host, Points: 2, Reason: cribbage.ReasonPlay}}}
	good := MustNew(TypePlayCard, 1, PlayCard{Card: WireCard{"hearts", "5"}, Count: 15, Points: 2})
	assert.NoError(t, Verify(good, out))

	bad := MustNew(TypePlayCard, 1, PlayCard{Card: WireCard{"hearts", "5"}, Count: 15, Points: 4})
	assert.ErrorIs(t, Verify(bad, out), ErrMismatch)

	goMsg := MustNew(TypeCallGo, 1, CallGo{Points: 1})
	assert.ErrorIs(t, Verify(goMsg, cribbage.Outcome{}), ErrMismatch)
}

func TestActionRejectsBadCards(t *testing.T) {
	m := MustNew(TypePlayCard, 1, PlayCard{Card: WireCard{"stars", "5"}})
	_, err := m.Action(cribbage.Host)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = MustNew(TypeAck, 0, Ack{Name: "x"}).Action(cribbage.Host)
	assert.ErrorIs(t, err, ErrUnknownType)
}
