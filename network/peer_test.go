package network

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/cribbage/protocol"
)

func newPeerPair(t *testing.T) (host, guest *Peer) {
	t.Helper()
	listeners, addresses := CreateListeners(2)
	host = NewPeer(listeners[0], "", WithRetry(3, 10*time.Millisecond), WithTimeout(time.Second))
	guest = NewPeer(listeners[1], addresses[0], WithRetry(3, 10*time.Millisecond), WithTimeout(time.Second))
	return host, guest
}

func TestPeerExchange(t *testing.T) {
	host, guest := newPeerPair(t)
	defer host.Close()
	fromGuest := collect(host)
	fromHost := collect(guest)

	require.NoError(t, guest.Connect(context.Background()))
	assert.Equal(t, protocol.StatusConnected, guest.Status())

	err := host.Send(context.Background(), protocol.MustNew(protocol.TypeAck, 0, nil))
	assert.ErrorIs(t, err, ErrNotConnected, "host does not know the guest yet")

	hello := protocol.MustNew(protocol.TypeHandshake, 0, protocol.Handshake{Name: "guest", Version: protocol.Version})
	require.NoError(t, guest.Send(context.Background(), hello))
	require.Eventually(t, func() bool { return fromGuest.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, guest.Addr(), host.Remote())

	ack := protocol.MustNew(protocol.TypeAck, 0, protocol.Ack{Name: "host"})
	require.NoError(t, host.Send(context.Background(), ack))
	require.Eventually(t, func() bool { return fromHost.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{ack.ID}, fromHost.ids())

	require.NoError(t, guest.Close())
	require.Eventually(t, func() bool { return fromGuest.hasStatus(protocol.StatusDisconnected) }, time.Second, 5*time.Millisecond)
}

func TestPeerAdvertiseWhileSending(t *testing.T) {
	host, guest := newPeerPair(t)
	defer host.Close()
	defer guest.Close()
	got := collect(host)
	addr := guest.Addr()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			guest.Advertise(addr)
		}
	}()
	for range 5 {
		require.NoError(t, guest.Send(context.Background(), protocol.MustNew(protocol.TypeAck, 0, nil)))
	}
	<-done
	require.Eventually(t, func() bool { return got.count() == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, addr, host.Remote())
	assert.Equal(t, addr, guest.Addr())
}

func TestPeerIgnoresReplayedClock(t *testing.T) {
	host, guest := newPeerPair(t)
	defer host.Close()
	defer guest.Close()
	got := collect(host)

	first := protocol.MustNew(protocol.TypeAck, 0, nil)
	second := protocol.MustNew(protocol.TypeAck, 0, nil)
	for _, step := range []struct {
		m     protocol.Message
		clock uint64
	}{{first, 1}, {first, 1}, {second, 2}, {first, 1}} {
		body, err := protocol.Encode(step.m)
		require.NoError(t, err)
		require.NoError(t, guest.post(context.Background(), "/messages", body, step.clock))
	}
	require.Eventually(t, func() bool { return got.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{first.ID, second.ID}, got.ids())
}

func TestPeerRejectsBadRequests(t *testing.T) {
	host, guest := newPeerPair(t)
	defer host.Close()
	defer guest.Close()

	resp, err := http.Post("http://"+host.Addr()+"/messages", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotAcceptable, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, "http://"+host.Addr()+"/messages", bytes.NewReader([]byte(`{"type":"NOPE"}`)))
	require.NoError(t, err)
	req.Header.Set(headerClock, "1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPeerSendFailsWhenRemoteIsDown(t *testing.T) {
	listeners, addresses := CreateListeners(2)
	require.NoError(t, listeners[1].Close())
	p := NewPeer(listeners[0], addresses[1], WithRetry(2, time.Millisecond), WithTimeout(100*time.Millisecond))
	defer p.Close()
	got := collect(p)

	err := p.Send(context.Background(), protocol.MustNew(protocol.TypeAck, 0, nil))
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.True(t, got.hasStatus(protocol.StatusError))
}
