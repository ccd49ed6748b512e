package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luca-patrignani/cribbage/protocol"
)

const (
	headerClock  = "Clock"
	headerSender = "Sender"
	headerReply  = "Reply-To"
)

// Peer is an HTTP channel. Both sides run a server; the side that knows
// the other's address speaks first and the other learns the address from
// the Reply-To header.
type Peer struct {
	*dispatcher
	opts options

	id      string
	self    atomic.Value
	remote  atomic.Value
	server  *http.Server
	router  chi.Router
	client  *http.Client
	sendMu  sync.Mutex
	clock   uint64
	recvMu  sync.Mutex
	seen    map[string]uint64
	stopped atomic.Bool
}

// NewPeer serves on l and sends to remote. remote may be empty when the
// address of the other side is not known yet.
func NewPeer(l net.Listener, remote string, opts ...Option) *Peer {
	o := newOptions(opts)
	p := &Peer{
		dispatcher: newDispatcher(o.logger, protocol.StatusConnecting),
		opts:       o,
		id:         uuid.NewString(),
		client:     &http.Client{Timeout: o.timeout},
		seen:       make(map[string]uint64),
	}
	p.self.Store(l.Addr().String())
	p.remote.Store(remote)
	r := chi.NewRouter()
	r.Post("/messages", p.handleMessage)
	r.Post("/bye", p.handleBye)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	p.router = r
	p.server = &http.Server{Handler: r}
	go func() {
		err := p.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.setStatus(protocol.StatusError, err)
		}
	}()
	return p
}

// Router exposes the peer's router so other endpoints (metrics, room
// lookup) share its listener.
func (p *Peer) Router() chi.Router {
	return p.router
}

// Addr is the address the peer listens on.
func (p *Peer) Addr() string {
	return p.self.Load().(string)
}

// Remote is the address messages are sent to.
func (p *Peer) Remote() string {
	return p.remote.Load().(string)
}

// Advertise sets the address sent in Reply-To, e.g. the LAN address when
// listening on all interfaces.
func (p *Peer) Advertise(addr string) {
	p.self.Store(addr)
}

// Connect checks that the remote peer answers, with retries.
func (p *Peer) Connect(ctx context.Context) error {
	err := Retry(ctx, p.opts.attempts, p.opts.backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+p.Remote()+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("health check returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		p.setStatus(protocol.StatusError, err)
		return err
	}
	p.setStatus(protocol.StatusConnected, nil)
	return nil
}

// Send posts m to the remote peer. Messages are numbered by a clock so a
// retried post is delivered only once.
func (p *Peer) Send(ctx context.Context, m protocol.Message) error {
	if p.closed() {
		return ErrNotConnected
	}
	if p.Remote() == "" {
		return fmt.Errorf("%w: remote address unknown", ErrNotConnected)
	}
	body, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	p.clock++
	clock := p.clock
	err = Retry(ctx, p.opts.attempts, p.opts.backoff, func(ctx context.Context) error {
		return p.post(ctx, "/messages", body, clock)
	})
	if err != nil {
		p.setStatus(protocol.StatusError, err)
		return err
	}
	p.setStatus(protocol.StatusConnected, nil)
	return nil
}

func (p *Peer) post(ctx context.Context, path string, body []byte, clock uint64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+p.Remote()+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set(headerClock, strconv.FormatUint(clock, 10))
	req.Header.Set(headerSender, p.id)
	req.Header.Set(headerReply, p.Addr())
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("peer answered %d", resp.StatusCode)
	}
	return nil
}

func (p *Peer) handleMessage(rw http.ResponseWriter, req *http.Request) {
	if p.closed() {
		rw.WriteHeader(http.StatusGone)
		return
	}
	clock, err := strconv.ParseUint(req.Header.Get(headerClock), 10, 64)
	if err != nil {
		http.Error(rw, "Clock field is not a number", http.StatusNotAcceptable)
		return
	}
	content, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	m, err := protocol.Decode(content)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	sender := req.Header.Get(headerSender)
	p.recvMu.Lock()
	defer p.recvMu.Unlock()
	if clock <= p.seen[sender] {
		rw.WriteHeader(http.StatusAccepted)
		return
	}
	if reply := req.Header.Get(headerReply); reply != "" && p.Remote() == "" {
		p.remote.Store(reply)
	}
	if err := p.deliver(req.Context(), m); err != nil {
		rw.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	p.seen[sender] = clock
	p.setStatus(protocol.StatusConnected, nil)
	rw.WriteHeader(http.StatusAccepted)
}

func (p *Peer) handleBye(rw http.ResponseWriter, _ *http.Request) {
	rw.WriteHeader(http.StatusAccepted)
	go p.stop()
}

// Close tells the remote peer and stops serving.
func (p *Peer) Close() error {
	if p.Remote() != "" && !p.closed() {
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.timeout)
		_ = p.post(ctx, "/bye", nil, 0)
		cancel()
	}
	return p.stop()
}

func (p *Peer) stop() error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	p.shutdown(nil)
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.timeout)
	defer cancel()
	return p.server.Shutdown(ctx)
}

// CreateListeners opens n listeners on localhost with random ports.
func CreateListeners(n int) ([]net.Listener, []string) {
	listeners := make([]net.Listener, n)
	addresses := make([]string, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(err)
		}
		listeners[i] = l
		addresses[i] = l.Addr().String()
	}
	return listeners, addresses
}
