package network

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/luca-patrignani/cribbage/protocol"
)

const pingInterval = 15 * time.Second

// WSChannel is a protocol.Channel over a WebSocket connection.
type WSChannel struct {
	*dispatcher
	opts options

	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	writeMu sync.Mutex
	once    sync.Once
}

func newWSChannel(conn *websocket.Conn, o options) *WSChannel {
	ctx, cancel := context.WithCancel(context.Background())
	c := &WSChannel{
		dispatcher: newDispatcher(o.logger, protocol.StatusConnected),
		opts:       o,
		conn:       conn,
		ctx:        ctx,
		cancel:     cancel,
	}
	go c.readLoop()
	go c.pingLoop()
	return c
}

// DialWebSocket connects to a WebSocket endpoint such as
// ws://192.168.1.20:9000/ws, retrying with the configured backoff.
func DialWebSocket(ctx context.Context, url string, opts ...Option) (*WSChannel, error) {
	o := newOptions(opts)
	var conn *websocket.Conn
	err := Retry(ctx, o.attempts, o.backoff, func(ctx context.Context) error {
		dialCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		c, _, err := websocket.Dial(dialCtx, url, nil)
		if err != nil {
			o.logger.Warn("dial failed", "url", url, "error", err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newWSChannel(conn, o), nil
}

// WebSocketHandler upgrades incoming requests and hands each connection to
// accept. The handler returns when the channel is closed.
func WebSocketHandler(accept func(*WSChannel), opts ...Option) http.HandlerFunc {
	o := newOptions(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			o.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		c := newWSChannel(conn, o)
		accept(c)
		<-c.done
	}
}

func (c *WSChannel) readLoop() {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			c.fail(err)
			return
		}
		m, err := protocol.Decode(data)
		if err != nil {
			c.opts.logger.Warn("dropping malformed message", "error", err)
			continue
		}
		if err := c.deliver(c.ctx, m); err != nil {
			return
		}
	}
}

func (c *WSChannel) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, c.opts.timeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil && c.ctx.Err() == nil {
				c.fail(err)
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// fail reports a broken connection. A normal closure from the other side
// is a disconnection, anything else an error.
func (c *WSChannel) fail(err error) {
	if c.closed() {
		return
	}
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		err = nil
	} else {
		c.setStatus(protocol.StatusError, err)
	}
	_ = c.closeWith(websocket.StatusGoingAway, err)
}

func (c *WSChannel) Send(ctx context.Context, m protocol.Message) error {
	if c.closed() {
		return ErrNotConnected
	}
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		if c.closed() || errors.Is(err, context.Canceled) {
			return errors.Join(ErrNotConnected, err)
		}
		c.setStatus(protocol.StatusError, err)
		return err
	}
	return nil
}

func (c *WSChannel) Close() error {
	return c.closeWith(websocket.StatusNormalClosure, nil)
}

func (c *WSChannel) closeWith(code websocket.StatusCode, cause error) error {
	var err error
	c.once.Do(func() {
		c.shutdown(cause)
		err = c.conn.Close(code, "bye")
		c.cancel()
		if cause != nil || websocket.CloseStatus(err) != -1 {
			err = nil
		}
	})
	return err
}
