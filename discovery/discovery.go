// Package discovery lets a guest find the room a host advertises by its
// 3-digit code, scanning a small port range.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	MinRoomCode = 100
	MaxRoomCode = 999
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNoFreePort   = errors.New("no free port in discovery range")
	ErrInvalidCode  = errors.New("room code must be between 100 and 999")
)

// Room is what a host advertises while waiting for a guest.
type Room struct {
	Code      int    `json:"code"`
	Host      string `json:"host"`
	Transport string `json:"transport"`
	// Address is where the game channel listens, e.g. "192.168.1.4:41235".
	Address string `json:"address"`
}

// NewRoomCode draws a 3-digit room code.
func NewRoomCode() int {
	return MinRoomCode + rand.IntN(MaxRoomCode-MinRoomCode+1)
}

func ValidCode(code int) bool {
	return code >= MinRoomCode && code <= MaxRoomCode
}

// Advertiser serves a room on the first free port of the discovery range.
type Advertiser struct {
	room   Room
	port   uint16
	server *http.Server
}

func Advertise(room Room, opts ...Option) (*Advertiser, error) {
	if !ValidCode(room.Code) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCode, room.Code)
	}
	o := newOptions(opts)
	var l net.Listener
	var err error
	var port uint16
	for port = o.startPort; port <= o.endPort && port >= o.startPort; port++ {
		l, err = net.Listen("tcp", net.JoinHostPort(o.listenHost, fmt.Sprint(port)))
		if err == nil {
			break
		}
	}
	if l == nil {
		return nil, fmt.Errorf("%w %d-%d: %v", ErrNoFreePort, o.startPort, o.endPort, err)
	}

	a := &Advertiser{room: room, port: port}
	r := chi.NewRouter()
	r.Get("/room", a.serveRoom)
	a.server = &http.Server{Handler: r}
	go func() {
		if err := a.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("discovery server stopped", "error", err)
		}
	}()
	o.logger.Info("advertising room", "code", room.Code, "port", port)
	return a, nil
}

func (a *Advertiser) serveRoom(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.room); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Port is the port the room is served on.
func (a *Advertiser) Port() uint16 {
	return a.port
}

func (a *Advertiser) Room() Room {
	return a.room
}

func (a *Advertiser) Close() error {
	return a.server.Shutdown(context.Background())
}

// Find scans the discovery range until a room with the given code answers.
func Find(ctx context.Context, code int, opts ...Option) (Room, error) {
	if !ValidCode(code) {
		return Room{}, fmt.Errorf("%w: %d", ErrInvalidCode, code)
	}
	o := newOptions(opts)
	for attempt := uint(0); attempt < o.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Room{}, ctx.Err()
			case <-time.After(o.interval):
			}
		}
		for _, room := range search(ctx, o) {
			if room.Code == code {
				return room, nil
			}
		}
	}
	return Room{}, fmt.Errorf("%w: %d on %s:%d-%d", ErrRoomNotFound, code, o.scanHost, o.startPort, o.endPort)
}

// Scan lists the rooms answering in the discovery range.
func Scan(ctx context.Context, opts ...Option) []Room {
	return search(ctx, newOptions(opts))
}

func search(ctx context.Context, o options) []Room {
	client := &http.Client{Timeout: o.timeout}
	var rooms []Room
	for port := o.startPort; port <= o.endPort && port >= o.startPort; port++ {
		if ctx.Err() != nil {
			break
		}
		room, err := fetch(ctx, client, net.JoinHostPort(o.scanHost, fmt.Sprint(port)))
		if err != nil {
			continue
		}
		o.logger.Debug("found room", "code", room.Code, "port", port)
		rooms = append(rooms, room)
	}
	return rooms
}

func fetch(ctx context.Context, client *http.Client, addr string) (Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/room", nil)
	if err != nil {
		return Room{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Room{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Room{}, fmt.Errorf("%s: %s", addr, resp.Status)
	}
	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return Room{}, err
	}
	return room, nil
}
