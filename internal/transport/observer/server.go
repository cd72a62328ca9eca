package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"hillbillies.sim/internal/observerproto"
	"hillbillies.sim/internal/protocol"
	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world"
)

// Source is the world as the observer server sees it: static parameters for
// bootstrap plus the loop's session channels.
type Source interface {
	Config() world.Config
	Bounds() geom.Bounds
	Tick() uint64
	TerrainPalette() []string
	ObserverJoin() chan<- world.ObserverJoinRequest
	ObserverSubscribe() chan<- world.ObserverSubscribeRequest
	ObserverLeave() chan<- string
}

type Server struct {
	world Source
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	// SUBSCRIBE updates per connection.
	subscribeRate  rate.Limit
	subscribeBurst int
}

func NewServer(w Source, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subscribeRate:  rate.Every(200 * time.Millisecond),
		subscribeBurst: 4,
	}
}

// Handler mounts the bootstrap and websocket endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/v1/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/admin/v1/observer/ws", s.WSHandler())
	return mux
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		b := s.world.Bounds()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.Tick(),
			WorldParams: observerproto.WorldParams{
				TickRateHz:    cfg.TickRateHz,
				Dt:            cfg.Dt,
				Dims:          [3]int{b.NX, b.NY, b.NZ},
				Seed:          cfg.Seed,
				CollapseDelay: cfg.CollapseDelay,
			},
			TerrainPalette: s.world.TerrainPalette(),
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, err := decodeSubscribe(msg)
		if err != nil {
			s.reject(conn, err.Error())
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		tickOut := make(chan []byte, 8)
		dataOut := make(chan []byte, 2)

		joinReq := world.ObserverJoinRequest{
			SessionID:      sid,
			TickOut:        tickOut,
			DataOut:        dataOut,
			IncludeTerrain: sub.IncludeTerrain,
			FocusUnitID:    sub.FocusUnitID,
		}
		select {
		case s.world.ObserverJoin() <- joinReq:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		if s.log != nil {
			s.log.Printf("observer %s joined from %s (terrain=%v)", sid, r.RemoteAddr, sub.IncludeTerrain)
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
				// World loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. Terrain goes out before the tick that follows it.
		writeErr := make(chan error, 1)
		go func() {
			write := func(b []byte) error {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				return conn.WriteMessage(websocket.TextMessage, b)
			}
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-dataOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
				case b, ok := <-tickOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow rate-limited SUBSCRIBE updates.
		limiter := rate.NewLimiter(s.subscribeRate, s.subscribeBurst)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sub, err := decodeSubscribe(msg)
			if err != nil {
				continue
			}
			if !limiter.Allow() {
				// Drop updates over the limit; the client may resend.
				continue
			}
			req := world.ObserverSubscribeRequest{
				SessionID:      sid,
				IncludeTerrain: sub.IncludeTerrain,
				FocusUnitID:    sub.FocusUnitID,
			}
			select {
			case s.world.ObserverSubscribe() <- req:
			default:
				// Drop updates under load; the client may resend.
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) reject(conn *websocket.Conn, reason string) {
	if b, err := json.Marshal(protocol.NewError(observerproto.Version, protocol.ErrBadRequest, reason)); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func decodeSubscribe(msg []byte) (observerproto.SubscribeMsg, error) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return observerproto.SubscribeMsg{}, fmt.Errorf("bad subscribe")
	}
	if base.Type != protocol.TypeSubscribe || base.ProtocolVersion != observerproto.Version {
		return observerproto.SubscribeMsg{}, fmt.Errorf("expected SUBSCRIBE")
	}
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return observerproto.SubscribeMsg{}, fmt.Errorf("bad subscribe")
	}
	normalizeSubscribe(&sub)
	return sub, nil
}

func normalizeSubscribe(sub *observerproto.SubscribeMsg) {
	sub.FocusUnitID = strings.TrimSpace(sub.FocusUnitID)
	if len(sub.FocusUnitID) > 64 {
		sub.FocusUnitID = sub.FocusUnitID[:64]
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
