package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hillbillies.sim/internal/observerproto"
	"hillbillies.sim/internal/protocol"
	"hillbillies.sim/internal/sim/world"
)

func testWorld(t *testing.T) *world.World {
	t.Helper()
	ids := make([][][]int, 3)
	for x := range ids {
		ids[x] = make([][]int, 3)
		for y := range ids[x] {
			ids[x][y] = make([]int, 3)
			ids[x][y][0] = 1
		}
	}
	w, err := world.New(world.Config{ID: "test", TickRateHz: 50, Seed: 7}, ids)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"::1":            true,
		"10.0.0.2:80":    false,
		"example.com:80": false,
		"":               false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", addr, got, want)
		}
	}
}

func TestDecodeSubscribe(t *testing.T) {
	long := strings.Repeat("u", 80)
	sub, err := decodeSubscribe([]byte(`{"type":"SUBSCRIBE","protocol_version":"0.1","include_terrain":true,"focus_unit_id":"  ` + long + ` "}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sub.IncludeTerrain || len(sub.FocusUnitID) != 64 {
		t.Fatalf("unexpected subscribe: %+v", sub)
	}

	for _, raw := range []string{
		`not json`,
		`{"type":"TICK","protocol_version":"0.1"}`,
		`{"type":"SUBSCRIBE","protocol_version":"9.9"}`,
	} {
		if _, err := decodeSubscribe([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestBootstrap(t *testing.T) {
	w := testWorld(t)
	srv := httptest.NewServer(NewServer(w, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/v1/observer/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var got observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.WorldID != "test" || got.WorldParams.Dims != [3]int{3, 3, 3} || got.WorldParams.Seed != 7 {
		t.Fatalf("unexpected bootstrap: %+v", got)
	}
	if len(got.TerrainPalette) == 0 || got.TerrainPalette[0] != "AIR" {
		t.Fatalf("palette=%v", got.TerrainPalette)
	}

	post, err := http.Post(srv.URL+"/admin/v1/observer/bootstrap", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("post status=%d", post.StatusCode)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/v1/observer/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestWSRejectsBadHandshake(t *testing.T) {
	w := testWorld(t)
	srv := httptest.NewServer(NewServer(w, nil).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"HELLO"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e protocol.ErrorMsg
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Type != protocol.TypeError || e.Code != protocol.ErrBadRequest {
		t.Fatalf("unexpected error msg: %+v", e)
	}
}

func TestWSStreamsTerrainAndTicks(t *testing.T) {
	w := testWorld(t)
	if _, err := w.SpawnUnit("Alice", false); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, nil).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()
	sub := observerproto.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: observerproto.Version, IncludeTerrain: true}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write: %v", err)
	}

	var sawTerrain, sawTick bool
	deadline := time.Now().Add(5 * time.Second)
	for !(sawTerrain && sawTick) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v (terrain=%v tick=%v)", err, sawTerrain, sawTick)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		switch base.Type {
		case protocol.TypeTerrain:
			var tm observerproto.TerrainMsg
			if err := json.Unmarshal(msg, &tm); err != nil {
				t.Fatalf("terrain: %v", err)
			}
			if tm.Dims != [3]int{3, 3, 3} || tm.Encoding != observerproto.TerrainEncoding || tm.Data == "" {
				t.Fatalf("unexpected terrain: %+v", tm)
			}
			sawTerrain = true
		case protocol.TypeTick:
			var tk observerproto.TickMsg
			if err := json.Unmarshal(msg, &tk); err != nil {
				t.Fatalf("tick: %v", err)
			}
			if len(tk.Units) != 1 || tk.Units[0].Name != "Alice" {
				t.Fatalf("unexpected units: %+v", tk.Units)
			}
			sawTick = true
		}
	}
}
