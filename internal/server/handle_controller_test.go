package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/animaparty/internal/config"
)

func TestControllerPressDrivesRound(t *testing.T) {
	app := newTestApp(t, config.SelectionRandom)
	resp := app.create(t, CreateSessionRequest{Players: []string{"a", "b"}})

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + resp.ID + "?player=0"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var hello ControllerHello
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "hello" || hello.PlayerID != 0 {
		t.Fatalf("hello = %+v", hello)
	}

	if err := wsjson.Write(ctx, conn, ControllerMessage{Type: "press"}); err != nil {
		t.Fatalf("write press: %v", err)
	}

	for {
		var ev Event
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding %s: %v", data, err)
		}
		if ev.Type != EventRoundResults {
			continue
		}
		if ev.Winner == nil || *ev.Winner != 0 || ev.Result[0] != 10 {
			t.Fatalf("round results = %s", data)
		}
		break
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestControllerRejectsUnknownPlayer(t *testing.T) {
	app := newTestApp(t, config.SelectionRandom)
	resp := app.create(t, CreateSessionRequest{Players: []string{"a", "b"}})

	for _, q := range []string{"", "?player=x", "?player=5"} {
		rec := app.do(t, http.MethodGet, "/ws/sessions/"+resp.ID+q, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q = %d, want 400", q, rec.Code)
		}
	}
}
