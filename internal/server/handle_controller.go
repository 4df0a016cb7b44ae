package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/animaparty/internal/session"
)

// ControllerMessage is sent by a player's controller. The only action is
// "press".
type ControllerMessage struct {
	Type string `json:"type"`
}

// ControllerHello is the first frame a controller receives.
type ControllerHello struct {
	Type     string           `json:"type"`
	PlayerID int              `json:"playerId"`
	Session  session.Snapshot `json:"session"`
}

const controllerIdleTimeout = 30 * time.Minute

func handleController(broker *Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner := runnerFrom(r)
		playerID, err := strconv.Atoi(r.URL.Query().Get("player"))
		if err != nil || !runner.HasPlayer(playerID) {
			writeError(w, http.StatusBadRequest, "player query parameter must name a player of this session")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), controllerIdleTimeout)
		defer cancel()

		ch := broker.Subscribe(runner.ID)
		defer broker.Unsubscribe(runner.ID, ch)

		if err := wsjson.Write(ctx, conn, ControllerHello{Type: "hello", PlayerID: playerID, Session: runner.Snapshot()}); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		go func() {
			defer cancel()
			for {
				var msg ControllerMessage
				if err := wsjson.Read(ctx, conn, &msg); err != nil {
					logger.Debug("websocket read ended", "error", err)
					return
				}
				if msg.Type != "press" {
					logger.Debug("ignoring controller message", "type", msg.Type)
					continue
				}
				_ = runner.Press(playerID)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-runner.Done():
				if err := writeQueued(ctx, conn, ch); err != nil {
					return
				}
				conn.Close(websocket.StatusNormalClosure, "session ended")
				return
			}
		}
	}
}

// writeQueued forwards events published before the session finished.
func writeQueued(ctx context.Context, conn *websocket.Conn, ch chan []byte) error {
	for {
		select {
		case data := <-ch:
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
