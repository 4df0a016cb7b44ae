package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleEvents streams session events over SSE until the client leaves or
// the session ends.
func handleEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner := runnerFrom(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ch := broker.Subscribe(runner.ID)
		defer broker.Unsubscribe(runner.ID, ch)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
				flusher.Flush()
			case <-runner.Done():
				drain(w, ch)
				flusher.Flush()
				return
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

// drain writes events already queued when the session finished.
func drain(w http.ResponseWriter, ch chan []byte) {
	for {
		select {
		case data := <-ch:
			fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
		default:
			return
		}
	}
}
