package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"knucklebones/worker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsIdlePingInterval = 30 * time.Second
	wsSendBuffer       = 16
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// workStream serves the worker protocol over a websocket. Requests are
// dispatched concurrently and answered as they complete, so clients match
// responses by id.
func (s *Server) workStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxBody)

	send := make(chan []byte, wsSendBuffer)
	written := make(chan struct{})
	go func() {
		defer close(written)
		if err := writeWithHeartbeat(conn, send); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
		}
	}()

	var pending sync.WaitGroup
	ctx := r.Context()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req worker.Request
		if err := json.Unmarshal(message, &req); err != nil {
			send <- mustMarshal(worker.Response{Type: worker.Failure, Error: "invalid payload"})
			continue
		}
		pending.Add(1)
		go func() {
			defer pending.Done()
			send <- mustMarshal(s.dispatcher.Dispatch(ctx, req))
		}()
	}

	pending.Wait()
	close(send)
	<-written
	conn.Close()
}

func writeWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				drain(send)
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				drain(send)
				return err
			}
			lastWrite = time.Now()
		}
	}
}

// drain keeps dispatch goroutines from blocking once the connection is gone.
func drain(send <-chan []byte) {
	for range send {
	}
}

func mustMarshal(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
