package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"knucklebones/accel"
	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/searcher"
	"knucklebones/worker"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dice := game.NewSeededDice(1)
	s := New(worker.NewDispatcher(worker.WithDice(dice)), WithAccelerator(accel.NewLocal(searcher.WithDice(dice))))
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func moveRequest(t *testing.T, id string) worker.Request {
	t.Helper()
	s, err := game.New().Roll(4)
	require.NoError(t, err)
	payload, err := json.Marshal(worker.MovePayload{Board: game.Encode(s), Level: "medium"})
	require.NoError(t, err)
	return worker.Request{ID: id, Type: worker.ChooseMove, Payload: payload}
}

func TestHealth(t *testing.T) {
	server := newServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLevels(t *testing.T) {
	server := newServer(t)
	resp, err := http.Get(server.URL + "/v1/levels")
	require.NoError(t, err)
	defer resp.Body.Close()

	var levels config.Levels
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&levels))
	require.Equal(t, config.Default().Names(), levels.Names(), "Should list the levels in strength order")
}

func TestWorker(t *testing.T) {
	server := newServer(t)

	t.Run("dispatches a request", func(t *testing.T) {
		resp := post(t, server.URL+"/v1/worker", moveRequest(t, "abc"))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out worker.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Equal(t, "abc", out.ID)
		require.Equal(t, worker.Success, out.Type)

		var decision searcher.Decision
		require.NoError(t, json.Unmarshal(out.Result, &decision))
		require.True(t, decision.OK)
	})

	t.Run("unknown types are answered", func(t *testing.T) {
		resp := post(t, server.URL+"/v1/worker", worker.Request{ID: "x", Type: "fly"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out worker.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Equal(t, worker.Failure, out.Type)
		require.Equal(t, "x", out.ID)
	})

	t.Run("invalid json is a bad request", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/v1/worker", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAccelMove(t *testing.T) {
	server := newServer(t)
	s, err := game.FromGrids(game.Grid{{1, 1, 1}, {2, 2, 2}}, game.Grid{}, game.Player1, 6)
	require.NoError(t, err)
	hard, _ := config.Default().Get("hard")

	resp := post(t, server.URL+accel.MovePath, accel.NewRequest(s, hard, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out accel.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 2, out.Column)

	bad := accel.NewRequest(s, hard, nil)
	bad.Die = 12
	resp = post(t, server.URL+accel.MovePath, bad)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkerStream(t *testing.T) {
	server := newServer(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/worker/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ids := map[string]bool{"1": true, "2": true, "3": true}
	for id := range ids {
		require.NoError(t, conn.WriteJSON(moveRequest(t, id)))
	}
	require.NoError(t, conn.WriteJSON(worker.Request{ID: "4", Type: "nope"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for i := 0; i < 4; i++ {
		var out worker.Response
		require.NoError(t, conn.ReadJSON(&out))
		if out.ID == "4" {
			require.Equal(t, worker.Failure, out.Type)
			continue
		}
		require.True(t, ids[out.ID], "Should echo a request id")
		require.Equal(t, worker.Success, out.Type)
		delete(ids, out.ID)
	}
	require.Empty(t, ids, "Should answer every request")
}
