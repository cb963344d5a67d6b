package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"knucklebones/agent"
	"knucklebones/game"
	"knucklebones/searcher"
	"knucklebones/worker"

	"github.com/rs/zerolog/log"
)

// Remote is a seat whose moves are computed by a worker server. An adaptive
// remote seat asks for master moves and reports the opponent's moves so the
// server side profile keeps learning.
type Remote struct {
	url      string
	level    string
	adaptive bool
	seat     game.Player
	session  string
	client   *http.Client
	ids      atomic.Int64
}

func NewRemote(url, level string, adaptive bool, seat game.Player, session string) *Remote {
	return &Remote{
		url:      strings.TrimRight(url, "/") + "/v1/worker",
		level:    level,
		adaptive: adaptive,
		seat:     seat,
		session:  session,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Remote) Name() string {
	return r.level
}

func (r *Remote) FindMove(state game.GameState) (int, error) {
	var req worker.Request
	var err error
	if r.adaptive {
		req, err = r.request(worker.MasterMove, worker.MasterPayload{Session: r.session, Board: game.Encode(state)})
	} else {
		req, err = r.request(worker.ChooseMove, worker.MovePayload{Session: r.session, Board: game.Encode(state), Level: r.level})
	}
	if err != nil {
		return -1, err
	}

	var d searcher.Decision
	if err := r.send(req, &d); err != nil {
		return -1, err
	}
	if !d.OK {
		return -1, agent.ErrNoMove
	}
	return d.Column, nil
}

func (r *Remote) Observe(m game.Move) {
	if !r.adaptive || m.Player == r.seat {
		return
	}
	req, err := r.request(worker.RecordMove, worker.RecordPayload{Session: r.session, Seat: int(r.seat), Move: m})
	if err == nil {
		err = r.send(req, nil)
	}
	if err != nil {
		log.Warn().Err(err).Str("session", r.session).Msg("cannot record move on worker")
	}
}

func (r *Remote) GameOver(game.GameState) {
	seat := int(r.seat)
	req, err := r.request(worker.EndGame, worker.SessionPayload{Session: r.session, Seat: &seat})
	if err == nil {
		err = r.send(req, nil)
	}
	if err != nil {
		log.Warn().Err(err).Str("session", r.session).Msg("cannot end game on worker")
	}
}

// ClearCache drops the seat's table on the worker without ending the game
// in its profile.
func (r *Remote) ClearCache() {
	seat := int(r.seat)
	req, err := r.request(worker.ClearCache, worker.SessionPayload{Session: r.session, Seat: &seat})
	if err == nil {
		err = r.send(req, nil)
	}
	if err != nil {
		log.Warn().Err(err).Str("session", r.session).Msg("cannot clear cache on worker")
	}
}

func (r *Remote) request(typ worker.Type, payload any) (worker.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return worker.Request{}, err
	}
	id := strconv.FormatInt(r.ids.Add(1), 10)
	return worker.Request{ID: id, Type: typ, Payload: data}, nil
}

// send posts req and decodes a successful result into out.
func (r *Remote) send(req worker.Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := r.client.Post(r.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("worker returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var response worker.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err
	}
	switch {
	case response.ID != req.ID:
		return fmt.Errorf("response %q does not match request %q", response.ID, req.ID)
	case response.Type == worker.Failure:
		return errors.New(response.Error)
	case out != nil:
		return json.Unmarshal(response.Result, out)
	}
	return nil
}
