package accel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	HealthPath = "/healthz"
	MovePath   = "/v1/accel/move"
)

type RemoteOption func(r *Remote)

func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.client = client
		}
	}
}

// WithProbeTimeout bounds the initial health check.
func WithProbeTimeout(timeout time.Duration) RemoteOption {
	return func(r *Remote) {
		if timeout > 0 {
			r.probeTimeout = timeout
		}
	}
}

// Remote talks to an accelerator over HTTP. It reports Initializing until a
// background health probe answers, and turns Unavailable for good after a
// failed probe or a transport error.
type Remote struct {
	baseURL      string
	client       *http.Client
	probeTimeout time.Duration
	status       atomic.Int32
	probed       chan struct{}
}

func NewRemote(ctx context.Context, baseURL string, options ...RemoteOption) *Remote {
	r := &Remote{ // Default values
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 2 * time.Second},
		probeTimeout: time.Second,
		probed:       make(chan struct{}),
	}
	for _, option := range options {
		option(r)
	}
	r.status.Store(int32(Initializing))
	go r.probe(ctx)
	return r
}

func (r *Remote) Status() Capability {
	return Capability(r.status.Load())
}

// Probed is closed once the health probe has settled the status.
func (r *Remote) Probed() <-chan struct{} {
	return r.probed
}

func (r *Remote) probe(ctx context.Context) {
	defer close(r.probed)
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+HealthPath, nil)
	if err != nil {
		r.disable(err)
		return
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.disable(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.disable(fmt.Errorf("health check returned %d", resp.StatusCode))
		return
	}
	r.status.CompareAndSwap(int32(Initializing), int32(Ready))
	log.Info().Str("url", r.baseURL).Msg("accelerator ready")
}

func (r *Remote) disable(err error) {
	if Capability(r.status.Swap(int32(Unavailable))) != Unavailable {
		log.Warn().Err(err).Str("url", r.baseURL).Msg("accelerator unavailable, using local search")
	}
}

func (r *Remote) BestMove(ctx context.Context, request Request) (int, error) {
	if r.Status() != Ready {
		return NoMove, ErrUnavailable
	}

	body, err := json.Marshal(request)
	if err != nil {
		return NoMove, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+MovePath, bytes.NewReader(body))
	if err != nil {
		return NoMove, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.disable(err)
		return NoMove, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NoMove, fmt.Errorf("accelerator returned status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return NoMove, fmt.Errorf("cannot decode accelerator response: %w", err)
	}
	return response.Column, nil
}
