// Package probe checks whether a playback address answers like a working player page.
package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/network"
)

// Status classifies a probe.
type Status string

const (
	StatusOK         Status = "ok"
	StatusCloudflare Status = "cloudflare"
	StatusBadStatus  Status = "bad_status"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
)

const previewSize = 512

// Result is the outcome of probing one address.
type Result struct {
	Address    string
	Status     Status
	StatusCode int
	Latency    time.Duration
}

// Playable reports whether the address can be handed to the player.
func (r Result) Playable() bool {
	return r.Status == StatusOK
}

// Prober issues probes with a bounded timeout.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// New returns a Prober using client. A nil client means network.Fingerprinted.
func New(client *http.Client, timeout time.Duration) *Prober {
	if client == nil {
		client = network.Fingerprinted
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{client: client, timeout: timeout}
}

// FromConfig returns a Prober over the fingerprinted client with probe.timeout.
func FromConfig() *Prober {
	return New(nil, viper.GetDuration(key.ProbeTimeout))
}

// Probe fetches address and classifies the response.
func (p *Prober) Probe(ctx context.Context, address string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result := p.probe(ctx, address)
	result.Address = address
	result.Latency = time.Since(start)

	log.WithFields(log.Fields{
		"status":  result.Status,
		"code":    result.StatusCode,
		"latency": result.Latency,
	}).Debug("probed address")
	return result
}

func (p *Prober) probe(ctx context.Context, address string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return Result{Status: StatusError}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Result{Status: StatusTimeout}
		}
		return Result{Status: StatusError}
	}
	defer resp.Body.Close()

	preview := make([]byte, previewSize)
	n, _ := io.ReadFull(resp.Body, preview)
	return classify(resp, strings.ToLower(string(preview[:n])))
}

// classify only calls a response cloudflare when the server header or a
// challenge page says so; a bare 403 or 503 is just a bad status.
func classify(resp *http.Response, preview string) Result {
	code := resp.StatusCode
	server := strings.ToLower(strings.TrimSpace(resp.Header.Get("Server")))
	isCFServer := server == "cloudflare"
	hasChallenge := strings.Contains(preview, "checking your browser") ||
		strings.Contains(preview, "cf-chl") ||
		strings.Contains(preview, "ray id")

	switch code {
	case http.StatusForbidden, http.StatusServiceUnavailable, 520, 521, 524:
		if hasChallenge || isCFServer {
			return Result{Status: StatusCloudflare, StatusCode: code}
		}
	}

	if code < 200 || code > 299 {
		if isCFServer {
			return Result{Status: StatusCloudflare, StatusCode: code}
		}
		return Result{Status: StatusBadStatus, StatusCode: code}
	}

	if hasChallenge {
		return Result{Status: StatusCloudflare, StatusCode: code}
	}
	return Result{Status: StatusOK, StatusCode: code}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
