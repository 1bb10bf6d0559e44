package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultResendURL = "https://api.resend.com/emails"

type ResendConfig struct {
	APIKey string
	From   string
	// Endpoint overrides the Resend API URL.
	Endpoint string
	// RatePerSecond throttles outbound mail; <=0 means 2/s.
	RatePerSecond float64
	MaxAttempts   int
	BaseDelay     time.Duration
	Client        *http.Client
}

// ResendGateway emails the applicant through the Resend HTTP API.
type ResendGateway struct {
	cfg     ResendConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewResendGateway(cfg ResendConfig) *ResendGateway {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultResendURL
	}
	if cfg.From == "" {
		cfg.From = "onboarding@resend.dev"
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &ResendGateway{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// HTTPError is a non-2xx answer from the mail API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("resend: status=%d body=%s", e.StatusCode, e.Body)
}

func (g *ResendGateway) Send(ctx context.Context, ev Event) error {
	if strings.TrimSpace(ev.Email) == "" {
		return fmt.Errorf("resend: event %s has no recipient", ev.Kind)
	}
	subject, html, err := renderEmail(ev)
	if err != nil {
		return err
	}
	body, err := json.Marshal(resendRequest{
		From:    g.cfg.From,
		To:      []string{ev.Email},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		retryAfter, err := g.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == g.cfg.MaxAttempts {
			break
		}
		if err := sleepBackoff(ctx, attempt, g.cfg.BaseDelay, retryAfter); err != nil {
			return err
		}
	}
	return lastErr
}

func (g *ResendGateway) post(ctx context.Context, body []byte) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return 0, nil
	}
	return parseRetryAfter(resp.Header.Get("Retry-After")), &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
	}
}

func retryable(err error) bool {
	he, ok := err.(*HTTPError)
	if !ok {
		// transport errors
		return true
	}
	return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepBackoff(ctx context.Context, attempt int, base, retryAfter time.Duration) error {
	d := base << (attempt - 1)
	if retryAfter > d {
		d = retryAfter
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
