// Package datadog executes typed queries against the Datadog API: it
// builds one request per invocation, replays it with bounded
// exponential backoff, and classifies every outcome into the shared
// failure taxonomy.
package datadog

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rmayhew/ddq/config"
)

// Client runs commands through the request pipeline. It owns the retry
// loop, so resty's built-in retry stays disabled and the backoff delays
// stay deterministic.
type Client struct {
	http *resty.Client
	cfg  *config.Config
	log  *slog.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:  resty.New().SetAllowGetMethodPayload(true),
		cfg:   cfg,
		log:   slog.Default(),
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// Do builds the command's request, replays it until a terminal outcome,
// and returns the success body or the classified failure. At most
// MaxRetries+1 attempts are made.
func (c *Client) Do(ctx context.Context, cmd Command) ([]byte, error) {
	req, err := cmd.build(c.cfg, c.now())
	if err != nil {
		return nil, err
	}

	policy := c.cfg.Retry
	for attempt := 0; ; attempt++ {
		c.log.Debug("sending request",
			slog.String("method", req.Method),
			slog.String("url", req.URL),
			slog.Int("attempt", attempt+1))

		att := c.send(ctx, req)
		v := classify(att, policy.RetryRateLimit)

		if v.err == nil {
			return att.body, nil
		}
		if !v.retry {
			return nil, v.err
		}
		if attempt >= policy.MaxRetries {
			c.log.Debug("retry budget exhausted",
				slog.Int("attempts", attempt+1),
				slog.String("category", string(v.err.Category)))
			return nil, v.err
		}

		delay := retryDelay(policy, attempt, v.delay)
		c.log.Debug("retrying after backoff",
			slog.Int("status", att.status),
			slog.Duration("delay", delay))
		c.sleep(delay)
	}
}

// send performs one attempt. Each attempt gets its own full timeout
// budget.
func (c *Client) send(ctx context.Context, req *Request) attemptOutcome {
	actx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	r := c.http.R().SetContext(actx).SetHeaders(req.Header)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return attemptOutcome{transportErr: err}
	}

	att := attemptOutcome{status: resp.StatusCode(), body: resp.Body()}
	if header := resp.Header().Get("Retry-After"); header != "" {
		att.retryAfter = parseRetryAfter(header, c.now())
	}
	return att
}

// retryDelay computes the sleep before the next attempt: the capped
// exponential min(backoff * 2^attempt, max) unless a Retry-After hint
// overrides it. Hints are capped too.
func retryDelay(policy config.RetryPolicy, attempt int, hint *time.Duration) time.Duration {
	if hint != nil {
		if *hint > policy.MaxBackoff {
			return policy.MaxBackoff
		}
		return *hint
	}
	delay := policy.Backoff
	for i := 0; i < attempt && delay < policy.MaxBackoff; i++ {
		delay *= 2
	}
	if delay > policy.MaxBackoff {
		delay = policy.MaxBackoff
	}
	return delay
}
