package notify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/resilience"
)

// Push publishes to an ntfy server: POST <server>/<topic> with the
// message as a UTF-8 body. Only HTTP 200 counts as delivered. The
// breaker only tracks endpoint health; it never gates a send.
type Push struct {
	server  string
	client  *http.Client
	breaker *resilience.Breaker
}

// NewPush creates a push client for server (DefaultServer when empty).
func NewPush(server string, timeout time.Duration) *Push {
	if server == "" {
		server = DefaultServer
	}
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	server = strings.TrimRight(server, "/")
	return &Push{
		server:  server,
		client:  &http.Client{Timeout: timeout},
		breaker: resilience.New(server, resilience.DefaultConfig()),
	}
}

// TopicURL returns the publish and subscribe URL for topic on server.
func TopicURL(server, topic string) string {
	if server == "" {
		server = DefaultServer
	}
	return strings.TrimRight(server, "/") + "/" + url.PathEscape(strings.TrimSpace(topic))
}

// TopicURL returns the URL for topic on this client's server.
func (p *Push) TopicURL(topic string) string { return TopicURL(p.server, topic) }

// Send makes exactly one delivery attempt, whatever the endpoint's
// recent history.
func (p *Push) Send(ctx context.Context, topic, title, message string) error {
	if err := p.post(ctx, p.TopicURL(topic), title, message); err != nil {
		p.breaker.Failure()
		return err
	}
	p.breaker.Success()
	return nil
}

// EndpointState reports "closed" while pushes succeed and "open" after
// repeated failures.
func (p *Push) EndpointState() string { return p.breaker.State().String() }

func (p *Push) post(ctx context.Context, endpoint, title, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeNotifyTransport, "build push request")
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)

	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeNotifyTransport, "push request failed").
			WithMetadata("endpoint", p.server)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode != http.StatusOK {
		return apperrors.Newf(apperrors.CodeNotifyTransport, "push rejected with status %d", resp.StatusCode).
			WithMetadata("endpoint", p.server)
	}
	return nil
}
