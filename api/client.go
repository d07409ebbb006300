// Package api holds the HTTP clients for the analysis and persistence services.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	userAgent       = "smartmarket-client/1.0"
	requestIDHeader = "X-Request-ID"
)

// Option customises a client.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	metrics   *Metrics
}

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// service is the resty plumbing shared by both clients.
type service struct {
	name    string
	http    *resty.Client
	metrics *Metrics
}

func newService(name, baseURL string, timeout time.Duration, opts []Option) *service {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(slogLogger{service: name})
	if o.transport != nil {
		client.SetTransport(o.transport)
	}

	s := &service{name: name, http: client, metrics: o.metrics}
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(requestIDHeader) == "" {
			r.SetHeader(requestIDHeader, uuid.NewString())
		}
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		s.metrics.IncRequest(name, statusClass(resp.StatusCode()))
		s.metrics.ObserveDuration(name, resp.Time())
		return nil
	})
	return s
}

// do executes req and turns transport failures and non-2xx responses into classified errors.
func (s *service) do(req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		classified := classifyError(err, 0, "")
		s.metrics.IncError(s.name, ErrorTypeLabel(classified))
		return resp, fmt.Errorf("%s %s: %w", method, path, classified)
	}
	if !resp.IsSuccess() {
		classified := classifyError(nil, resp.StatusCode(), serverMessage(resp.Body()))
		s.metrics.IncError(s.name, ErrorTypeLabel(classified))
		return resp, fmt.Errorf("%s %s: %w", method, path, classified)
	}
	return resp, nil
}

func decode(resp *resty.Response, out interface{}) error {
	body := resp.Body()
	if len(body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage pulls a human-readable explanation out of an error body.
// Spring answers with "message"/"error", FastAPI with "detail".
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}
