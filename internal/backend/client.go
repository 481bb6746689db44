// Package backend is the client for the back-office compensation endpoints.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"compensation-desk/internal/model"
)

const (
	defaultTimeout  = 10 * time.Second
	genericFailure  = "The request could not be completed. Please try again."
	requestIDHeader = "X-Request-ID"
)

// ErrInvalidRequest is returned when a request fails boundary validation
// before it is sent.
var ErrInvalidRequest = errors.New("backend: invalid request")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status   int
	Message  string
	Messages []model.Message
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// UserMessage returns the server's message when the error carries one and a
// generic text otherwise.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrInvalidRequest) {
		return err.Error()
	}
	return genericFailure
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConnsPerHost int
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	log     *zap.Logger

	// resolved details never change again, so they are cached per issue.
	resolved sync.Map
	calls    sync.WaitGroup
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithDial replaces the network dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxConns := cfg.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = 16
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		log:     zap.NewNop(),
		http: &fasthttp.Client{
			Name:                "compensation-desk",
			MaxConnsPerHost:     maxConns,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func issuePath(issueID, suffix string) string {
	return "/issues/" + url.PathEscape(issueID) + "/compensation" + suffix
}

// FetchDetail loads the compensation aggregate of one issue.
func (c *Client) FetchDetail(ctx context.Context, issueID string) (*model.CompensationDetail, error) {
	if v, ok := c.resolved.Load(issueID); ok {
		return v.(*model.CompensationDetail).Clone(), nil
	}
	var detail model.CompensationDetail
	if err := c.do(ctx, fasthttp.MethodGet, issuePath(issueID, ""), nil, "", &detail); err != nil {
		return nil, fmt.Errorf("fetch compensation detail %s: %w", issueID, err)
	}
	if detail.Resolved() {
		c.resolved.Store(issueID, detail.Clone())
	}
	return &detail, nil
}

// Preview asks the backend for a compensation breakdown.
func (c *Client) Preview(ctx context.Context, issueID string, req model.PreviewRequest) (*model.CompensationBreakdown, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode preview request: %w", err)
	}
	var b model.CompensationBreakdown
	if err := c.do(ctx, fasthttp.MethodPost, issuePath(issueID, "/preview"), body, "application/json", &b); err != nil {
		return nil, fmt.Errorf("preview compensation %s: %w", issueID, err)
	}
	return &b, nil
}

// Wait blocks until every request has finished, including ones whose caller
// gave up on a cancelled context. fasthttp cannot abort a request in flight,
// so each of those runs on until its deadline: the earlier of the request
// timeout and the context deadline at send time.
func (c *Client) Wait() {
	c.calls.Wait()
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	requestID := uuid.NewString()
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	done := make(chan error, 1)
	c.calls.Add(1)
	go func() {
		defer c.calls.Done()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)
		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			done <- err
			return
		}
		done <- decodeResponse(resp, out)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-done:
	}
	c.log.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}

func decodeResponse(resp *fasthttp.Response, out any) error {
	status := resp.StatusCode()
	body := resp.Body()
	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		var er model.ErrorResponse
		if json.Unmarshal(body, &er) == nil {
			apiErr.Message = er.Message
			apiErr.Messages = er.Messages
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
