package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFetch cobre erro de transporte e resposta não-2xx do feed
var ErrFetch = errors.New("feed fetch failed")

// StatusError é devolvido quando o feed responde fora da faixa 2xx
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed %s returned http %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrFetch }

// Client faz um único GET no feed de odds e devolve o corpo sem interpretar.
// Não há retry: quem chama decide se tenta de novo.
type Client struct {
	URL       string
	HTTP      *http.Client
	UserAgent string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithTimeout define timeout total da requisição; 0 mantém o default do transporte
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		URL:       url,
		HTTP:      &http.Client{},
		UserAgent: "election-odds-ingest/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// drena o corpo para reaproveitar a conexão
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, &StatusError{StatusCode: res.StatusCode, URL: c.URL}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	return body, nil
}
