package nfce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfscan/internal/encoding"
	"github.com/MrJamesThe3rd/nfscan/internal/invoice"
)

const (
	consultPath = "/consulta-nfce"

	// maxErrorBody bounds how much of a failed response is logged.
	maxErrorBody = 4 << 10
)

var (
	// ErrConnection means the request never completed.
	ErrConnection = errors.New("backend unreachable")
	// ErrPayload means a 2xx response carried a body that is not an invoice.
	ErrPayload = errors.New("malformed invoice payload")
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// Client consults NFC-e receipts through the parsing backend.
type Client struct {
	baseURL string
	client  *http.Client
	strict  bool
	logger  *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithStrict makes Consult reject invoices missing required fields.
func WithStrict(strict bool) Option {
	return func(c *Client) {
		c.strict = strict
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type consultRequest struct {
	URL string `json:"url"`
}

// Consult posts the decoded QR payload to the backend and returns the parsed
// invoice. The payload is forwarded verbatim; rejecting malformed URLs is
// the backend's job.
func (c *Client) Consult(ctx context.Context, qrURL string) (*invoice.Invoice, error) {
	body, err := json.Marshal(consultRequest{URL: qrURL})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+consultPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := c.logger.With("request_id", requestID)
	log.Debug("consulting nfce", "url", qrURL)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("nfce request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, readErr := encoding.ReadText(resp.Body, maxErrorBody)
		if readErr != nil {
			log.Warn("reading error body", "error", readErr)
		}

		log.Error("nfce backend rejected request", "status", resp.StatusCode, "body", text)

		return nil, &StatusError{Code: resp.StatusCode, Body: text}
	}

	var inv invoice.Invoice
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		log.Error("decoding nfce response", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPayload, err)
	}

	if c.strict {
		if err := inv.Validate(); err != nil {
			log.Error("nfce response failed validation", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrPayload, err)
		}
	}

	log.Info("nfce consulted", "store", inv.Store, "items", len(inv.Items))

	return &inv, nil
}
