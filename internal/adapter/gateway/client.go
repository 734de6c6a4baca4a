package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/metrics"
	"github.com/rl1809/giftpay/internal/port"
)

const (
	createInvoicePath    = "/createInvoice"
	maxResponseBytes     = 1 << 20
	defaultClientTimeout = 10 * time.Second
)

type Config struct {
	BaseURL        string
	APIKey         string
	ShopID         string
	Timeout        time.Duration
	PaidButtonName string
}

type Client struct {
	httpClient *http.Client
	cfg        Config
	log        *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClientTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log.With(slog.String("component", "gateway")),
	}
}

type createInvoiceRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Payload     string `json:"payload"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url,omitempty"`
	FailURL     string `json:"fail_url,omitempty"`
	WebhookURL  string `json:"webhook_url,omitempty"`
	PaidBtnName string `json:"paid_btn_name,omitempty"`
	PaidBtnURL  string `json:"paid_btn_url,omitempty"`
}

func (c *Client) CreateInvoice(ctx context.Context, req port.InvoiceRequest) (port.InvoiceResult, error) {
	if !req.Amount.IsPositive() {
		return port.InvoiceResult{}, &domain.GatewayError{Err: fmt.Errorf("%w: %s", domain.ErrInvalidAmount, req.Amount)}
	}

	body := createInvoiceRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		OrderID:     req.OrderRef,
		Payload:     req.OrderRef,
		Description: req.Description,
		SuccessURL:  req.SuccessURL,
		FailURL:     req.FailURL,
		WebhookURL:  req.WebhookURL,
	}
	if req.SuccessURL != "" {
		body.PaidBtnName = c.cfg.PaidButtonName
		body.PaidBtnURL = req.SuccessURL
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return port.InvoiceResult{}, &domain.GatewayError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+createInvoicePath, bytes.NewReader(payload))
	if err != nil {
		return port.InvoiceResult{}, &domain.GatewayError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("X-Crypto-Api-Key", c.cfg.APIKey)
	if c.cfg.ShopID != "" {
		httpReq.Header.Set("X-Shop-Id", c.cfg.ShopID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.GatewayRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return port.InvoiceResult{}, &domain.GatewayError{Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return port.InvoiceResult{}, &domain.GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return port.InvoiceResult{}, &domain.GatewayError{StatusCode: resp.StatusCode, Payload: string(raw)}
	}

	parsed := ParseInvoiceResponse(raw)
	if parsed.Kind != ResponseParsed {
		return port.InvoiceResult{}, &domain.GatewayError{
			StatusCode: resp.StatusCode,
			Payload:    parsed.Raw,
			Err:        fmt.Errorf("invoice response %s", parsed.Kind),
		}
	}

	c.log.Debug("invoice created",
		slog.String("order_ref", req.OrderRef),
		slog.String("invoice_id", parsed.InvoiceID))

	return port.InvoiceResult{PayURL: parsed.PayURL, InvoiceID: parsed.InvoiceID}, nil
}

// unwrapURLError keeps context errors matchable with errors.Is after
// net/http wraps them in *url.Error.
func unwrapURLError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("request timed out: %w", context.DeadlineExceeded)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request canceled: %w", context.Canceled)
	}
	return err
}
