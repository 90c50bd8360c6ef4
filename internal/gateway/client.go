// Package gateway implements the outbound HTTP client for the payment
// provider's invoice API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/payment"
)

// Compile-time check.
var _ payment.Gateway = (*Client)(nil)

// Config holds the gateway connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds every outbound call. A timed-out call surfaces as a
	// retryable *payment.GatewayError; nothing hangs the request.
	Timeout time.Duration
}

// Client talks to the provider's invoice API over HTTPS.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a gateway Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type createInvoiceBody struct {
	Reference    string `json:"reference"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
	CustomerName string `json:"customer_name"`
	CustomerTel  string `json:"customer_tel"`
}

// CreateInvoice registers a new invoice with the gateway and returns the
// redirect target for the customer.
func (c *Client) CreateInvoice(ctx context.Context, req payment.CreateInvoiceRequest) (*payment.Invoice, error) {
	body, err := json.Marshal(createInvoiceBody{
		Reference:    req.OrderNumber,
		Amount:       req.Amount.StringFixed(3),
		Currency:     req.Currency,
		Method:       req.MethodCode,
		CustomerName: req.CustomerName,
		CustomerTel:  req.CustomerTel,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode invoice request")
	}

	data, err := c.do(ctx, http.MethodPost, "/v2/invoices", body)
	if err != nil {
		return nil, err
	}

	var inv payment.Invoice
	if err := decodeInvoice(data, &inv); err != nil {
		return nil, &payment.GatewayError{Op: "decode invoice", Err: err}
	}
	if inv.InvoiceReference == "" {
		return nil, &payment.GatewayError{Op: "create invoice", Err: errors.New("response missing invoice reference")}
	}
	return &inv, nil
}

// InvoiceState queries the gateway's authoritative status for an invoice.
func (c *Client) InvoiceState(ctx context.Context, invoiceRef string) (*payment.InvoiceState, error) {
	data, err := c.do(ctx, http.MethodGet, "/v2/invoices/"+invoiceRef, nil)
	if err != nil {
		return nil, err
	}

	var state payment.InvoiceState
	if err := decodeState(data, &state); err != nil {
		return nil, &payment.GatewayError{Op: "decode invoice state", Err: err}
	}
	return &state, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &payment.GatewayError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &payment.GatewayError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &payment.GatewayError{
			Op:  method + " " + path,
			Err: errors.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return data, nil
}

// decodeInvoice parses the create-invoice response. Unknown fields are
// skipped; gateway payloads grow fields without notice.
func decodeInvoice(data []byte, inv *payment.Invoice) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "payment_id":
			inv.PaymentID, err = d.Str()
		case "invoice_reference":
			inv.InvoiceReference, err = d.Str()
		case "redirect_url":
			inv.RedirectURL, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
}

// decodeState parses an invoice status payload. The amount arrives as either
// a JSON string or a number depending on the gateway API version.
func decodeState(data []byte, state *payment.InvoiceState) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			state.Status, err = d.Str()
		case "currency":
			state.Currency, err = d.Str()
		case "amount":
			var raw jx.Raw
			raw, err = d.Raw()
			if err != nil {
				return err
			}
			state.Amount, err = decimal.NewFromString(strings.Trim(string(raw), `"`))
		default:
			err = d.Skip()
		}
		return err
	})
}
