//go:build integration

// Package integration exercises the full stack against a real PostgreSQL
// instance: repositories, domain services, and the HTTP surface. The payment
// gateway is replaced with an in-process fake whose invoice states the tests
// control directly.
package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/payment"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/handler"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/repository"
)

const testAdminKey = "integration-admin-key"

var (
	server  *httptest.Server
	pool    *pgxpool.Pool
	gateway *fakeGateway
)

// fakeGateway implements payment.Gateway with states the tests script.
type fakeGateway struct {
	mu       sync.Mutex
	seq      int
	states   map[string]payment.InvoiceState
	failNext bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{states: map[string]payment.InvoiceState{}}
}

func (g *fakeGateway) CreateInvoice(_ context.Context, req payment.CreateInvoiceRequest) (*payment.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext {
		g.failNext = false
		return nil, &payment.GatewayError{Op: "create invoice", Err: fmt.Errorf("connection refused")}
	}
	g.seq++
	ref := fmt.Sprintf("INV-%06d", g.seq)
	g.states[ref] = payment.InvoiceState{
		Status:   payment.InvoiceStatusPending,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	return &payment.Invoice{
		PaymentID:        fmt.Sprintf("pay_%06d", g.seq),
		InvoiceReference: ref,
		RedirectURL:      "https://gateway.test/pay/" + ref,
	}, nil
}

func (g *fakeGateway) InvoiceState(_ context.Context, ref string) (*payment.InvoiceState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.states[ref]
	if !ok {
		return nil, &payment.GatewayError{Op: "invoice state", Err: fmt.Errorf("unknown invoice %s", ref)}
	}
	return &state, nil
}

// setInvoice overrides the scripted state for an invoice reference.
func (g *fakeGateway) setInvoice(ref, status string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state := g.states[ref]
	state.Status = status
	state.Amount = amount
	g.states[ref] = state
}

func TestMain(m *testing.M) {
	os.Exit(runMain(m))
}

func runMain(m *testing.M) int {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shop",
				"POSTGRES_PASSWORD": "shop",
				"POSTGRES_DB":       "shop",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Printf("start postgres container: %v", err)
		return 1
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		log.Printf("container host: %v", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Printf("container port: %v", err)
		return 1
	}

	databaseURL := fmt.Sprintf("postgres://shop:shop@%s:%s/shop?sslmode=disable", host, port.Port())

	pool, err = repository.NewPool(ctx, databaseURL)
	if err != nil {
		log.Printf("create pool: %v", err)
		return 1
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		log.Printf("run migrations: %v", err)
		return 1
	}
	if err := seedFixtures(ctx); err != nil {
		log.Printf("seed fixtures: %v", err)
		return 1
	}

	gateway = newFakeGateway()

	settingsStore := repository.NewSettingsRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	promoRepo := repository.NewPromoRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	orderService := order.NewService(settingsStore, productRepo, discountRepo, promoRepo, orderRepo)
	paymentService := payment.NewService(gateway, paymentRepo, orderService, orderRepo)

	h := handler.NewHandler(
		orderService,
		paymentService,
		discountRepo,
		productRepo,
		settingsStore,
		apikeyRepo,
		[]byte("integration-pepper"),
	)

	server = httptest.NewServer(h.Router())
	defer server.Close()

	return m.Run()
}

func seedFixtures(ctx context.Context) error {
	stmts := []struct {
		sql  string
		args []any
	}{
		{
			sql: `INSERT INTO products (id, title, price, currency, attributes) VALUES
				(1, 'Oud Royale Perfume 50ml', 20.000, 'KWD', '{"size": "50ml"}'),
				(2, 'Musk Al Tahara Oil', 8.000, 'KWD', '{}'),
				(3, 'Amber Incense Bakhoor Box', 12.750, 'KWD', '{}')`,
		},
		{
			sql: `SELECT setval('products_id_seq', 100)`,
		},
		{
			sql: `INSERT INTO shop_settings (key, payload, is_current) VALUES
				('orders_acceptance', '{"open": true, "message": ""}', TRUE),
				('shipping_cost', '{"amount": "2.000", "currency": "KWD"}', TRUE)`,
		},
		{
			sql:  `INSERT INTO api_keys (id, key_hash, name, scopes, active) VALUES ('admin', $1, 'test admin', '{admin}', TRUE)`,
			args: []any{hashTestKey(testAdminKey, "integration-pepper")},
		},
		{
			sql: `INSERT INTO promo_codes (code, discount_type, value, min_subtotal, description, active)
				VALUES ('WELCOME10', 'percentage', 10, 0, '10% off', TRUE)`,
		},
	}

	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s.sql, s.args...); err != nil {
			return fmt.Errorf("exec %q: %w", s.sql[:40], err)
		}
	}
	return nil
}

func hashTestKey(key, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Request helpers. Tests stay at the HTTP boundary wherever possible.

func doRequest(t *testing.T, method, path string, body any, admin bool) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(handler.APIKeyHeader, testAdminKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, raw
}

func decodeResponse[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode response %s: %v", raw, err)
	}
	return out
}

// Shared response envelopes.

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type orderBody struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal_amount"`
	Discount    decimal.Decimal `json:"discount_amount"`
	Shipping    decimal.Decimal `json:"shipping_amount"`
	Total       decimal.Decimal `json:"total_amount"`
	Items       []orderItemBody `json:"order_items"`
}

type orderItemBody struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func newOrderRequest(items ...map[string]any) map[string]any {
	return map[string]any{
		"items":          items,
		"payment_method": "cod",
		"customer": map[string]any{
			"name":  "Noor",
			"phone": "+96550000001",
		},
		"address": map[string]any{
			"city":   "Kuwait City",
			"block":  "3",
			"street": "Street 12",
		},
	}
}

func createOrder(t *testing.T, reqBody map[string]any) orderBody {
	t.Helper()
	resp, raw := doRequest(t, http.MethodPost, "/api/orders", reqBody, false)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: got %d, body %s", resp.StatusCode, raw)
	}
	return decodeResponse[orderBody](t, raw)
}
