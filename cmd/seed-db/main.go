// Command seed-db prepares a database for local development: it runs
// migrations, upserts a small product catalog, seeds the default shop
// settings, and registers an admin API key.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/product"
	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/repository"
)

type productJSON struct {
	ID         int64              `json:"id"`
	Title      string             `json:"title"`
	Price      decimal.Decimal    `json:"price"`
	Currency   string             `json:"currency"`
	Attributes product.Attributes `json:"attributes"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or SHOP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHOP_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or SHOP_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedSettings(ctx, pool); err != nil {
		return errors.Wrap(err, "seed settings")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertProductSQL = `INSERT INTO products (id, title, price, currency, attributes, active)
	VALUES ($1, $2, $3, $4, $5, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		currency = EXCLUDED.currency,
		attributes = EXCLUDED.attributes,
		updated_at = now()`

// fixProductSeqSQL keeps the sequence ahead of explicitly seeded IDs.
const fixProductSeqSQL = `SELECT setval('products_id_seq', (SELECT COALESCE(MAX(id), 1) FROM products))`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if !p.Attributes.Valid() {
			return errors.Errorf("product %d has non-scalar attribute values", p.ID)
		}
		attrs, err := json.Marshal(p.Attributes)
		if err != nil {
			return errors.Wrapf(err, "encode attributes for product %d", p.ID)
		}
		currency := p.Currency
		if currency == "" {
			currency = "KWD"
		}
		if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Title, p.Price, currency, attrs); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}

		slog.Info("upserted product", slog.Int64("id", p.ID), slog.String("title", p.Title))
	}

	if _, err := pool.Exec(ctx, fixProductSeqSQL); err != nil {
		return errors.Wrap(err, "advance products sequence")
	}

	return nil
}

// seedSettingSQL inserts a current settings row only when the key has none,
// so reruns never clobber values changed through the admin API.
const seedSettingSQL = `INSERT INTO shop_settings (key, payload, is_current)
	SELECT $1, $2, TRUE
	WHERE NOT EXISTS (
		SELECT 1 FROM shop_settings WHERE key = $1 AND is_current
	)`

func seedSettings(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding default shop settings")

	defaults := []struct {
		key     string
		payload string
	}{
		{"orders_acceptance", `{"open": true, "message": ""}`},
		{"shipping_cost", `{"amount": "2.000", "currency": "KWD"}`},
	}

	for _, d := range defaults {
		if _, err := pool.Exec(ctx, seedSettingSQL, d.key, []byte(d.payload)); err != nil {
			return errors.Wrapf(err, "seed setting %s", d.key)
		}
		slog.Info("seeded setting", slog.String("key", d.key))
	}

	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash,
		name = EXCLUDED.name,
		scopes = EXCLUDED.scopes,
		active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL,
		"admin", keyHash, "Default admin key", []string{"admin"},
	); err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "admin"))

	return nil
}
