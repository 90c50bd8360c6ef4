package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(order_number, status, currency, subtotal_amount, discount_amount, shipping_amount,
		 total_amount, discount_code, payment_method, customer_name, customer_phone, customer_email,
		 address_city, address_block, address_street, address_extra, admin_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, product_id, snapshot, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	insertStatusEventSQL = `INSERT INTO order_status_events
		(order_id, from_status, to_status, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	orderColumns = `id, order_number, status, currency, subtotal_amount, discount_amount,
		shipping_amount, total_amount, discount_code, payment_method,
		customer_name, customer_phone, customer_email,
		address_city, address_block, address_street, address_extra,
		tracking_number, shipping_date, delivery_date, admin_notes, created_at, updated_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderByNumberSQL = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	getOrderItemsSQL = `SELECT id, order_id, product_id, snapshot, quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateOrderStatusSQL = `UPDATE orders SET
		status = $2, tracking_number = $3, shipping_date = $4, delivery_date = $5,
		admin_notes = $6, updated_at = $7
		WHERE id = $1`

	listStatusEventsSQL = `SELECT id, order_id, from_status, to_status, actor, notes, created_at
		FROM order_status_events WHERE order_id = $1 ORDER BY created_at, id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its items, and a creation status event in one
// transaction, so a crash mid-sequence never leaves an order without items
// or items without frozen prices.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNumber, string(o.Status), o.Currency,
		o.Subtotal, o.Discount, o.Shipping, o.Total,
		o.DiscountCode, o.PaymentMethod,
		o.CustomerName, o.CustomerPhone, o.CustomerEmail,
		o.Address.City, o.Address.Block, o.Address.Street, o.Address.Extra,
		o.AdminNotes, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		snapshot, err := json.Marshal(item.Snapshot)
		if err != nil {
			return fmt.Errorf("marshaling snapshot for product %d: %w", item.ProductID, err)
		}
		err = tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, snapshot, item.Quantity, item.UnitPrice, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("creating order item for product %d: %w", item.ProductID, err)
		}
	}

	// Creation event: from == to == initial status, recorded by the system
	// actor. The tracking timeline reads the initial status from it.
	_, err = tx.Exec(ctx, insertStatusEventSQL,
		o.ID, string(o.Status), string(o.Status), string(order.ActorSystem), "order created", o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording creation event for order %q: %w", o.OrderNumber, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.OrderNumber, err)
	}
	return nil
}

// GetByID returns a single order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.get(ctx, getOrderByIDSQL, id, fmt.Sprintf("#%d", id))
}

// GetByNumber returns a single order by its public order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.get(ctx, getOrderByNumberSQL, number, number)
}

func (r *OrderRepository) get(ctx context.Context, query string, arg any, ref string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", ref, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &order.NotFoundError{OrderNumber: ref}
		}
		return nil, fmt.Errorf("getting order %s: %w", ref, err)
	}

	itemRows, err := r.pool.Query(ctx, getOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %s: %w", ref, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %s: %w", ref, err)
	}
	return &o, nil
}

// UpdateStatus persists the order's mutated status fields together with the
// transition event in one transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order, ev order.StatusEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning status transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, updateOrderStatusSQL,
		o.ID, string(o.Status), o.TrackingNumber, o.ShippingDate, o.DeliveryDate,
		o.AdminNotes, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating status for order %d: %w", o.ID, err)
	}

	_, err = tx.Exec(ctx, insertStatusEventSQL,
		ev.OrderID, string(ev.From), string(ev.To), string(ev.Actor), ev.Notes, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording status event for order %d: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing status for order %d: %w", o.ID, err)
	}
	return nil
}

// ListEvents returns the order's status trail in application order.
func (r *OrderRepository) ListEvents(ctx context.Context, orderID int64) ([]order.StatusEvent, error) {
	rows, err := r.pool.Query(ctx, listStatusEventsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing status events for order %d: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanStatusEvent)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &status, &o.Currency,
		&o.Subtotal, &o.Discount, &o.Shipping, &o.Total,
		&o.DiscountCode, &o.PaymentMethod,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.Address.City, &o.Address.Block, &o.Address.Street, &o.Address.Extra,
		&o.TrackingNumber, &o.ShippingDate, &o.DeliveryDate,
		&o.AdminNotes, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		item     order.Item
		snapshot []byte
	)
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &snapshot,
		&item.Quantity, &item.UnitPrice, &item.LineTotal,
	)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(snapshot, &item.Snapshot); err != nil {
		return item, fmt.Errorf("decoding snapshot for item %d: %w", item.ID, err)
	}
	return item, nil
}

func scanStatusEvent(row pgx.CollectableRow) (order.StatusEvent, error) {
	var (
		ev    order.StatusEvent
		from  string
		to    string
		actor string
	)
	err := row.Scan(&ev.ID, &ev.OrderID, &from, &to, &actor, &ev.Notes, &ev.CreatedAt)
	ev.From = order.Status(from)
	ev.To = order.Status(to)
	ev.Actor = order.Actor(actor)
	return ev, err
}
