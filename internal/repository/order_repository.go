package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository wires an order repository backed by pgxpool. Orders and
// their line items are written inside one transaction.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, account_id, external_order_id, buyer_username, buyer_name,
	buyer_email, total_price, currency, sale_date, paid_date, shipped_date,
	tracking_number, shipping_service, ship_to_name, ship_to_line1, ship_to_line2,
	ship_to_city, ship_to_state, ship_to_postal_code, ship_to_country,
	created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r.pool == nil {
		return domain.Order{}, fmt.Errorf("order repository not initialized")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(
		ctx,
		`INSERT INTO orders (id, account_id, external_order_id, buyer_username, buyer_name,
			buyer_email, total_price, currency, sale_date, paid_date, shipped_date,
			tracking_number, shipping_service, ship_to_name, ship_to_line1, ship_to_line2,
			ship_to_city, ship_to_state, ship_to_postal_code, ship_to_country,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22)`,
		order.ID,
		order.AccountID,
		order.ExternalOrderID,
		order.BuyerUsername,
		order.BuyerName,
		order.BuyerEmail,
		order.TotalPrice,
		order.Currency,
		order.SaleDate,
		order.PaidDate,
		order.ShippedDate,
		order.TrackingNumber,
		order.ShippingService,
		order.ShipTo.Name,
		order.ShipTo.Line1,
		order.ShipTo.Line2,
		order.ShipTo.City,
		order.ShipTo.State,
		order.ShipTo.PostalCode,
		order.ShipTo.Country,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	if err := insertLineItems(ctx, tx, order.ID, order.LineItems); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r.pool == nil {
		return domain.Order{}, fmt.Errorf("order repository not initialized")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(
		ctx,
		`UPDATE orders
		 SET buyer_username = $2, buyer_name = $3, buyer_email = $4, total_price = $5,
		     currency = $6, sale_date = $7, paid_date = $8, shipped_date = $9,
		     tracking_number = $10, shipping_service = $11, ship_to_name = $12,
		     ship_to_line1 = $13, ship_to_line2 = $14, ship_to_city = $15,
		     ship_to_state = $16, ship_to_postal_code = $17, ship_to_country = $18,
		     updated_at = $19
		 WHERE id = $1`,
		order.ID,
		order.BuyerUsername,
		order.BuyerName,
		order.BuyerEmail,
		order.TotalPrice,
		order.Currency,
		order.SaleDate,
		order.PaidDate,
		order.ShippedDate,
		order.TrackingNumber,
		order.ShippingService,
		order.ShipTo.Name,
		order.ShipTo.Line1,
		order.ShipTo.Line2,
		order.ShipTo.City,
		order.ShipTo.State,
		order.ShipTo.PostalCode,
		order.ShipTo.Country,
		order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Order{}, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_line_items WHERE order_id = $1`, order.ID); err != nil {
		return domain.Order{}, fmt.Errorf("failed to replace order line items: %w", err)
	}
	if err := insertLineItems(ctx, tx, order.ID, order.LineItems); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit order update: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetByExternalID(ctx context.Context, accountID uuid.UUID, externalOrderID string) (domain.Order, error) {
	if r.pool == nil {
		return domain.Order{}, fmt.Errorf("order repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE account_id = $1 AND external_order_id = $2`,
		accountID,
		externalOrderID,
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("failed to get order by external id: %w", err)
	}

	items, err := r.lineItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.LineItems = items

	return order, nil
}

func (r *orderRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int, offset int) ([]domain.Order, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("order repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE account_id = $1
		 ORDER BY sale_date DESC NULLS LAST, external_order_id
		 LIMIT $2 OFFSET $3`,
		accountID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan order: %w", scanErr)
		}
		orders = append(orders, order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", rowsErr)
	}

	for i := range orders {
		items, itemsErr := r.lineItems(ctx, orders[i].ID)
		if itemsErr != nil {
			return nil, itemsErr
		}
		orders[i].LineItems = items
	}

	return orders, nil
}

func (r *orderRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("order repository not initialized")
	}

	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("order repository not initialized")
	}

	// Line items cascade via FK.
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders for account: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) lineItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLineItem, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, order_id, item_number, title, quantity, unit_price
		 FROM order_line_items
		 WHERE order_id = $1
		 ORDER BY item_number`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order line items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderLineItem{}
	for rows.Next() {
		var item domain.OrderLineItem
		if scanErr := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ItemNumber,
			&item.Title,
			&item.Quantity,
			&item.UnitPrice,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan order line item: %w", scanErr)
		}
		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate order line items: %w", rowsErr)
	}

	return items, nil
}

func insertLineItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []domain.OrderLineItem) error {
	for _, item := range items {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO order_line_items (id, order_id, item_number, title, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID,
			orderID,
			item.ItemNumber,
			item.Title,
			item.Quantity,
			item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line item: %w", err)
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		order       domain.Order
		saleDate    pgtype.Timestamptz
		paidDate    pgtype.Timestamptz
		shippedDate pgtype.Timestamptz
	)
	if err := row.Scan(
		&order.ID,
		&order.AccountID,
		&order.ExternalOrderID,
		&order.BuyerUsername,
		&order.BuyerName,
		&order.BuyerEmail,
		&order.TotalPrice,
		&order.Currency,
		&saleDate,
		&paidDate,
		&shippedDate,
		&order.TrackingNumber,
		&order.ShippingService,
		&order.ShipTo.Name,
		&order.ShipTo.Line1,
		&order.ShipTo.Line2,
		&order.ShipTo.City,
		&order.ShipTo.State,
		&order.ShipTo.PostalCode,
		&order.ShipTo.Country,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	if saleDate.Valid {
		value := saleDate.Time
		order.SaleDate = &value
	}
	if paidDate.Valid {
		value := paidDate.Time
		order.PaidDate = &value
	}
	if shippedDate.Valid {
		value := shippedDate.Time
		order.ShippedDate = &value
	}

	return order, nil
}
