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

type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository wires a listing repository backed by pgxpool.
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

const listingColumns = `id, account_id, item_number, title, sku, available_quantity,
	sold_quantity, current_price, currency, start_date, end_date, category,
	condition, format, created_at, updated_at`

func (r *listingRepository) Create(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	if r.pool == nil {
		return domain.Listing{}, fmt.Errorf("listing repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO listings (id, account_id, item_number, title, sku, available_quantity,
			sold_quantity, current_price, currency, start_date, end_date, category,
			condition, format, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		listing.ID,
		listing.AccountID,
		listing.ItemNumber,
		listing.Title,
		listing.SKU,
		listing.AvailableQuantity,
		listing.SoldQuantity,
		listing.CurrentPrice,
		listing.Currency,
		listing.StartDate,
		listing.EndDate,
		listing.Category,
		listing.Condition,
		listing.Format,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

func (r *listingRepository) Update(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	if r.pool == nil {
		return domain.Listing{}, fmt.Errorf("listing repository not initialized")
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE listings
		 SET title = $2, sku = $3, available_quantity = $4, sold_quantity = $5,
		     current_price = $6, currency = $7, start_date = $8, end_date = $9,
		     category = $10, condition = $11, format = $12, updated_at = $13
		 WHERE id = $1`,
		listing.ID,
		listing.Title,
		listing.SKU,
		listing.AvailableQuantity,
		listing.SoldQuantity,
		listing.CurrentPrice,
		listing.Currency,
		listing.StartDate,
		listing.EndDate,
		listing.Category,
		listing.Condition,
		listing.Format,
		listing.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("failed to update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Listing{}, ErrNotFound
	}

	return listing, nil
}

func (r *listingRepository) GetByItemNumber(ctx context.Context, accountID uuid.UUID, itemNumber string) (domain.Listing, error) {
	if r.pool == nil {
		return domain.Listing{}, fmt.Errorf("listing repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT `+listingColumns+`
		 FROM listings
		 WHERE account_id = $1 AND item_number = $2`,
		accountID,
		itemNumber,
	)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("failed to get listing by item number: %w", err)
	}
	return listing, nil
}

func (r *listingRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int, offset int) ([]domain.Listing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("listing repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+listingColumns+`
		 FROM listings
		 WHERE account_id = $1
		 ORDER BY item_number
		 LIMIT $2 OFFSET $3`,
		accountID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		listing, scanErr := scanListing(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", scanErr)
		}
		listings = append(listings, listing)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", rowsErr)
	}

	return listings, nil
}

func (r *listingRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("listing repository not initialized")
	}

	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

func (r *listingRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("listing repository not initialized")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete listings for account: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		listing   domain.Listing
		startDate pgtype.Timestamptz
		endDate   pgtype.Timestamptz
	)
	if err := row.Scan(
		&listing.ID,
		&listing.AccountID,
		&listing.ItemNumber,
		&listing.Title,
		&listing.SKU,
		&listing.AvailableQuantity,
		&listing.SoldQuantity,
		&listing.CurrentPrice,
		&listing.Currency,
		&startDate,
		&endDate,
		&listing.Category,
		&listing.Condition,
		&listing.Format,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		return domain.Listing{}, err
	}

	if startDate.Valid {
		value := startDate.Time
		listing.StartDate = &value
	}
	if endDate.Valid {
		value := endDate.Time
		listing.EndDate = &value
	}

	return listing, nil
}
