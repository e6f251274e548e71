package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sellerbridge/marketsync/internal/domain"
	"github.com/sellerbridge/marketsync/internal/repository"

	"github.com/google/uuid"
)

// ReconcileOptions configure one run of the persistence engine.
type ReconcileOptions struct {
	AccountID       uuid.UUID
	ReplaceExisting bool
	DryRun          bool
	ChunkSize       int
}

type listingItem struct {
	row     int
	listing domain.Listing
}

type orderItem struct {
	row   int
	order domain.Order
}

// reconcileListings resolves each transformed listing against persisted state
// by natural key and creates, updates, or skips it. Writes happen in bounded
// chunks; a single record's persistence failure never aborts the chunk or the
// run. With DryRun every decision is made but nothing is written.
func reconcileListings(ctx context.Context, repo repository.ListingRepository, items []listingItem, opts ReconcileOptions, result *ProcessingResult) error {
	for start := 0; start < len(items); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(items))

		for _, item := range items[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}

			existing, err := repo.GetByItemNumber(ctx, opts.AccountID, item.listing.ItemNumber)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				if !opts.DryRun {
					if _, createErr := repo.Create(ctx, item.listing); createErr != nil {
						result.Summary.Failed++
						result.addError(item.row, fmt.Sprintf("failed to save listing %s: %v",
							item.listing.ItemNumber, createErr))
						continue
					}
				}
				result.Summary.Created++

			case err != nil:
				result.Summary.Failed++
				result.addError(item.row, fmt.Sprintf("failed to look up listing %s: %v",
					item.listing.ItemNumber, err))

			case !opts.ReplaceExisting:
				result.Summary.Skipped++
				result.Duplicates++

			default:
				if !opts.DryRun {
					updated := existing.WithImportedFields(item.listing)
					if _, updateErr := repo.Update(ctx, updated); updateErr != nil {
						result.Summary.Failed++
						result.addError(item.row, fmt.Sprintf("failed to update listing %s: %v",
							item.listing.ItemNumber, updateErr))
						continue
					}
				}
				result.Summary.Updated++
			}
		}
	}

	return nil
}

// reconcileOrders is the order-side counterpart of reconcileListings, keyed
// by (externalOrderID, accountID).
func reconcileOrders(ctx context.Context, repo repository.OrderRepository, items []orderItem, opts ReconcileOptions, result *ProcessingResult) error {
	for start := 0; start < len(items); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(items))

		for _, item := range items[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}

			existing, err := repo.GetByExternalID(ctx, opts.AccountID, item.order.ExternalOrderID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				if !opts.DryRun {
					if _, createErr := repo.Create(ctx, item.order); createErr != nil {
						result.Summary.Failed++
						result.addError(item.row, fmt.Sprintf("failed to save order %s: %v",
							item.order.ExternalOrderID, createErr))
						continue
					}
				}
				result.Summary.Created++

			case err != nil:
				result.Summary.Failed++
				result.addError(item.row, fmt.Sprintf("failed to look up order %s: %v",
					item.order.ExternalOrderID, err))

			case !opts.ReplaceExisting:
				result.Summary.Skipped++
				result.Duplicates++

			default:
				if !opts.DryRun {
					updated := existing.WithImportedFields(item.order)
					if _, updateErr := repo.Update(ctx, updated); updateErr != nil {
						result.Summary.Failed++
						result.addError(item.row, fmt.Sprintf("failed to update order %s: %v",
							item.order.ExternalOrderID, updateErr))
						continue
					}
				}
				result.Summary.Updated++
			}
		}
	}

	return nil
}
