package postgres

import (
	"context"
	"fmt"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// CatalogRepository implements ports.CatalogRepository
type CatalogRepository struct {
	db ports.DBPort
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db ports.DBPort) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// ProductStats counts a party's products grouped by the active flag
func (r *CatalogRepository) ProductStats(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string) (*ports.ProductStats, error) {
	q := r.executor(db)

	column, err := partyColumn(party)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active)
		FROM products
		WHERE %s = $1::uuid
	`, column)

	var stats ports.ProductStats
	if err := q.QueryRow(ctx, query, partyID).Scan(&stats.Total, &stats.Active, &stats.Inactive); err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}

	return &stats, nil
}

// AuthorizationStats counts a party's sales-authorization requests by status
func (r *CatalogRepository) AuthorizationStats(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string) (*ports.AuthorizationStats, error) {
	q := r.executor(db)

	column, err := partyColumn(party)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM sales_authorizations
		WHERE %s = $1::uuid
	`, column)

	var stats ports.AuthorizationStats
	if err := q.QueryRow(ctx, query, partyID).Scan(&stats.Pending, &stats.Approved, &stats.Rejected); err != nil {
		return nil, fmt.Errorf("authorization stats: %w", err)
	}

	return &stats, nil
}
