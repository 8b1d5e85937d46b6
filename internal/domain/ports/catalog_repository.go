package ports

import (
	"context"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// CatalogRepository reads product and authorization counts from the
// catalog tables that sit next to the commerce store. The dashboards only
// need grouped counts, never full rows.
type CatalogRepository interface {
	// ProductStats counts a party's products grouped by the active flag.
	// Sellers own listings; suppliers own source products.
	ProductStats(ctx context.Context, db DBTX, party domain.PartyType, partyID string) (*ProductStats, error)

	// AuthorizationStats counts a party's sales-authorization requests by status
	AuthorizationStats(ctx context.Context, db DBTX, party domain.PartyType, partyID string) (*AuthorizationStats, error)
}

// ProductStats holds catalog counts derived from the isActive flag
type ProductStats struct {
	Total    int64
	Active   int64
	Inactive int64
}

// AuthorizationStats holds sales-authorization counts by status
type AuthorizationStats struct {
	Pending  int64
	Approved int64
	Rejected int64
}
