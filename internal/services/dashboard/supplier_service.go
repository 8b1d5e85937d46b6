package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
	"github.com/marketbridge/settlement-service/pkg/observability"
)

// SupplierService mirrors SellerService for the supplier role: wholesale
// revenue and margin instead of sales and commission.
type SupplierService struct {
	orderRepo   ports.OrderRepository
	catalogRepo ports.CatalogRepository
	cache       ports.Cache
	logger      ports.Logger

	now func() time.Time
}

// NewSupplierService creates a new supplier dashboard service
func NewSupplierService(
	orderRepo ports.OrderRepository,
	catalogRepo ports.CatalogRepository,
	cache ports.Cache,
	logger ports.Logger,
) *SupplierService {
	return &SupplierService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// GetSummary returns the supplier's KPI summary for the period, defaulting
// to the trailing 30 days. Served from a 60-second cache when fresh.
func (s *SupplierService) GetSummary(ctx context.Context, supplierID string, dateRange *domain.DateRange) (*SupplierSummary, error) {
	if supplierID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "supplier id is required")
	}
	period, err := resolvePeriod(dateRange, s.now())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("dashboard:supplier:%s:%s", supplierID, period.Fingerprint())
	var cached SupplierSummary
	if cacheGet(ctx, s.cache, s.logger, key, &cached) {
		return &cached, nil
	}

	observability.RecordDashboardQuery("supplier")

	var (
		orderStats *ports.SupplierOrderStats
		products   *ports.ProductStats
		auths      *ports.AuthorizationStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orderStats, err = s.orderRepo.SupplierOrderStats(gctx, nil, supplierID, period)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.catalogRepo.ProductStats(gctx, nil, domain.PartySupplier, supplierID)
		return err
	})
	g.Go(func() error {
		var err error
		auths, err = s.catalogRepo.AuthorizationStats(gctx, nil, domain.PartySupplier, supplierID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Supplier dashboard aggregation failed",
			ports.String("supplier_id", supplierID),
			ports.Time("period_start", period.From),
			ports.Time("period_end", period.To),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "supplier dashboard aggregation failed", err)
	}

	summary := &SupplierSummary{
		SupplierID:   supplierID,
		Period:       PeriodDTO{From: period.From, To: period.To},
		TotalOrders:  orderStats.TotalOrders,
		TotalRevenue: orderStats.TotalRevenue,
		TotalItems:   orderStats.TotalItems,
		TotalMargin:  orderStats.TotalMargin,

		ProductTotal:    products.Total,
		ProductActive:   products.Active,
		ProductInactive: products.Inactive,

		AuthorizationsPending:  auths.Pending,
		AuthorizationsApproved: auths.Approved,
		AuthorizationsRejected: auths.Rejected,
	}
	if orderStats.TotalOrders > 0 {
		summary.AverageOrderValue = orderStats.TotalRevenue.DivRound(decimal.NewFromInt(orderStats.TotalOrders), 8)
	}

	cacheSet(ctx, s.cache, s.logger, key, summary)
	return summary, nil
}

// GetOrders lists the supplier's orders with wholesale sums, aggregated in
// the database and paginated.
func (s *SupplierService) GetOrders(ctx context.Context, supplierID string, filter OrderFilter) (*OrderPage, error) {
	return listOrders(ctx, s.orderRepo, s.logger, domain.PartySupplier, supplierID, filter, s.now())
}
