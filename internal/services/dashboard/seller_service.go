package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
	"github.com/marketbridge/settlement-service/pkg/observability"
)

const (
	// summaryCacheTTL keeps dashboard KPIs at most a minute stale.
	summaryCacheTTL = 60 * time.Second

	// defaultWindowDays is the trailing window used when no range is given.
	defaultWindowDays = 30
)

// SellerService composes the seller dashboard: order KPIs, catalog counts
// and authorization counts from three independent grouped queries. The
// three queries are read-only and mutually independent, so they fan out
// concurrently.
type SellerService struct {
	orderRepo   ports.OrderRepository
	catalogRepo ports.CatalogRepository
	cache       ports.Cache
	logger      ports.Logger

	now func() time.Time
}

// NewSellerService creates a new seller dashboard service
func NewSellerService(
	orderRepo ports.OrderRepository,
	catalogRepo ports.CatalogRepository,
	cache ports.Cache,
	logger ports.Logger,
) *SellerService {
	return &SellerService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// GetSummary returns the seller's KPI summary for the period, defaulting to
// the trailing 30 days. Served from a 60-second cache when fresh.
func (s *SellerService) GetSummary(ctx context.Context, sellerID string, dateRange *domain.DateRange) (*SellerSummary, error) {
	if sellerID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "seller id is required")
	}
	period, err := resolvePeriod(dateRange, s.now())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("dashboard:seller:%s:%s", sellerID, period.Fingerprint())
	var cached SellerSummary
	if cacheGet(ctx, s.cache, s.logger, key, &cached) {
		return &cached, nil
	}

	observability.RecordDashboardQuery("seller")

	var (
		orderStats *ports.SellerOrderStats
		products   *ports.ProductStats
		auths      *ports.AuthorizationStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orderStats, err = s.orderRepo.SellerOrderStats(gctx, nil, sellerID, period)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.catalogRepo.ProductStats(gctx, nil, domain.PartySeller, sellerID)
		return err
	})
	g.Go(func() error {
		var err error
		auths, err = s.catalogRepo.AuthorizationStats(gctx, nil, domain.PartySeller, sellerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Seller dashboard aggregation failed",
			ports.String("seller_id", sellerID),
			ports.Time("period_start", period.From),
			ports.Time("period_end", period.To),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "seller dashboard aggregation failed", err)
	}

	summary := &SellerSummary{
		SellerID:        sellerID,
		Period:          PeriodDTO{From: period.From, To: period.To},
		TotalOrders:     orderStats.TotalOrders,
		TotalRevenue:    orderStats.TotalSales,
		TotalItems:      orderStats.TotalItems,
		TotalCommission: orderStats.TotalCommission,

		ProductTotal:    products.Total,
		ProductActive:   products.Active,
		ProductInactive: products.Inactive,

		AuthorizationsPending:  auths.Pending,
		AuthorizationsApproved: auths.Approved,
		AuthorizationsRejected: auths.Rejected,
	}
	if orderStats.TotalOrders > 0 {
		summary.AverageOrderValue = orderStats.TotalSales.DivRound(decimal.NewFromInt(orderStats.TotalOrders), 8)
	}

	cacheSet(ctx, s.cache, s.logger, key, summary)
	return summary, nil
}

// GetOrders lists the seller's orders with party-filtered sums, aggregated
// in the database and paginated.
func (s *SellerService) GetOrders(ctx context.Context, sellerID string, filter OrderFilter) (*OrderPage, error) {
	return listOrders(ctx, s.orderRepo, s.logger, domain.PartySeller, sellerID, filter, s.now())
}

// listOrders is shared by the seller and supplier dashboards; only the
// party column differs at the repository level.
func listOrders(ctx context.Context, orderRepo ports.OrderRepository, logger ports.Logger, party domain.PartyType, partyID string, filter OrderFilter, now time.Time) (*OrderPage, error) {
	if partyID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "party id is required")
	}

	filter = filter.normalized()
	period, err := resolvePeriod(filter.Range, now)
	if err != nil {
		return nil, err
	}

	repoFilter := ports.OrderListFilter{
		Range:  period,
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}

	summaries, err := orderRepo.ListOrderSummariesForParty(ctx, nil, party, partyID, repoFilter)
	if err != nil {
		logger.Error("Dashboard order listing failed",
			ports.String("party_type", string(party)),
			ports.String("party_id", partyID),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "order listing failed", err)
	}
	total, err := orderRepo.CountOrdersForParty(ctx, nil, party, partyID, repoFilter)
	if err != nil {
		logger.Error("Dashboard order count failed",
			ports.String("party_type", string(party)),
			ports.String("party_id", partyID),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "order count failed", err)
	}

	page := &OrderPage{
		Orders: make([]OrderRow, 0, len(summaries)),
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	for _, row := range summaries {
		page.Orders = append(page.Orders, OrderRow{
			OrderID:     row.OrderID,
			OrderNumber: row.OrderNumber,
			OrderDate:   row.OrderDate,
			Status:      row.Status,
			TotalAmount: row.TotalAmount,
			PartyAmount: row.PartyAmount,
			ItemCount:   row.ItemCount,
		})
	}

	return page, nil
}

// resolvePeriod applies the dashboard default window before normalizing
func resolvePeriod(r *domain.DateRange, now time.Time) (domain.DateRange, error) {
	if r == nil {
		window := domain.LastDays(defaultWindowDays, now)
		r = &window
	}
	return r.Normalize(now)
}

// cacheGet loads and decodes a cached summary; any failure is a miss
func cacheGet(ctx context.Context, cache ports.Cache, logger ports.Logger, key string, out interface{}) bool {
	data, ok, err := cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Cache read failed, falling back to database",
			ports.String("key", key),
			ports.Err(err),
		)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("Cache entry corrupt, falling back to database",
			ports.String("key", key),
			ports.Err(err),
		)
		return false
	}
	return true
}

// cacheSet stores a summary best-effort; failures only log
func cacheSet(ctx context.Context, cache ports.Cache, logger ports.Logger, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Cache encode failed", ports.String("key", key), ports.Err(err))
		return
	}
	if err := cache.Set(ctx, key, data, summaryCacheTTL); err != nil {
		logger.Warn("Cache write failed", ports.String("key", key), ports.Err(err))
	}
}
