package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// summaryCacheTTL bounds how stale a cached aggregation may be
const summaryCacheTTL = 5 * time.Minute

// ReadService answers aggregation questions about commissions and
// settlements. It never computes commission amounts itself; every figure
// comes from snapshots written at order or generation time. Summaries are
// served from cache when fresh, and cache trouble silently degrades to a
// direct query.
type ReadService struct {
	db             ports.DBPort
	orderRepo      ports.OrderRepository
	settlementRepo ports.SettlementRepository
	cache          ports.Cache
	logger         ports.Logger

	now func() time.Time
}

// NewReadService creates a new settlement read service
func NewReadService(
	db ports.DBPort,
	orderRepo ports.OrderRepository,
	settlementRepo ports.SettlementRepository,
	cache ports.Cache,
	logger ports.Logger,
) *ReadService {
	return &ReadService{
		db:             db,
		orderRepo:      orderRepo,
		settlementRepo: settlementRepo,
		cache:          cache,
		logger:         logger,
		now:            time.Now,
	}
}

// GetSellerCommissionSummary aggregates a seller's completed orders in the
// period into per-order commission rows and period totals.
func (s *ReadService) GetSellerCommissionSummary(ctx context.Context, sellerID string, dateRange *domain.DateRange) (*SellerCommissionSummary, error) {
	if sellerID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "seller id is required")
	}
	period, err := dateRange.Normalize(s.now())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("summary:seller:%s:%s", sellerID, period.Fingerprint())
	var cached SellerCommissionSummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.orderRepo.SellerCommissionByOrder(ctx, nil, sellerID, period)
	if err != nil {
		s.logger.Error("Seller commission aggregation failed",
			ports.String("seller_id", sellerID),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "seller commission aggregation failed", err)
	}

	summary := &SellerCommissionSummary{
		SellerID: sellerID,
		Period:   periodDTO(period),
		Orders:   make([]SellerOrderRow, 0, len(rows)),
	}
	for _, row := range rows {
		out := SellerOrderRow{
			OrderID:          row.OrderID,
			OrderNumber:      row.OrderNumber,
			OrderDate:        row.OrderDate,
			SalesAmount:      row.SalesAmount,
			CommissionAmount: row.CommissionAmount,
			NetAmount:        row.SalesAmount.Sub(row.CommissionAmount),
			ItemCount:        row.ItemCount,
		}
		if !row.SalesAmount.IsZero() {
			out.CommissionRate = row.CommissionAmount.Div(row.SalesAmount)
		}
		summary.Orders = append(summary.Orders, out)

		summary.TotalSales = summary.TotalSales.Add(row.SalesAmount)
		summary.TotalCommission = summary.TotalCommission.Add(row.CommissionAmount)
		summary.TotalItems += row.ItemCount
	}
	summary.TotalOrders = int64(len(rows))
	summary.TotalNet = summary.TotalSales.Sub(summary.TotalCommission)
	if !summary.TotalSales.IsZero() {
		summary.AverageCommissionRate = summary.TotalCommission.Div(summary.TotalSales)
	}

	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// GetSupplierCommissionSummary aggregates a supplier's pass-through revenue
// and margin over the period.
func (s *ReadService) GetSupplierCommissionSummary(ctx context.Context, supplierID string, dateRange *domain.DateRange) (*SupplierCommissionSummary, error) {
	if supplierID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "supplier id is required")
	}
	period, err := dateRange.Normalize(s.now())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("summary:supplier:%s:%s", supplierID, period.Fingerprint())
	var cached SupplierCommissionSummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.orderRepo.SupplierRevenueByOrder(ctx, nil, supplierID, period)
	if err != nil {
		s.logger.Error("Supplier revenue aggregation failed",
			ports.String("supplier_id", supplierID),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "supplier revenue aggregation failed", err)
	}

	summary := &SupplierCommissionSummary{
		SupplierID: supplierID,
		Period:     periodDTO(period),
		Orders:     make([]SupplierOrderRow, 0, len(rows)),
	}
	for _, row := range rows {
		summary.Orders = append(summary.Orders, SupplierOrderRow{
			OrderID:     row.OrderID,
			OrderNumber: row.OrderNumber,
			OrderDate:   row.OrderDate,
			Revenue:     row.Revenue,
			Margin:      row.Margin,
			ItemCount:   row.ItemCount,
		})
		summary.TotalRevenue = summary.TotalRevenue.Add(row.Revenue)
		summary.TotalMargin = summary.TotalMargin.Add(row.Margin)
		summary.TotalItems += row.ItemCount
	}
	summary.TotalOrders = int64(len(rows))

	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// GetSettlementSummary groups one party's settlements by status over the
// period: pending, processing and paid totals plus count and latest date.
func (s *ReadService) GetSettlementSummary(ctx context.Context, party domain.PartyType, partyID string, dateRange *domain.DateRange) (*SettlementSummary, error) {
	if !party.Valid() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown party type").
			WithDetail("party_type", string(party))
	}
	if partyID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "party id is required")
	}
	period, err := dateRange.Normalize(s.now())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("summary:settlements:%s:%s:%s", party, partyID, period.Fingerprint())
	var cached SettlementSummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	grouped, err := s.settlementRepo.StatusSummary(ctx, nil, party, partyID, period)
	if err != nil {
		s.logger.Error("Settlement summary aggregation failed",
			ports.String("party_type", string(party)),
			ports.String("party_id", partyID),
			ports.Err(err),
		)
		return nil, domain.WrapError(domain.ErrorCodeAggregationFailed, "settlement summary aggregation failed", err)
	}

	summary := &SettlementSummary{
		PartyType:          party,
		PartyID:            partyID,
		Period:             periodDTO(period),
		TotalPending:       grouped.TotalPending,
		TotalProcessing:    grouped.TotalProcessing,
		TotalPaid:          grouped.TotalPaid,
		SettlementCount:    grouped.SettlementCount,
		LastSettlementDate: grouped.LastSettlementDate,
	}

	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// GetSettlementDetail loads one settlement together with its ledger lines.
// Details are never cached; a settlement's lines are immutable but its
// status is not. Both reads run inside one read-only transaction so a
// concurrent status transition cannot split the snapshot.
func (s *ReadService) GetSettlementDetail(ctx context.Context, id string) (*SettlementDetail, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "settlement id is required")
	}

	var detail SettlementDetail
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		settlement, err := s.settlementRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		items, err := s.settlementRepo.ListItemsBySettlement(ctx, tx, id)
		if err != nil {
			return err
		}
		if items == nil {
			items = []*domain.SettlementItem{}
		}
		detail = SettlementDetail{Settlement: settlement, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

// GetSettlementsForParty lists a party's settlements newest first, filtered
// by status and date and paginated. Listings are not cached; they are cheap
// and page churn would thrash the cache.
func (s *ReadService) GetSettlementsForParty(ctx context.Context, party domain.PartyType, partyID string, opts ListOptions) (*SettlementPage, error) {
	if !party.Valid() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown party type").
			WithDetail("party_type", string(party))
	}
	if partyID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "party id is required")
	}

	opts = opts.normalized()
	period, err := opts.Range.Normalize(s.now())
	if err != nil {
		return nil, err
	}

	filter := ports.SettlementListFilter{
		Range:  period,
		Status: opts.Status,
		Page:   opts.Page,
		Limit:  opts.Limit,
	}

	settlements, err := s.settlementRepo.ListByParty(ctx, nil, party, partyID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.settlementRepo.CountByParty(ctx, nil, party, partyID, filter)
	if err != nil {
		return nil, err
	}

	if settlements == nil {
		settlements = []*domain.Settlement{}
	}

	return &SettlementPage{
		Settlements: settlements,
		Total:       total,
		Page:        opts.Page,
		Limit:       opts.Limit,
	}, nil
}

// cacheGet loads and decodes a cached summary. Any cache problem counts as
// a miss; the caller recomputes from the database.
func (s *ReadService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to database",
			ports.String("key", key),
			ports.Err(err),
		)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("Cache entry corrupt, falling back to database",
			ports.String("key", key),
			ports.Err(err),
		)
		return false
	}
	return true
}

// cacheSet stores a summary best-effort; failures only log
func (s *ReadService) cacheSet(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Cache encode failed", ports.String("key", key), ports.Err(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, summaryCacheTTL); err != nil {
		s.logger.Warn("Cache write failed", ports.String("key", key), ports.Err(err))
	}
}
