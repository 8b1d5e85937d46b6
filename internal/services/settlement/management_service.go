package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
	"github.com/marketbridge/settlement-service/pkg/observability"
	"github.com/marketbridge/settlement-service/pkg/timeutil"
)

// ManagementService generates settlements from completed orders and drives
// them through the payout lifecycle. All monetary math happens here, at
// generation time; the read side only ever reports what was persisted.
type ManagementService struct {
	db             ports.DBPort
	orderRepo      ports.OrderRepository
	settlementRepo ports.SettlementRepository
	policy         domain.CommissionPolicy
	logger         ports.Logger

	now   func() time.Time
	newID func() string
}

// NewManagementService creates a new settlement management service
func NewManagementService(
	db ports.DBPort,
	orderRepo ports.OrderRepository,
	settlementRepo ports.SettlementRepository,
	policy domain.CommissionPolicy,
	logger ports.Logger,
) *ManagementService {
	return &ManagementService{
		db:             db,
		orderRepo:      orderRepo,
		settlementRepo: settlementRepo,
		policy:         policy,
		logger:         logger,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// GenerationResult reports what a generation run produced
type GenerationResult struct {
	Settlements []*domain.Settlement
	Items       []*domain.SettlementItem
	Diagnostics GenerationDiagnostics
}

// GenerationDiagnostics summarizes a generation run for operators
type GenerationDiagnostics struct {
	OrdersProcessed int
	OrdersSkipped   int
	ItemsProcessed  int
	TotalsByParty   map[domain.PartyType]decimal.Decimal

	// Failures lists orders whose settlements could not be written.
	// Their amounts are excluded from the totals above.
	Failures []OrderFailure
}

// OrderFailure is one order a batch run could not settle
type OrderFailure struct {
	OrderID string
	Err     error
}

func newDiagnostics() GenerationDiagnostics {
	return GenerationDiagnostics{TotalsByParty: make(map[domain.PartyType]decimal.Decimal)}
}

func (d *GenerationDiagnostics) record(s *domain.Settlement) {
	d.TotalsByParty[s.PartyType] = d.TotalsByParty[s.PartyType].Add(s.PayableAmount)
}

// PeriodConfig configures a batch generation run
type PeriodConfig struct {
	// Range bounds the order dates considered; open bounds use the
	// default reporting window.
	Range *domain.DateRange

	// DryRun computes settlements and diagnostics without persisting.
	DryRun bool
}

// GenerateSettlement computes and persists the settlements for one paid
// order: one ledger entry per distinct beneficiary, written atomically.
// A second call for the same order returns SETTLEMENT_DUPLICATE.
func (s *ManagementService) GenerateSettlement(ctx context.Context, orderID string) (*GenerationResult, error) {
	if orderID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "order id is required")
	}

	started := time.Now()

	order, err := s.orderRepo.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsSettleable() {
		observability.RecordGenerationDuration("rejected", time.Since(started).Seconds())
		s.logger.Warn("Rejected settlement generation for unpaid order",
			ports.String("order_id", orderID),
			ports.String("payment_status", string(order.PaymentStatus)),
		)
		return nil, domain.NewDomainError(domain.ErrorCodeOrderNotSettleable, "order payment is not completed").
			WithDetail("order_id", orderID)
	}

	result := &GenerationResult{Diagnostics: newDiagnostics()}
	s.appendForOrder(result, order)
	result.Diagnostics.OrdersProcessed = 1
	result.Diagnostics.ItemsProcessed = len(order.Items)

	if err := s.persist(ctx, result.Settlements, result.Items); err != nil {
		observability.RecordGenerationDuration("failed", time.Since(started).Seconds())
		return nil, err
	}

	observability.RecordGenerationDuration("generated", time.Since(started).Seconds())
	s.logger.Info("Generated settlements for order",
		ports.String("order_id", orderID),
		ports.Int("settlements", len(result.Settlements)),
		ports.Int("items", len(result.Items)),
	)

	return result, nil
}

// GenerateForPeriod runs generation across every payment-completed order in
// the period. Orders that already have settlements are skipped and orders
// whose write fails are reported in the diagnostics without stopping the
// batch, so the run is safe to repeat after a partial failure. With DryRun
// set everything is computed and reported but nothing is written.
func (s *ManagementService) GenerateForPeriod(ctx context.Context, cfg PeriodConfig) (*GenerationResult, error) {
	period, err := cfg.Range.Normalize(s.now())
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListCompletedInPeriod(ctx, nil, period)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{Diagnostics: newDiagnostics()}

	for _, order := range orders {
		exists, err := s.settlementRepo.ExistsForOrder(ctx, nil, order.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Diagnostics.OrdersSkipped++
			continue
		}

		staged := &GenerationResult{Diagnostics: newDiagnostics()}
		s.appendForOrder(staged, order)

		// Each order commits in its own transaction; a failed order is
		// reported and the batch moves on, leaving it for a rerun.
		if !cfg.DryRun {
			if err := s.persist(ctx, staged.Settlements, staged.Items); err != nil {
				s.logger.Error("Settlement generation failed for order, continuing batch",
					ports.String("order_id", order.ID),
					ports.Err(err),
				)
				result.Diagnostics.Failures = append(result.Diagnostics.Failures,
					OrderFailure{OrderID: order.ID, Err: err})
				continue
			}
		}

		result.Settlements = append(result.Settlements, staged.Settlements...)
		result.Items = append(result.Items, staged.Items...)
		for party, amount := range staged.Diagnostics.TotalsByParty {
			result.Diagnostics.TotalsByParty[party] = result.Diagnostics.TotalsByParty[party].Add(amount)
		}
		result.Diagnostics.OrdersProcessed++
		result.Diagnostics.ItemsProcessed += len(order.Items)
	}

	s.logger.Info("Period settlement generation finished",
		ports.Time("period_start", period.From),
		ports.Time("period_end", period.To),
		ports.Int("orders_processed", result.Diagnostics.OrdersProcessed),
		ports.Int("orders_skipped", result.Diagnostics.OrdersSkipped),
		ports.Int("orders_failed", len(result.Diagnostics.Failures)),
		ports.Int("settlements", len(result.Settlements)),
	)

	return result, nil
}

// FinalizeSettlement moves a pending settlement to processing
func (s *ManagementService) FinalizeSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	return s.transition(ctx, id, "finalize", func(st *domain.Settlement) error {
		return st.Finalize()
	})
}

// MarkAsPaid moves a pending or processing settlement to paid
func (s *ManagementService) MarkAsPaid(ctx context.Context, id string) (*domain.Settlement, error) {
	return s.transition(ctx, id, "mark paid", func(st *domain.Settlement) error {
		return st.MarkPaid(s.now())
	})
}

// CancelSettlement aborts a pending or processing settlement
func (s *ManagementService) CancelSettlement(ctx context.Context, id, reason string) (*domain.Settlement, error) {
	return s.transition(ctx, id, "cancel", func(st *domain.Settlement) error {
		return st.Cancel(reason)
	})
}

// transition loads the settlement, applies the state change and persists it
// in one transaction so concurrent transitions cannot interleave.
func (s *ManagementService) transition(ctx context.Context, id, action string, apply func(*domain.Settlement) error) (*domain.Settlement, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "settlement id is required")
	}

	var settlement *domain.Settlement
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		loaded, err := s.settlementRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(loaded); err != nil {
			return err
		}
		loaded.UpdatedAt = s.now()
		if err := s.settlementRepo.UpdateStatus(ctx, tx, loaded); err != nil {
			return err
		}
		settlement = loaded
		return nil
	})
	if err != nil {
		if domain.IsInvalidStateError(err) {
			observability.RecordTransition(action, false)
			s.logger.Warn("Rejected settlement transition",
				ports.String("settlement_id", id),
				ports.String("action", action),
				ports.Err(err),
			)
		}
		return nil, err
	}

	observability.RecordTransition(action, true)
	s.logger.Info("Settlement transitioned",
		ports.String("settlement_id", id),
		ports.String("action", action),
		ports.String("status", string(settlement.Status)),
	)

	return settlement, nil
}

// appendForOrder computes the order's settlements (one per distinct party,
// zero-amount parties skipped) and appends them to the result.
func (s *ManagementService) appendForOrder(result *GenerationResult, order *domain.Order) {
	type partyAccount struct {
		party  domain.PartyType
		id     string
		amount decimal.Decimal
		items  []*domain.SettlementItem
	}

	accounts := make(map[string]*partyAccount)
	var keys []string

	add := func(party domain.PartyType, partyID string, amount decimal.Decimal, item *domain.OrderItem, reason string) {
		key := string(party) + ":" + partyID
		acct, ok := accounts[key]
		if !ok {
			acct = &partyAccount{party: party, id: partyID}
			accounts[key] = acct
			keys = append(keys, key)
		}
		acct.amount = acct.amount.Add(amount)
		acct.items = append(acct.items, &domain.SettlementItem{
			OrderID:           order.ID,
			OrderItemID:       item.ID,
			ProductName:       item.ProductName,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			TotalPrice:        item.TotalPrice,
			BasePriceSnapshot: item.BasePriceSnapshot,
			CommissionAmount:  s.policy.SellerCommission(item),
			PartyType:         party,
			PartyID:           partyID,
			GrossAmount:       item.TotalPrice,
			NetAmount:         amount,
			ReasonCode:        reason,
		})
	}

	for i := range order.Items {
		item := &order.Items[i]
		add(domain.PartySeller, item.SellerID, s.policy.SellerNet(item), item, domain.ReasonSale)
		add(domain.PartySupplier, item.SupplierID, item.SupplierAmount(), item, domain.ReasonSupplyCost)
		if item.HasPartner() {
			add(domain.PartyPartner, *item.PartnerID, s.policy.PartnerCommission(item), item, domain.ReasonReferral)
		}
		add(domain.PartyPlatform, domain.PlatformAccountID, s.policy.PlatformFee(item), item, domain.ReasonPlatformFee)
	}

	now := s.now()
	periodStart := timeutil.StartOfDay(order.OrderDate)
	periodEnd := timeutil.EndOfDay(order.OrderDate)

	for _, key := range keys {
		acct := accounts[key]
		if acct.amount.IsZero() {
			continue
		}

		settlement := &domain.Settlement{
			ID:            s.newID(),
			PartyType:     acct.party,
			PartyID:       acct.id,
			PayableAmount: acct.amount,
			Status:        domain.SettlementStatusPending,
			PeriodStart:   periodStart,
			PeriodEnd:     periodEnd,
			SourceOrderID: order.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		result.Settlements = append(result.Settlements, settlement)
		result.Diagnostics.record(settlement)

		for _, item := range acct.items {
			item.ID = s.newID()
			item.SettlementID = settlement.ID
			item.CreatedAt = now
			result.Items = append(result.Items, item)
		}
	}
}

// persist writes settlements and their items in one transaction
func (s *ManagementService) persist(ctx context.Context, settlements []*domain.Settlement, items []*domain.SettlementItem) error {
	if len(settlements) == 0 {
		return nil
	}

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, settlement := range settlements {
			if err := s.settlementRepo.CreateSettlement(ctx, tx, settlement); err != nil {
				return err
			}
		}
		return s.settlementRepo.CreateItems(ctx, tx, items)
	})
	if err != nil {
		return err
	}

	for _, settlement := range settlements {
		observability.RecordSettlementGenerated(string(settlement.PartyType), settlement.PayableAmount)
	}
	return nil
}
