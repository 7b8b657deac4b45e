package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/internal/clock"
	"github.com/rsudds/bludpay/internal/reqcontext"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  taxdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  taxdomain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		log:   p.Log.Named("taxrule.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func NewResolver(s *Service) taxdomain.Resolver { return s }

func NewCalculator(s *Service) taxdomain.Calculator { return s }

func NewManagement(s *Service) taxdomain.Service { return s }

// Resolve picks the active rule with the longest pattern prefixing the
// account code on the given date. Equal-length patterns resolve to the most
// recently created rule. A nil result means the account is non-taxable.
func (s *Service) Resolve(ctx context.Context, accountCode string, date time.Time) (*taxdomain.TaxRule, error) {
	accountCode = strings.TrimSpace(accountCode)
	if accountCode == "" {
		return nil, nil
	}

	candidates, err := s.repo.FindEffective(ctx, date)
	if err != nil {
		return nil, err
	}
	return bestMatch(candidates, accountCode), nil
}

func bestMatch(candidates []taxdomain.TaxRule, accountCode string) *taxdomain.TaxRule {
	var best *taxdomain.TaxRule
	for i := range candidates {
		rule := &candidates[i]
		if !rule.Matches(accountCode) {
			continue
		}
		if best == nil || betterMatch(rule, best) {
			best = rule
		}
	}
	return best
}

func betterMatch(candidate, current *taxdomain.TaxRule) bool {
	cl, bl := len(candidate.AccountCodePattern), len(current.AccountCodePattern)
	if cl != bl {
		return cl > bl
	}
	if !candidate.CreatedAt.Equal(current.CreatedAt) {
		return candidate.CreatedAt.After(current.CreatedAt)
	}
	return candidate.ID > current.ID
}

// Calculate resolves the rule for the input and computes the deduction
// breakdown. A missing rule degrades to zero tax, never to an error.
func (s *Service) Calculate(ctx context.Context, input taxdomain.CalculationInput) (taxdomain.Breakdown, error) {
	if input.GrossAmount <= 0 {
		return taxdomain.Breakdown{}, taxdomain.ErrInvalidGrossAmount
	}

	date := s.calculationDate(input)
	rule, err := s.Resolve(ctx, input.AccountCode, date)
	if err != nil {
		return taxdomain.Breakdown{}, err
	}
	return breakdownFor(input, rule), nil
}

// CalculateTx is Calculate with rule resolution on the caller's transaction.
// Callers already holding a connection must use this form; resolving on the
// root pool from inside a transaction blocks when the pool is exhausted.
func (s *Service) CalculateTx(ctx context.Context, tx *gorm.DB, input taxdomain.CalculationInput) (taxdomain.Breakdown, error) {
	if input.GrossAmount <= 0 {
		return taxdomain.Breakdown{}, taxdomain.ErrInvalidGrossAmount
	}

	date := s.calculationDate(input)
	candidates, err := s.repo.FindEffectiveTx(ctx, tx, date)
	if err != nil {
		return taxdomain.Breakdown{}, err
	}
	rule := bestMatch(candidates, strings.TrimSpace(input.AccountCode))
	return breakdownFor(input, rule), nil
}

func (s *Service) calculationDate(input taxdomain.CalculationInput) time.Time {
	if input.TransactionDate != nil {
		return *input.TransactionDate
	}
	return s.clock.Now()
}

func breakdownFor(input taxdomain.CalculationInput, rule *taxdomain.TaxRule) taxdomain.Breakdown {
	breakdown := taxdomain.Breakdown{
		NetPayment:   input.GrossAmount,
		GrossInWords: AmountInWords(input.GrossAmount),
	}
	if rule == nil {
		return breakdown
	}

	ruleID := rule.ID
	breakdown.RuleID = &ruleID

	pph23Rate := rule.PPh23Rate
	if !hasVendorTaxID(input.VendorTaxID) {
		// Without an NPWP the PPh 23 withholding rate doubles.
		pph23Rate *= 2
	}

	breakdown.PPN = component(input.GrossAmount, rule.PPNRate)
	breakdown.PPh21 = component(input.GrossAmount, rule.PPh21Rate)
	breakdown.PPh22 = component(input.GrossAmount, rule.PPh22Rate)
	breakdown.PPh23 = component(input.GrossAmount, pph23Rate)
	breakdown.PPh26 = component(input.GrossAmount, rule.PPh26Rate)
	breakdown.PPhFinal = component(input.GrossAmount, rule.PPhFinalRate)

	if rule.HasRegionalTax {
		breakdown.HasRegionalTax = true
		breakdown.RegionalTaxEstimate = component(input.GrossAmount, rule.RegionalTaxRate)
	}

	breakdown.TotalDeductions = breakdown.PPN.Amount +
		breakdown.PPh21.Amount +
		breakdown.PPh22.Amount +
		breakdown.PPh23.Amount +
		breakdown.PPh26.Amount +
		breakdown.PPhFinal.Amount
	breakdown.NetPayment = input.GrossAmount - breakdown.TotalDeductions

	return breakdown
}

func component(gross int64, rate float64) taxdomain.Component {
	return taxdomain.Component{
		Rate:   rate,
		Amount: roundHalfUp(gross, rate),
	}
}

// roundHalfUp computes gross*rate/100 rounded half-up to the nearest rupiah.
func roundHalfUp(gross int64, rate float64) int64 {
	if gross <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(gross)*rate/100 + 0.5))
}

func hasVendorTaxID(npwp *string) bool {
	return npwp != nil && strings.TrimSpace(*npwp) != ""
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.TaxRule, error) {
	now := s.clock.Now()
	rule := taxdomain.TaxRule{
		ID:                 s.genID.Generate(),
		AccountCodePattern: strings.TrimSpace(req.AccountCodePattern),
		PPNRate:            req.PPNRate,
		PPh21Rate:          req.PPh21Rate,
		PPh22Rate:          req.PPh22Rate,
		PPh23Rate:          req.PPh23Rate,
		PPh26Rate:          req.PPh26Rate,
		PPhFinalRate:       req.PPhFinalRate,
		HasRegionalTax:     req.HasRegionalTax,
		RegionalTaxRate:    req.RegionalTaxRate,
		IsActive:           true,
		EffectiveFrom:      req.EffectiveFrom.UTC(),
		EffectiveTo:        req.EffectiveTo,
		Notes:              req.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if actor, ok := reqcontext.ActorFromContext(ctx); ok {
		rule.CreatedBy = actor.UserID
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &rule); err != nil {
		return nil, err
	}
	s.log.Info("tax rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("pattern", rule.AccountCodePattern),
	)
	return &rule, nil
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.TaxRule, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.TaxRule, error) {
	rule, err := s.loadByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.PPNRate != nil {
		rule.PPNRate = *req.PPNRate
	}
	if req.PPh21Rate != nil {
		rule.PPh21Rate = *req.PPh21Rate
	}
	if req.PPh22Rate != nil {
		rule.PPh22Rate = *req.PPh22Rate
	}
	if req.PPh23Rate != nil {
		rule.PPh23Rate = *req.PPh23Rate
	}
	if req.PPh26Rate != nil {
		rule.PPh26Rate = *req.PPh26Rate
	}
	if req.PPhFinalRate != nil {
		rule.PPhFinalRate = *req.PPhFinalRate
	}
	if req.HasRegionalTax != nil {
		rule.HasRegionalTax = *req.HasRegionalTax
	}
	if req.RegionalTaxRate != nil {
		rule.RegionalTaxRate = *req.RegionalTaxRate
	}
	if req.EffectiveTo != nil {
		rule.EffectiveTo = req.EffectiveTo
	}
	if req.Notes != nil {
		rule.Notes = req.Notes
	}
	rule.UpdatedAt = s.clock.Now()

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*taxdomain.TaxRule, error) {
	rule, err := s.loadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rule.IsActive = false
	rule.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) loadByID(ctx context.Context, raw string) (*taxdomain.TaxRule, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, taxdomain.ErrNotFound
	}
	return rule, nil
}
