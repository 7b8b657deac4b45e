package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	budgetdomain "github.com/rsudds/bludpay/internal/budget/domain"
	"github.com/rsudds/bludpay/internal/clock"
	coadomain "github.com/rsudds/bludpay/internal/coa/domain"
	"github.com/rsudds/bludpay/internal/config"
	"github.com/rsudds/bludpay/internal/observability/metrics"
	"github.com/rsudds/bludpay/internal/reqcontext"
	seqdomain "github.com/rsudds/bludpay/internal/sequence/domain"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
	"github.com/rsudds/bludpay/internal/voucher/domain"
	"github.com/rsudds/bludpay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  config.Config
	Metrics *metrics.Metrics `optional:"true"`

	Repo       domain.Repository
	Budget     budgetdomain.Service
	Calculator taxdomain.Calculator
	Sequencer  seqdomain.Service
	Audit      auditdomain.Service
	Accounts   coadomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	unitCode string
	metrics  *metrics.Metrics

	repo       domain.Repository
	budget     budgetdomain.Service
	calculator taxdomain.Calculator
	sequencer  seqdomain.Service
	audit      auditdomain.Service
	accounts   coadomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("voucher.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		unitCode:   p.Config.UnitCode,
		metrics:    p.Metrics,
		repo:       p.Repo,
		budget:     p.Budget,
		calculator: p.Calculator,
		sequencer:  p.Sequencer,
		audit:      p.Audit,
		accounts:   p.Accounts,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.PaymentVoucher, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	fiscalYear := req.VoucherDate.Year()
	month := int(req.VoucherDate.Month())

	voucher := &domain.PaymentVoucher{
		ID:               s.genID.Generate(),
		FiscalYear:       fiscalYear,
		Month:            month,
		VoucherDate:      req.VoucherDate,
		ProgramID:        req.ProgramID,
		ProgramName:      req.ProgramName,
		ActivityID:       req.ActivityID,
		ActivityName:     req.ActivityName,
		SubActivityID:    req.SubActivityID,
		SubActivityName:  req.SubActivityName,
		AccountCode:      req.AccountCode,
		AccountName:      req.AccountName,
		PayeeName:        req.PayeeName,
		PayeeBankAccount: req.PayeeBankAccount,
		VendorTaxID:      req.VendorTaxID,
		InvoiceNumber:    req.InvoiceNumber,
		Description:      req.Description,
		GrossAmount:      req.GrossAmount,
		Status:           domain.StatusDraft,
		CreatedBy:        s.actor(ctx),
		CreatedAt:        now,
		UpdatedBy:        s.actor(ctx),
		UpdatedAt:        now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.budget.LockBucket(ctx, tx, req.ActivityID, req.AccountCode, fiscalYear); err != nil {
			return err
		}

		budgetResult, err := s.budget.ValidateTx(ctx, tx, budgetdomain.ValidateRequest{
			ActivityID:      req.ActivityID,
			SubActivityID:   req.SubActivityID,
			AccountCode:     req.AccountCode,
			FiscalYear:      fiscalYear,
			Month:           month,
			RequestedAmount: req.GrossAmount,
		})
		if err != nil {
			return err
		}
		applyBudget(voucher, budgetResult)

		breakdown, err := s.calculator.CalculateTx(ctx, tx, taxdomain.CalculationInput{
			AccountCode:     req.AccountCode,
			GrossAmount:     req.GrossAmount,
			VendorTaxID:     req.VendorTaxID,
			TransactionDate: &req.VoucherDate,
		})
		if err != nil {
			return err
		}
		applyBreakdown(voucher, breakdown)

		s.fillAccountName(ctx, tx, voucher)

		// Numbering runs last so validation failures never burn a number.
		number, err := s.sequencer.Next(ctx, tx, seqdomain.NextRequest{
			FiscalYear:  fiscalYear,
			Month:       month,
			AccountCode: req.AccountCode,
			UnitCode:    s.unitCode,
		})
		if err != nil {
			return err
		}
		voucher.SequenceNumber = number.Sequence
		voucher.DocumentNumber = number.DocumentNumber

		if err := s.repo.Insert(ctx, tx, voucher); err != nil {
			return err
		}
		if err := s.repo.InsertSignatories(ctx, tx, s.buildSignatories(voucher.ID, req.Signatories)); err != nil {
			return err
		}

		return s.audit.Append(ctx, tx, auditdomain.Entry{
			VoucherID: voucher.ID,
			Action:    auditdomain.ActionCreated,
			NewStatus: statusPtr(domain.StatusDraft),
			Metadata: map[string]any{
				"document_number": voucher.DocumentNumber,
				"gross_amount":    voucher.GrossAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVoucherCreated()
	s.log.Info("voucher created",
		zap.String("voucher_id", voucher.ID.String()),
		zap.String("document_number", voucher.DocumentNumber),
		zap.Int64("gross_amount", voucher.GrossAmount))
	return voucher, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.PaymentVoucher, error) {
	if req.ID == 0 {
		return nil, domain.ErrInvalidID
	}
	if req.Signatories != nil {
		if err := validateSignatories(*req.Signatories); err != nil {
			return nil, err
		}
	}

	var voucher *domain.PaymentVoucher
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		voucher, err = s.repo.FindByID(ctx, tx, req.ID, true)
		if err != nil {
			return err
		}
		if !voucher.IsDraft() {
			return domain.ErrNotDraft
		}

		revalidate, err := applyPatch(voucher, req)
		if err != nil {
			return err
		}

		if revalidate {
			if voucher.GrossAmount <= 0 {
				return domain.ErrInvalidGrossAmount
			}
			if err := s.budget.LockBucket(ctx, tx, voucher.ActivityID, voucher.AccountCode, voucher.FiscalYear); err != nil {
				return err
			}
			budgetResult, err := s.budget.ValidateTx(ctx, tx, budgetdomain.ValidateRequest{
				ActivityID:       voucher.ActivityID,
				SubActivityID:    voucher.SubActivityID,
				AccountCode:      voucher.AccountCode,
				FiscalYear:       voucher.FiscalYear,
				Month:            voucher.Month,
				RequestedAmount:  voucher.GrossAmount,
				ExcludeVoucherID: voucher.ID,
			})
			if err != nil {
				return err
			}
			applyBudget(voucher, budgetResult)

			breakdown, err := s.calculator.CalculateTx(ctx, tx, taxdomain.CalculationInput{
				AccountCode:     voucher.AccountCode,
				GrossAmount:     voucher.GrossAmount,
				VendorTaxID:     voucher.VendorTaxID,
				TransactionDate: &voucher.VoucherDate,
			})
			if err != nil {
				return err
			}
			applyBreakdown(voucher, breakdown)
		}

		voucher.UpdatedBy = s.actor(ctx)
		voucher.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, voucher); err != nil {
			return err
		}

		if req.Signatories != nil {
			if err := s.repo.ReplaceSignatories(ctx, tx, voucher.ID, s.buildSignatories(voucher.ID, *req.Signatories)); err != nil {
				return err
			}
		}

		return s.audit.Append(ctx, tx, auditdomain.Entry{
			VoucherID: voucher.ID,
			Action:    auditdomain.ActionUpdated,
			OldStatus: statusPtr(domain.StatusDraft),
			NewStatus: statusPtr(domain.StatusDraft),
			Metadata: map[string]any{
				"gross_amount": voucher.GrossAmount,
				"revalidated":  revalidate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *Service) Finalize(ctx context.Context, id snowflake.ID) (*domain.PaymentVoucher, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}

	var voucher *domain.PaymentVoucher
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		voucher, err = s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !voucher.IsDraft() {
			return domain.ErrNotDraft
		}
		if voucher.CreatedBy != s.actor(ctx) {
			return domain.ErrNotCreator
		}

		if err := s.budget.LockBucket(ctx, tx, voucher.ActivityID, voucher.AccountCode, voucher.FiscalYear); err != nil {
			return err
		}
		budgetResult, err := s.budget.ValidateTx(ctx, tx, budgetdomain.ValidateRequest{
			ActivityID:       voucher.ActivityID,
			SubActivityID:    voucher.SubActivityID,
			AccountCode:      voucher.AccountCode,
			FiscalYear:       voucher.FiscalYear,
			Month:            voucher.Month,
			RequestedAmount:  voucher.GrossAmount,
			ExcludeVoucherID: voucher.ID,
		})
		if err != nil {
			return err
		}
		applyBudget(voucher, budgetResult)

		now := s.clock.Now()
		voucher.Status = domain.StatusFinal
		voucher.FinalizedAt = &now
		voucher.UpdatedBy = s.actor(ctx)
		voucher.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, voucher); err != nil {
			return err
		}

		return s.audit.Append(ctx, tx, auditdomain.Entry{
			VoucherID: voucher.ID,
			Action:    auditdomain.ActionUpdated,
			OldStatus: statusPtr(domain.StatusDraft),
			NewStatus: statusPtr(domain.StatusFinal),
			Metadata: map[string]any{
				"document_number": voucher.DocumentNumber,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVoucherFinalized()
	s.log.Info("voucher finalized",
		zap.String("voucher_id", voucher.ID.String()),
		zap.String("document_number", voucher.DocumentNumber))
	return voucher, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return domain.ErrInvalidID
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		voucher, err := s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !voucher.IsDraft() {
			return domain.ErrNotDraft
		}

		now := s.clock.Now()
		actor := s.actor(ctx)
		voucher.DeletedBy = &actor
		voucher.DeletedAt = &now
		voucher.UpdatedBy = actor
		voucher.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, voucher); err != nil {
			return err
		}

		return s.audit.Append(ctx, tx, auditdomain.Entry{
			VoucherID: voucher.ID,
			Action:    auditdomain.ActionDeleted,
			OldStatus: statusPtr(domain.StatusDraft),
			Metadata: map[string]any{
				"document_number": voucher.DocumentNumber,
			},
		})
	})
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.PaymentVoucher, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.FindByID(ctx, s.db, id, false)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, req, int(pageSize)+1)
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.PaymentVoucher) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	vouchers := make([]domain.PaymentVoucher, 0, len(items))
	for _, item := range items {
		vouchers = append(vouchers, *item)
	}

	resp := domain.ListResponse{Vouchers: vouchers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// LinkPaymentRequest records the downstream payment request exactly once.
func (s *Service) LinkPaymentRequest(ctx context.Context, id, paymentRequestID snowflake.ID) (*domain.PaymentVoucher, error) {
	if id == 0 || paymentRequestID == 0 {
		return nil, domain.ErrInvalidID
	}

	var voucher *domain.PaymentVoucher
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		voucher, err = s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if voucher.Status != domain.StatusFinal {
			return domain.ErrNotFinal
		}
		if voucher.PaymentRequestID != nil {
			return domain.ErrAlreadyLinked
		}

		voucher.PaymentRequestID = &paymentRequestID
		voucher.UpdatedBy = s.actor(ctx)
		voucher.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, voucher); err != nil {
			return err
		}

		return s.audit.Append(ctx, tx, auditdomain.Entry{
			VoucherID: voucher.ID,
			Action:    auditdomain.ActionUpdated,
			OldStatus: statusPtr(domain.StatusFinal),
			NewStatus: statusPtr(domain.StatusFinal),
			Metadata: map[string]any{
				"payment_request_id": paymentRequestID.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *Service) PrintView(ctx context.Context, id snowflake.ID) (*domain.PrintView, error) {
	voucher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher.Status != domain.StatusFinal {
		return nil, domain.ErrNotFinal
	}

	signatories, err := s.repo.Signatories(ctx, s.db, voucher.ID)
	if err != nil {
		return nil, err
	}

	return &domain.PrintView{
		Voucher:     *voucher,
		Breakdown:   breakdownFromVoucher(voucher),
		Budget:      budgetFromVoucher(voucher),
		Signatories: signatories,
	}, nil
}

func (s *Service) VerificationPayload(ctx context.Context, id snowflake.ID) (domain.VerificationPayload, error) {
	voucher, err := s.Get(ctx, id)
	if err != nil {
		return domain.VerificationPayload{}, err
	}
	if voucher.Status != domain.StatusFinal {
		return domain.VerificationPayload{}, domain.ErrNotFinal
	}

	return domain.VerificationPayload{
		VoucherID:      voucher.ID,
		DocumentNumber: voucher.DocumentNumber,
		FiscalYear:     voucher.FiscalYear,
		GrossAmount:    voucher.GrossAmount,
		VoucherDate:    voucher.VoucherDate,
	}, nil
}

// Verify answers the public QR scan. Unknown, deleted and still-draft
// vouchers all come back invalid without detail.
func (s *Service) Verify(ctx context.Context, id snowflake.ID) (domain.VerificationResult, error) {
	if id == 0 {
		return domain.VerificationResult{}, nil
	}
	voucher, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		if err == domain.ErrNotFound {
			return domain.VerificationResult{}, nil
		}
		return domain.VerificationResult{}, err
	}
	if voucher.Status != domain.StatusFinal {
		return domain.VerificationResult{}, nil
	}

	return domain.VerificationResult{
		IsValid:    true,
		TargetType: "payment_voucher",
		TargetID:   voucher.ID.String(),
	}, nil
}

func (s *Service) actor(ctx context.Context) string {
	if actor, ok := reqcontext.ActorFromContext(ctx); ok {
		return actor.UserID
	}
	return "system"
}

// fillAccountName prefers the chart-of-accounts display name; lookup
// failures keep the name supplied by the caller. The lookup runs on the
// caller's transaction handle so it never waits on a second connection.
func (s *Service) fillAccountName(ctx context.Context, tx *gorm.DB, voucher *domain.PaymentVoucher) {
	name, err := s.accounts.LeafName(ctx, tx, voucher.AccountCode)
	if err != nil {
		s.log.Warn("account name lookup failed",
			zap.String("account_code", voucher.AccountCode),
			zap.Error(err))
		return
	}
	if name != "" {
		voucher.AccountName = name
	}
}

func (s *Service) buildSignatories(voucherID snowflake.ID, inputs []domain.SignatoryInput) []domain.Signatory {
	rows := make([]domain.Signatory, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, domain.Signatory{
			ID:        s.genID.Generate(),
			VoucherID: voucherID,
			Role:      input.Role,
			UserID:    input.UserID,
			Name:      input.Name,
			IDNumber:  input.IDNumber,
		})
	}
	return rows
}

func validateCreate(req domain.CreateRequest) error {
	if req.VoucherDate.IsZero() {
		return domain.ErrInvalidVoucherDate
	}
	if req.ProgramID == 0 {
		return domain.ErrInvalidProgram
	}
	if req.ActivityID == 0 {
		return domain.ErrInvalidActivity
	}
	if req.AccountCode == "" {
		return domain.ErrInvalidAccountCode
	}
	if req.PayeeName == "" {
		return domain.ErrInvalidPayeeName
	}
	if req.GrossAmount <= 0 {
		return domain.ErrInvalidGrossAmount
	}
	return validateSignatories(req.Signatories)
}

func validateSignatories(inputs []domain.SignatoryInput) error {
	seen := map[string]bool{}
	for _, input := range inputs {
		if !domain.ValidRole(input.Role) {
			return domain.ErrInvalidSignatoryRole
		}
		if seen[input.Role] {
			return domain.ErrDuplicateSignatory
		}
		seen[input.Role] = true
	}
	return nil
}

// applyPatch copies set fields onto the voucher and reports whether budget
// and tax need re-running. The voucher date may only move within the issued
// month; the document number encodes month and fiscal year and is immutable.
func applyPatch(voucher *domain.PaymentVoucher, req domain.UpdateRequest) (bool, error) {
	revalidate := false

	if req.VoucherDate != nil && !req.VoucherDate.IsZero() {
		if req.VoucherDate.Year() != voucher.FiscalYear || int(req.VoucherDate.Month()) != voucher.Month {
			return false, domain.ErrVoucherPeriodChange
		}
		voucher.VoucherDate = *req.VoucherDate
		revalidate = true
	}
	if req.AccountCode != nil && *req.AccountCode != "" && *req.AccountCode != voucher.AccountCode {
		voucher.AccountCode = *req.AccountCode
		revalidate = true
	}
	if req.AccountName != nil {
		voucher.AccountName = *req.AccountName
	}
	if req.PayeeName != nil && *req.PayeeName != "" {
		voucher.PayeeName = *req.PayeeName
	}
	if req.PayeeBankAccount != nil {
		voucher.PayeeBankAccount = req.PayeeBankAccount
	}
	if req.VendorTaxID != nil {
		voucher.VendorTaxID = req.VendorTaxID
		revalidate = true
	}
	if req.InvoiceNumber != nil {
		voucher.InvoiceNumber = req.InvoiceNumber
	}
	if req.Description != nil {
		voucher.Description = *req.Description
	}
	if req.GrossAmount != nil && *req.GrossAmount != voucher.GrossAmount {
		voucher.GrossAmount = *req.GrossAmount
		revalidate = true
	}

	return revalidate, nil
}

func applyBudget(voucher *domain.PaymentVoucher, result budgetdomain.Result) {
	voucher.BudgetCeiling = result.Ceiling
	voucher.BudgetMonthlyLimit = result.MonthlyLimit
	voucher.BudgetRealization = result.Realization
	voucher.BudgetCommitments = result.Commitments
	voucher.BudgetAvailable = result.Available
}

func applyBreakdown(voucher *domain.PaymentVoucher, b taxdomain.Breakdown) {
	voucher.TaxRuleID = b.RuleID
	voucher.PPNRate, voucher.PPNAmount = b.PPN.Rate, b.PPN.Amount
	voucher.PPh21Rate, voucher.PPh21Amount = b.PPh21.Rate, b.PPh21.Amount
	voucher.PPh22Rate, voucher.PPh22Amount = b.PPh22.Rate, b.PPh22.Amount
	voucher.PPh23Rate, voucher.PPh23Amount = b.PPh23.Rate, b.PPh23.Amount
	voucher.PPh26Rate, voucher.PPh26Amount = b.PPh26.Rate, b.PPh26.Amount
	voucher.PPhFinalRate, voucher.PPhFinalAmount = b.PPhFinal.Rate, b.PPhFinal.Amount
	voucher.RegionalTaxRate, voucher.RegionalTaxAmount = b.RegionalTaxEstimate.Rate, b.RegionalTaxEstimate.Amount
	voucher.TotalDeductions = b.TotalDeductions
	voucher.NetPayment = b.NetPayment
	voucher.GrossInWords = b.GrossInWords
}

func breakdownFromVoucher(v *domain.PaymentVoucher) taxdomain.Breakdown {
	return taxdomain.Breakdown{
		RuleID:              v.TaxRuleID,
		PPN:                 taxdomain.Component{Rate: v.PPNRate, Amount: v.PPNAmount},
		PPh21:               taxdomain.Component{Rate: v.PPh21Rate, Amount: v.PPh21Amount},
		PPh22:               taxdomain.Component{Rate: v.PPh22Rate, Amount: v.PPh22Amount},
		PPh23:               taxdomain.Component{Rate: v.PPh23Rate, Amount: v.PPh23Amount},
		PPh26:               taxdomain.Component{Rate: v.PPh26Rate, Amount: v.PPh26Amount},
		PPhFinal:            taxdomain.Component{Rate: v.PPhFinalRate, Amount: v.PPhFinalAmount},
		HasRegionalTax:      v.RegionalTaxRate > 0,
		RegionalTaxEstimate: taxdomain.Component{Rate: v.RegionalTaxRate, Amount: v.RegionalTaxAmount},
		TotalDeductions:     v.TotalDeductions,
		NetPayment:          v.NetPayment,
		GrossInWords:        v.GrossInWords,
	}
}

func budgetFromVoucher(v *domain.PaymentVoucher) budgetdomain.Result {
	return budgetdomain.Result{
		IsValid:      true,
		Ceiling:      v.BudgetCeiling,
		MonthlyLimit: v.BudgetMonthlyLimit,
		Realization:  v.BudgetRealization,
		Commitments:  v.BudgetCommitments,
		Available:    v.BudgetAvailable,
		Requested:    v.GrossAmount,
	}
}

func statusPtr(s domain.Status) *string {
	v := string(s)
	return &v
}
