// Package payroll creates payroll records, manages their line items and
// status lifecycle, and computes the per-period summary.
package payroll

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/cache"
	"github.com/salarysys/payroll-backend-go/internal/pkg/database"
	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
	"github.com/salarysys/payroll-backend-go/internal/repository/postgresql"
)

type PayrollService struct {
	db          *database.DB
	payrollRepo payroll.PayrollRepository
	periodRepo  period.PeriodRepository
	cache       *cache.Store
	publisher   messaging.ChangePublisher
	logger      *slog.Logger
}

func NewPayrollService(
	db *database.DB,
	payrollRepo payroll.PayrollRepository,
	periodRepo period.PeriodRepository,
	cacheStore *cache.Store,
	publisher messaging.ChangePublisher,
	logger *slog.Logger,
) *PayrollService {
	return &PayrollService{
		db:          db,
		payrollRepo: payrollRepo,
		periodRepo:  periodRepo,
		cache:       cacheStore,
		publisher:   publisher,
		logger:      logger,
	}
}

// ========== CREATION ==========

func (s *PayrollService) Create(ctx context.Context, req payroll.CreatePayrollRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	p, err := s.periodRepo.GetByID(ctx, req.PeriodID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if p.Status == period.PeriodStatusClosed {
		return payroll.PayrollResponse{}, period.ErrPeriodLocked
	}

	created, err := s.payrollRepo.CreatePayroll(ctx, payroll.Payroll{
		EmployeeID: req.EmployeeID,
		PeriodID:   req.PeriodID,
		Status:     payroll.PayrollStatusDraft,
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventPayrollCreated, messaging.ChangeContext{
		PeriodID:   req.PeriodID,
		EmployeeID: req.EmployeeID,
		PayrollID:  created.ID,
	})

	return toPayrollResponse(created, nil), nil
}

// GetOrCreate returns the existing payroll for the pair or creates a
// draft one, so pipeline re-runs are safe.
func (s *PayrollService) GetOrCreate(ctx context.Context, employeeID, periodID string) (payroll.Payroll, error) {
	existing, err := s.payrollRepo.GetPayrollByEmployeePeriod(ctx, employeeID, periodID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, payroll.ErrPayrollNotFound) {
		return payroll.Payroll{}, err
	}

	resp, err := s.Create(ctx, payroll.CreatePayrollRequest{EmployeeID: employeeID, PeriodID: periodID})
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollAlreadyExists) {
			// Lost a create race; the row exists now.
			return s.payrollRepo.GetPayrollByEmployeePeriod(ctx, employeeID, periodID)
		}
		return payroll.Payroll{}, err
	}
	return s.payrollRepo.GetPayrollByID(ctx, resp.ID)
}

// ========== ITEMS ==========

// AddItem inserts a line item and refreshes the payroll's cached totals
// in the same transaction, so the stored gross/deductions/net always
// match the item sums.
func (s *PayrollService) AddItem(ctx context.Context, req payroll.AddItemRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	p, err := s.payrollRepo.GetPayrollByID(ctx, req.PayrollID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if p.Status != payroll.PayrollStatusDraft && p.Status != payroll.PayrollStatusCalculating {
		return payroll.PayrollResponse{}, payroll.ErrPayrollNotEditable
	}

	if _, err := s.payrollRepo.GetComponentByID(ctx, req.ComponentID); err != nil {
		return payroll.PayrollResponse{}, err
	}

	var updated payroll.Payroll
	var items []payroll.PayrollItem
	err = postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		txCtx := postgresql.ContextWithTx(ctx, tx)

		if _, err := s.payrollRepo.InsertItem(txCtx, payroll.PayrollItem{
			PayrollID:   req.PayrollID,
			ComponentID: req.ComponentID,
			Amount:      req.Amount,
			Notes:       req.Notes,
		}); err != nil {
			return err
		}

		items, err = s.payrollRepo.ListItems(txCtx, req.PayrollID)
		if err != nil {
			return err
		}

		totals := AggregateItems(items)
		if err := s.payrollRepo.UpdateTotals(txCtx, req.PayrollID, totals); err != nil {
			return err
		}

		updated, err = s.payrollRepo.GetPayrollByID(txCtx, req.PayrollID)
		return err
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventPayrollItemCreated, messaging.ChangeContext{
		PeriodID:   updated.PeriodID,
		EmployeeID: updated.EmployeeID,
		PayrollID:  updated.ID,
	})

	return toPayrollResponse(updated, items), nil
}

// ========== READS ==========

func (s *PayrollService) GetByID(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	key := cache.PayrollKey(id)
	if cached, ok := s.cache.Get(key); ok {
		if resp, ok := cached.(payroll.PayrollResponse); ok {
			return resp, nil
		}
	}

	p, err := s.payrollRepo.GetPayrollByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	items, err := s.payrollRepo.ListItems(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	resp := toPayrollResponse(p, items)
	s.cache.Set(key, resp)
	return resp, nil
}

func (s *PayrollService) ListByPeriod(ctx context.Context, periodID string, employeeIDs []string) ([]payroll.PayrollResponse, error) {
	list, err := s.payrollRepo.ListPayrollsByPeriod(ctx, periodID, employeeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]payroll.PayrollResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPayrollResponse(p, nil))
	}
	return out, nil
}

// GetPeriodSummary serves the review screen through the TTL cache. A
// stale read is acceptable; the invalidation feed evicts on mutation.
func (s *PayrollService) GetPeriodSummary(ctx context.Context, periodID string) (payroll.PeriodSummaryResponse, error) {
	key := cache.PeriodSummaryKey(periodID)
	if cached, ok := s.cache.Get(key); ok {
		if resp, ok := cached.(payroll.PeriodSummaryResponse); ok {
			return resp, nil
		}
	}

	summary, err := s.payrollRepo.GetPeriodSummary(ctx, periodID)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, err
	}

	resp := payroll.PeriodSummaryResponse{
		PeriodID:        summary.PeriodID,
		TotalEmployees:  summary.TotalEmployees,
		DraftCount:      summary.DraftCount,
		CalculatedCount: summary.CalculatedCount,
		ApprovedCount:   summary.ApprovedCount,
		PaidCount:       summary.PaidCount,
		GrossTotal:      summary.GrossTotal,
		DeductionTotal:  summary.DeductionTotal,
		NetTotal:        summary.NetTotal,
	}
	s.cache.Set(key, resp)
	return resp, nil
}

// ========== STATUS ==========

func (s *PayrollService) UpdateStatus(ctx context.Context, req payroll.UpdateStatusRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	p, err := s.payrollRepo.GetPayrollByID(ctx, req.PayrollID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	next := payroll.PayrollStatus(req.Status)
	if !p.Status.CanTransitionTo(next) {
		return payroll.PayrollResponse{}, payroll.ErrInvalidStatusTransition
	}

	updated, err := s.payrollRepo.UpdateStatus(ctx, req.PayrollID, next)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventPayrollStatusMoved, messaging.ChangeContext{
		PeriodID:   updated.PeriodID,
		EmployeeID: updated.EmployeeID,
		PayrollID:  updated.ID,
	})

	return toPayrollResponse(updated, nil), nil
}

func (s *PayrollService) MarkCalculated(ctx context.Context, payrollID string) (payroll.PayrollResponse, error) {
	return s.UpdateStatus(ctx, payroll.UpdateStatusRequest{
		PayrollID: payrollID, Status: string(payroll.PayrollStatusCalculated),
	})
}

func (s *PayrollService) Approve(ctx context.Context, payrollID string) (payroll.PayrollResponse, error) {
	return s.UpdateStatus(ctx, payroll.UpdateStatusRequest{
		PayrollID: payrollID, Status: string(payroll.PayrollStatusApproved),
	})
}

func (s *PayrollService) MarkPaid(ctx context.Context, payrollID string) (payroll.PayrollResponse, error) {
	return s.UpdateStatus(ctx, payroll.UpdateStatusRequest{
		PayrollID: payrollID, Status: string(payroll.PayrollStatusPaid),
	})
}

func (s *PayrollService) Cancel(ctx context.Context, payrollID string) (payroll.PayrollResponse, error) {
	return s.UpdateStatus(ctx, payroll.UpdateStatusRequest{
		PayrollID: payrollID, Status: string(payroll.PayrollStatusCancelled),
	})
}

// ========== COMPONENTS ==========

func (s *PayrollService) ListComponents(ctx context.Context, activeOnly bool) ([]payroll.SalaryComponent, error) {
	return s.payrollRepo.ListComponents(ctx, activeOnly)
}

func toPayrollResponse(p payroll.Payroll, items []payroll.PayrollItem) payroll.PayrollResponse {
	resp := payroll.PayrollResponse{
		ID:              p.ID,
		EmployeeID:      p.EmployeeID,
		PeriodID:        p.PeriodID,
		Status:          string(p.Status),
		GrossPay:        p.GrossPay,
		TotalDeductions: p.TotalDeductions,
		NetPay:          p.NetPay,
	}
	for _, item := range items {
		ir := payroll.PayrollItemResponse{
			ID:          item.ID,
			ComponentID: item.ComponentID,
			Amount:      item.Amount,
			Notes:       item.Notes,
		}
		if item.ComponentName != nil {
			ir.ComponentName = *item.ComponentName
		}
		if item.ComponentKind != nil {
			ir.Kind = string(*item.ComponentKind)
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}
