// Package period manages payroll period lifecycle: creation, listing and
// the draft/open/closed status transitions.
package period

import (
	"context"
	"log/slog"
	"time"

	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
)

const dateLayout = "2006-01-02"

type PeriodService struct {
	periodRepo period.PeriodRepository
	publisher  messaging.ChangePublisher
	logger     *slog.Logger
}

func NewPeriodService(
	periodRepo period.PeriodRepository,
	publisher messaging.ChangePublisher,
	logger *slog.Logger,
) *PeriodService {
	return &PeriodService{
		periodRepo: periodRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *PeriodService) Create(ctx context.Context, req period.CreatePeriodRequest) (period.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	pay, _ := time.Parse(dateLayout, req.PayDate)

	created, err := s.periodRepo.Create(ctx, period.Period{
		Year:      req.Year,
		Month:     req.Month,
		StartDate: start,
		EndDate:   end,
		PayDate:   pay,
		Status:    period.PeriodStatusDraft,
	})
	if err != nil {
		return period.PeriodResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventPeriodCreated,
		messaging.ChangeContext{PeriodID: created.ID})

	s.logger.Info("payroll period created", "period_id", created.ID, "year", created.Year, "month", created.Month)
	return toResponse(created), nil
}

func (s *PeriodService) GetByID(ctx context.Context, id string) (period.PeriodResponse, error) {
	p, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return period.PeriodResponse{}, err
	}
	return toResponse(p), nil
}

func (s *PeriodService) List(ctx context.Context) ([]period.PeriodResponse, error) {
	list, err := s.periodRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]period.PeriodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	return out, nil
}

// UpdateStatus moves a period along draft -> open -> closed. A period
// referenced by non-draft payrolls can still be closed but accepts no
// other change; closed is terminal.
func (s *PeriodService) UpdateStatus(ctx context.Context, req period.UpdatePeriodStatusRequest) (period.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	p, err := s.periodRepo.GetByID(ctx, req.ID)
	if err != nil {
		return period.PeriodResponse{}, err
	}

	next := period.PeriodStatus(req.Status)
	if !p.CanTransitionTo(next) {
		return period.PeriodResponse{}, period.ErrInvalidStatusTransition
	}

	// A period referenced by non-draft payrolls is immutable except for
	// closing it.
	if next != period.PeriodStatusClosed {
		referenced, err := s.periodRepo.HasNonDraftPayrolls(ctx, req.ID)
		if err != nil {
			return period.PeriodResponse{}, err
		}
		if referenced {
			return period.PeriodResponse{}, period.ErrPeriodLocked
		}
	}

	updated, err := s.periodRepo.UpdateStatus(ctx, req.ID, next)
	if err != nil {
		return period.PeriodResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventPeriodStatusChanged,
		messaging.ChangeContext{PeriodID: updated.ID})

	return toResponse(updated), nil
}

func toResponse(p period.Period) period.PeriodResponse {
	return period.PeriodResponse{
		ID:        p.ID,
		Year:      p.Year,
		Month:     p.Month,
		StartDate: p.StartDate.Format(dateLayout),
		EndDate:   p.EndDate.Format(dateLayout),
		PayDate:   p.PayDate.Format(dateLayout),
		Status:    string(p.Status),
	}
}
