// Package assignment manages per-period employee category and position
// assignments.
package assignment

import (
	"context"
	"log/slog"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
)

type AssignmentService struct {
	assignmentRepo assignment.AssignmentRepository
	periodRepo     period.PeriodRepository
	publisher      messaging.ChangePublisher
	logger         *slog.Logger
}

func NewAssignmentService(
	assignmentRepo assignment.AssignmentRepository,
	periodRepo period.PeriodRepository,
	publisher messaging.ChangePublisher,
	logger *slog.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		periodRepo:     periodRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// checkPeriodOpen rejects writes into a closed period.
func (s *AssignmentService) checkPeriodOpen(ctx context.Context, periodID string) error {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return err
	}
	if p.Status == period.PeriodStatusClosed {
		return period.ErrPeriodLocked
	}
	return nil
}

func (s *AssignmentService) AssignCategory(ctx context.Context, req assignment.AssignCategoryRequest) (assignment.CategoryAssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return assignment.CategoryAssignmentResponse{}, err
	}
	if err := s.checkPeriodOpen(ctx, req.PeriodID); err != nil {
		return assignment.CategoryAssignmentResponse{}, err
	}

	stored, err := s.assignmentRepo.UpsertCategoryAssignment(ctx, assignment.CategoryAssignment{
		EmployeeID: req.EmployeeID,
		CategoryID: req.CategoryID,
		PeriodID:   req.PeriodID,
		Notes:      req.Notes,
	})
	if err != nil {
		return assignment.CategoryAssignmentResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventCategoryAssigned,
		messaging.ChangeContext{PeriodID: req.PeriodID, EmployeeID: req.EmployeeID})

	return toCategoryResponse(stored), nil
}

func (s *AssignmentService) AssignPosition(ctx context.Context, req assignment.AssignPositionRequest) (assignment.JobAssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return assignment.JobAssignmentResponse{}, err
	}
	if err := s.checkPeriodOpen(ctx, req.PeriodID); err != nil {
		return assignment.JobAssignmentResponse{}, err
	}

	stored, err := s.assignmentRepo.UpsertJobAssignment(ctx, assignment.JobAssignment{
		EmployeeID:   req.EmployeeID,
		PositionID:   req.PositionID,
		DepartmentID: req.DepartmentID,
		PeriodID:     req.PeriodID,
	})
	if err != nil {
		return assignment.JobAssignmentResponse{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventPositionAssigned,
		messaging.ChangeContext{PeriodID: req.PeriodID, EmployeeID: req.EmployeeID})

	return toJobResponse(stored), nil
}

func (s *AssignmentService) ListCategoryAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.CategoryAssignmentResponse, error) {
	list, err := s.assignmentRepo.ListCategoryAssignments(ctx, periodID, employeeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]assignment.CategoryAssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toCategoryResponse(a))
	}
	return out, nil
}

func (s *AssignmentService) ListJobAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.JobAssignmentResponse, error) {
	list, err := s.assignmentRepo.ListJobAssignments(ctx, periodID, employeeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]assignment.JobAssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toJobResponse(a))
	}
	return out, nil
}

func (s *AssignmentService) GetProgress(ctx context.Context, periodID string, employeeIDs []string) (assignment.ProgressResponse, error) {
	p, err := s.assignmentRepo.GetProgress(ctx, periodID, employeeIDs)
	if err != nil {
		return assignment.ProgressResponse{}, err
	}
	return assignment.ProgressResponse{
		SelectedCount:    p.SelectedCount,
		CategoryAssigned: p.CategoryAssigned,
		PositionAssigned: p.PositionAssigned,
		BasesResolved:    p.BasesResolved,
		PayrollsCreated:  p.PayrollsCreated,
	}, nil
}

func toCategoryResponse(a assignment.CategoryAssignment) assignment.CategoryAssignmentResponse {
	resp := assignment.CategoryAssignmentResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		CategoryID: a.CategoryID,
		PeriodID:   a.PeriodID,
		Notes:      a.Notes,
	}
	if a.CategoryName != nil {
		resp.CategoryName = *a.CategoryName
	}
	return resp
}

func toJobResponse(a assignment.JobAssignment) assignment.JobAssignmentResponse {
	resp := assignment.JobAssignmentResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		PositionID:   a.PositionID,
		DepartmentID: a.DepartmentID,
		PeriodID:     a.PeriodID,
	}
	if a.PositionName != nil {
		resp.PositionName = *a.PositionName
	}
	if a.DepartmentName != nil {
		resp.DepartmentName = *a.DepartmentName
	}
	return resp
}
