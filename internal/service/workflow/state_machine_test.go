package workflow

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== FAKES =====

type fakePeriodRepo struct {
	periods map[string]period.Period
}

func (f *fakePeriodRepo) Create(ctx context.Context, p period.Period) (period.Period, error) {
	return p, nil
}

func (f *fakePeriodRepo) GetByID(ctx context.Context, id string) (period.Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return period.Period{}, period.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakePeriodRepo) GetByYearMonth(ctx context.Context, year, month int) (period.Period, error) {
	return period.Period{}, period.ErrPeriodNotFound
}

func (f *fakePeriodRepo) List(ctx context.Context) ([]period.Period, error) { return nil, nil }

func (f *fakePeriodRepo) UpdateStatus(ctx context.Context, id string, status period.PeriodStatus) (period.Period, error) {
	return period.Period{}, nil
}

func (f *fakePeriodRepo) HasNonDraftPayrolls(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type fakeAssignmentRepo struct {
	progress assignment.Progress
}

func (f *fakeAssignmentRepo) UpsertCategoryAssignment(ctx context.Context, a assignment.CategoryAssignment) (assignment.CategoryAssignment, error) {
	return a, nil
}

func (f *fakeAssignmentRepo) GetCategoryAssignment(ctx context.Context, employeeID, periodID string) (assignment.CategoryAssignment, error) {
	return assignment.CategoryAssignment{}, assignment.ErrCategoryAssignmentNotFound
}

func (f *fakeAssignmentRepo) ListCategoryAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.CategoryAssignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) UpsertJobAssignment(ctx context.Context, a assignment.JobAssignment) (assignment.JobAssignment, error) {
	return a, nil
}

func (f *fakeAssignmentRepo) GetJobAssignment(ctx context.Context, employeeID, periodID string) (assignment.JobAssignment, error) {
	return assignment.JobAssignment{}, assignment.ErrJobAssignmentNotFound
}

func (f *fakeAssignmentRepo) ListJobAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.JobAssignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) GetProgress(ctx context.Context, periodID string, employeeIDs []string) (assignment.Progress, error) {
	return f.progress, nil
}

func newTestMachine(progress assignment.Progress, config StepConfig) (*StateMachine, *fakeAssignmentRepo) {
	periods := &fakePeriodRepo{periods: map[string]period.Period{
		"period-1": {
			ID: "period-1", Year: 2025, Month: 6,
			StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:    period.PeriodStatusOpen,
		},
		"period-closed": {ID: "period-closed", Status: period.PeriodStatusClosed},
	}}
	assignments := &fakeAssignmentRepo{progress: progress}
	return NewStateMachine(periods, assignments, config, slog.Default()), assignments
}

// ===== TESTS =====

func TestStateMachine_AdvanceBlockedWithoutPeriod(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine(assignment.Progress{}, StepConfig{})

	v, err := m.Advance(context.Background())

	require.NoError(t, err)
	assert.False(t, v.CanProceed)
	assert.NotEmpty(t, v.Errors)
	assert.Equal(t, StepPeriodSelection, m.Snapshot().CurrentStep)
}

func TestStateMachine_AdvanceHappyPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, repo := newTestMachine(assignment.Progress{}, StepConfig{})

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1", "emp-2"})
	repo.progress = assignment.Progress{
		SelectedCount: 2, CategoryAssigned: 2, PositionAssigned: 2, BasesResolved: 2,
	}

	v, err := m.Advance(ctx)
	require.NoError(t, err)
	require.True(t, v.CanProceed)

	state := m.Snapshot()
	assert.Equal(t, StepEmployeeCategory, state.CurrentStep)
	assert.Equal(t, []Step{StepPeriodSelection}, state.CompletedSteps)
}

func TestStateMachine_SelectClosedPeriodRejected(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine(assignment.Progress{}, StepConfig{})

	err := m.SelectPeriod(context.Background(), "period-closed")
	assert.ErrorIs(t, err, period.ErrPeriodLocked)
}

func TestStateMachine_AssignmentShortfallBlocksWithWarning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, repo := newTestMachine(assignment.Progress{}, StepConfig{})

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1", "emp-2", "emp-3"})

	_, err := m.Advance(ctx) // period_selection passes
	require.NoError(t, err)

	repo.progress = assignment.Progress{SelectedCount: 3, CategoryAssigned: 1}
	v, err := m.Advance(ctx)

	require.NoError(t, err)
	assert.False(t, v.CanProceed)
	assert.Empty(t, v.Errors, "shortfall is a warning, not an error")
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "1 of 3")
	assert.Equal(t, StepEmployeeCategory, m.Snapshot().CurrentStep)
}

func TestStateMachine_SkippableStepProceedsDespiteShortfall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	config := StepConfig{Skippable: map[Step]bool{StepEmployeeCategory: true}}
	m, repo := newTestMachine(assignment.Progress{}, config)

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1", "emp-2"})
	_, err := m.Advance(ctx)
	require.NoError(t, err)

	repo.progress = assignment.Progress{SelectedCount: 2}
	v, err := m.Advance(ctx)

	require.NoError(t, err)
	assert.True(t, v.CanProceed)
	assert.NotEmpty(t, v.Warnings, "the shortfall still surfaces")
	assert.Equal(t, StepEmployeePosition, m.Snapshot().CurrentStep)
}

func TestStateMachine_RetreatRemovesCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, repo := newTestMachine(assignment.Progress{}, StepConfig{})

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1"})
	repo.progress = assignment.Progress{SelectedCount: 1, CategoryAssigned: 1, PositionAssigned: 1, BasesResolved: 1}

	for i := 0; i < 3; i++ {
		v, err := m.Advance(ctx)
		require.NoError(t, err)
		require.True(t, v.CanProceed)
	}
	require.Equal(t, StepContributionBase, m.Snapshot().CurrentStep)

	got := m.Retreat()

	assert.Equal(t, StepEmployeePosition, got)
	state := m.Snapshot()
	// The re-entered step is incomplete until revalidated.
	assert.Equal(t, []Step{StepPeriodSelection, StepEmployeeCategory}, state.CompletedSteps)
}

func TestStateMachine_RetreatAtFirstStepIsNoop(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine(assignment.Progress{}, StepConfig{})

	assert.Equal(t, StepPeriodSelection, m.Retreat())
}

func TestStateMachine_JumpToReachability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, repo := newTestMachine(assignment.Progress{}, StepConfig{})

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1"})
	repo.progress = assignment.Progress{SelectedCount: 1, CategoryAssigned: 1, PositionAssigned: 1, BasesResolved: 1}

	for i := 0; i < 2; i++ {
		_, err := m.Advance(ctx)
		require.NoError(t, err)
	}
	// completed: period_selection, employee_category; current: employee_position

	assert.ErrorIs(t, m.JumpTo(StepCalculation), ErrStepNotReachable)
	assert.Equal(t, StepEmployeePosition, m.Snapshot().CurrentStep)

	require.NoError(t, m.JumpTo(StepEmployeeCategory))
	state := m.Snapshot()
	assert.Equal(t, StepEmployeeCategory, state.CurrentStep)
	// Jumping back invalidates the jumped-over completion marks.
	assert.Equal(t, []Step{StepPeriodSelection}, state.CompletedSteps)
}

func TestStateMachine_JumpToUnknownStep(t *testing.T) {
	t.Parallel()
	m, _ := newTestMachine(assignment.Progress{}, StepConfig{})

	assert.Error(t, m.JumpTo(Step("teleport")))
}

func TestStateMachine_ResetClearsEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, repo := newTestMachine(assignment.Progress{}, StepConfig{})

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1"})
	repo.progress = assignment.Progress{SelectedCount: 1, CategoryAssigned: 1}
	_, err := m.Advance(ctx)
	require.NoError(t, err)

	m.Reset()

	state := m.Snapshot()
	assert.Equal(t, StepPeriodSelection, state.CurrentStep)
	assert.Empty(t, state.SelectedPeriodID)
	assert.Empty(t, state.SelectedEmployees)
	assert.Empty(t, state.CompletedSteps)
}

func TestStateMachine_CompletedStepsPrefixConsistent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, repo := newTestMachine(assignment.Progress{}, StepConfig{})

	require.NoError(t, m.SelectPeriod(ctx, "period-1"))
	m.SelectEmployees([]string{"emp-1"})
	repo.progress = assignment.Progress{SelectedCount: 1, CategoryAssigned: 1, PositionAssigned: 1, BasesResolved: 1}

	for i := 0; i < 5; i++ {
		v, err := m.Advance(ctx)
		require.NoError(t, err)
		require.True(t, v.CanProceed)

		// Completed steps are always a leading slice of the step order.
		completed := m.Snapshot().CompletedSteps
		for j, s := range completed {
			assert.Equal(t, StepOrder[j], s)
		}
	}
}
