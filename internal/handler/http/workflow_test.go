package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/service/workflow"
)

type stubPeriodRepo struct {
	period.PeriodRepository
}

func (stubPeriodRepo) GetByID(ctx context.Context, id string) (period.Period, error) {
	return period.Period{ID: id, Status: period.PeriodStatusOpen}, nil
}

// stubAssignmentRepo reports every selected employee as fully assigned so
// workflow validations always pass.
type stubAssignmentRepo struct {
	assignment.AssignmentRepository
}

func (stubAssignmentRepo) GetProgress(ctx context.Context, periodID string, employeeIDs []string) (assignment.Progress, error) {
	n := len(employeeIDs)
	return assignment.Progress{
		SelectedCount:    n,
		CategoryAssigned: n,
		PositionAssigned: n,
		BasesResolved:    n,
		PayrollsCreated:  n,
	}, nil
}

func workflowRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	token, err := jwt.NewBuilder().
		Claim("company_id", "comp-1").
		Claim("user_id", userID).
		Build()
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/workflow", nil)
	return r.WithContext(jwtauth.NewContext(context.Background(), token, nil))
}

func newTestWorkflowHandler() *WorkflowHandler {
	newMachine := func() *workflow.StateMachine {
		return workflow.NewStateMachine(stubPeriodRepo{}, stubAssignmentRepo{}, workflow.StepConfig{}, slog.Default())
	}
	return NewWorkflowHandler(newMachine, nil)
}

func TestWorkflowHandler_SessionPerOperator(t *testing.T) {
	t.Parallel()
	h := newTestWorkflowHandler()

	h.GetState(httptest.NewRecorder(), workflowRequest(t, "user-1"))
	h.GetState(httptest.NewRecorder(), workflowRequest(t, "user-1"))
	h.GetState(httptest.NewRecorder(), workflowRequest(t, "user-2"))

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.sessions, 2, "one session per operator, reused across requests")
}

func TestWorkflowHandler_ResetEvictsSession(t *testing.T) {
	t.Parallel()
	h := newTestWorkflowHandler()

	h.GetState(httptest.NewRecorder(), workflowRequest(t, "user-1"))
	h.mu.Lock()
	require.Len(t, h.sessions, 1)
	h.mu.Unlock()

	w := httptest.NewRecorder()
	h.Reset(w, workflowRequest(t, "user-1"))
	assert.Equal(t, http.StatusOK, w.Code)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.sessions, "reset must release the operator's session")
}

func TestWorkflowHandler_CompletionEvictsSession(t *testing.T) {
	t.Parallel()
	h := newTestWorkflowHandler()

	m, _, err := h.session(workflowRequest(t, "user-1"))
	require.NoError(t, err)
	require.NoError(t, m.SelectPeriod(context.Background(), "period-1"))
	m.SelectEmployees([]string{"emp-1"})

	// Seven advances walk the eight steps through to completion.
	for i := 0; i < 7; i++ {
		w := httptest.NewRecorder()
		h.Advance(w, workflowRequest(t, "user-1"))
		require.Equal(t, http.StatusOK, w.Code, "advance %d", i)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.sessions, "a finished workflow must release its session")
}

func TestWorkflowHandler_MissingClaimsRejected(t *testing.T) {
	t.Parallel()
	h := newTestWorkflowHandler()

	r := httptest.NewRequest(http.MethodGet, "/workflow", nil)
	w := httptest.NewRecorder()
	h.GetState(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.sessions)
}
