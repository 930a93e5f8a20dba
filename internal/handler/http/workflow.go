package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/salarysys/payroll-backend-go/internal/handler/http/response"
	"github.com/salarysys/payroll-backend-go/internal/pkg/jwt"
	"github.com/salarysys/payroll-backend-go/internal/service/workflow"
)

// WorkflowHandler exposes the step navigation and the full pipeline. One
// state machine per operator, keyed by the user_id claim; the machine
// itself is single-session, so each request locks its session.
type WorkflowHandler struct {
	newMachine func() *workflow.StateMachine
	pipeline   *workflow.Pipeline

	mu       sync.Mutex
	sessions map[string]*workflow.StateMachine
}

func NewWorkflowHandler(newMachine func() *workflow.StateMachine, pipeline *workflow.Pipeline) *WorkflowHandler {
	return &WorkflowHandler{
		newMachine: newMachine,
		pipeline:   pipeline,
		sessions:   make(map[string]*workflow.StateMachine),
	}
}

// session returns the caller's state machine, creating one on first use.
// The caller must hold no assumption about cross-request concurrency; the
// handler serializes access through h.mu.
func (h *WorkflowHandler) session(r *http.Request) (*workflow.StateMachine, string, error) {
	_, userID, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		return nil, "", err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[userID]
	if !ok {
		m = h.newMachine()
		h.sessions[userID] = m
	}
	return m, userID, nil
}

// evict drops the operator's session so finished or abandoned workflows
// do not pin a state machine for the life of the process. Caller holds
// h.mu.
func (h *WorkflowHandler) evict(userID string) {
	delete(h.sessions, userID)
}

func (h *WorkflowHandler) GetState(w http.ResponseWriter, r *http.Request) {
	m, _, err := h.session(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	h.mu.Lock()
	state := m.Snapshot()
	h.mu.Unlock()
	response.Success(w, state)
}

type selectRequest struct {
	PeriodID    string   `json:"period_id"`
	EmployeeIDs []string `json:"employee_ids"`
}

func (h *WorkflowHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	m, _, err := h.session(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if req.PeriodID != "" {
		if err := m.SelectPeriod(r.Context(), req.PeriodID); err != nil {
			response.HandleError(w, err)
			return
		}
	}
	if req.EmployeeIDs != nil {
		m.SelectEmployees(req.EmployeeIDs)
	}
	response.Success(w, m.Snapshot())
}

type advanceResponse struct {
	Validation workflow.StepValidation `json:"validation"`
	State      workflow.State          `json:"state"`
}

func (h *WorkflowHandler) Advance(w http.ResponseWriter, r *http.Request) {
	m, userID, err := h.session(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := m.Advance(r.Context())
	if err != nil {
		slog.Error("Workflow advance failed", "error", err)
		response.HandleError(w, err)
		return
	}

	state := m.Snapshot()
	if state.CurrentStep == workflow.StepCompletion {
		h.evict(userID)
	}
	response.Success(w, advanceResponse{Validation: v, State: state})
}

func (h *WorkflowHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	m, _, err := h.session(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	m.Retreat()
	response.Success(w, m.Snapshot())
}

type jumpRequest struct {
	Step string `json:"step"`
}

func (h *WorkflowHandler) JumpTo(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	m, _, err := h.session(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := m.JumpTo(workflow.Step(req.Step)); err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}
	response.Success(w, m.Snapshot())
}

func (h *WorkflowHandler) Reset(w http.ResponseWriter, r *http.Request) {
	m, userID, err := h.session(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	m.Reset()
	h.evict(userID)
	response.Success(w, m.Snapshot())
}

func (h *WorkflowHandler) RunFull(w http.ResponseWriter, r *http.Request) {
	var input workflow.PipelineInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if input.PeriodID == "" || len(input.Employees) == 0 {
		response.BadRequest(w, "period_id and employees are required", nil)
		return
	}

	result := h.pipeline.RunFull(r.Context(), input)
	response.Success(w, result)
}
