// Package workflow drives the payroll creation session: an ordered step
// sequence with per-step validation, bounded-concurrency batch dispatch
// and the end-to-end pipeline.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
)

// Step is one stage of the payroll creation workflow.
type Step string

const (
	StepPeriodSelection  Step = "period_selection"
	StepEmployeeCategory Step = "employee_category"
	StepEmployeePosition Step = "employee_position"
	StepContributionBase Step = "contribution_base"
	StepEarningsSetup    Step = "earnings_setup"
	StepCalculation      Step = "calculation"
	StepReview           Step = "review"
	StepCompletion       Step = "completion"
)

// StepOrder is the required sequence. Index position is the canonical
// ordering used by JumpTo reachability checks.
var StepOrder = []Step{
	StepPeriodSelection,
	StepEmployeeCategory,
	StepEmployeePosition,
	StepContributionBase,
	StepEarningsSetup,
	StepCalculation,
	StepReview,
	StepCompletion,
}

func stepIndex(s Step) int {
	for i, step := range StepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// StepConfig marks steps an operator may advance past despite incomplete
// assignments. The shortfall still surfaces as a warning.
type StepConfig struct {
	Skippable map[Step]bool
}

// StepValidation is the outcome of validating the current step.
type StepValidation struct {
	CanProceed bool     `json:"can_proceed"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// State is a read-only snapshot of a workflow session.
type State struct {
	CurrentStep       Step     `json:"current_step"`
	SelectedPeriodID  string   `json:"selected_period_id,omitempty"`
	SelectedEmployees []string `json:"selected_employees,omitempty"`
	CompletedSteps    []Step   `json:"completed_steps"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	IsProcessing      bool     `json:"is_processing"`
}

// StateMachine owns one operator session's workflow state. All mutation
// goes through the transition methods. Not safe for concurrent use; hold
// one instance per session.
type StateMachine struct {
	current           Step
	selectedPeriodID  string
	selectedEmployees []string
	completed         map[Step]bool
	lastErrors        []string
	lastWarnings      []string
	processing        bool

	config         StepConfig
	periodRepo     period.PeriodRepository
	assignmentRepo assignment.AssignmentRepository
	logger         *slog.Logger
}

func NewStateMachine(
	periodRepo period.PeriodRepository,
	assignmentRepo assignment.AssignmentRepository,
	config StepConfig,
	logger *slog.Logger,
) *StateMachine {
	return &StateMachine{
		current:        StepPeriodSelection,
		completed:      make(map[Step]bool),
		config:         config,
		periodRepo:     periodRepo,
		assignmentRepo: assignmentRepo,
		logger:         logger,
	}
}

// SelectPeriod records the period the session works on.
func (m *StateMachine) SelectPeriod(ctx context.Context, periodID string) error {
	p, err := m.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return err
	}
	if p.Status == period.PeriodStatusClosed {
		return period.ErrPeriodLocked
	}
	m.selectedPeriodID = p.ID
	return nil
}

// SelectEmployees records the employee set the session works on.
func (m *StateMachine) SelectEmployees(employeeIDs []string) {
	m.selectedEmployees = append([]string(nil), employeeIDs...)
}

// Snapshot returns a copy of the session state.
func (m *StateMachine) Snapshot() State {
	completed := make([]Step, 0, len(m.completed))
	for _, s := range StepOrder {
		if m.completed[s] {
			completed = append(completed, s)
		}
	}
	return State{
		CurrentStep:       m.current,
		SelectedPeriodID:  m.selectedPeriodID,
		SelectedEmployees: append([]string(nil), m.selectedEmployees...),
		CompletedSteps:    completed,
		Errors:            append([]string(nil), m.lastErrors...),
		Warnings:          append([]string(nil), m.lastWarnings...),
		IsProcessing:      m.processing,
	}
}

// ValidateStep runs the validation rules for the given step without
// mutating the session.
func (m *StateMachine) ValidateStep(ctx context.Context, step Step) (StepValidation, error) {
	v := StepValidation{CanProceed: true}

	switch step {
	case StepPeriodSelection:
		if m.selectedPeriodID == "" {
			v.Errors = append(v.Errors, "no payroll period selected")
		}
		if len(m.selectedEmployees) == 0 {
			v.Errors = append(v.Errors, "no employees selected")
		}
		v.CanProceed = len(v.Errors) == 0
		return v, nil

	case StepEmployeeCategory, StepEmployeePosition, StepContributionBase:
		progress, err := m.assignmentRepo.GetProgress(ctx, m.selectedPeriodID, m.selectedEmployees)
		if err != nil {
			return StepValidation{}, err
		}
		var done int
		var what string
		switch step {
		case StepEmployeeCategory:
			done, what = progress.CategoryAssigned, "category assignments"
		case StepEmployeePosition:
			done, what = progress.PositionAssigned, "position assignments"
		default:
			done, what = progress.BasesResolved, "contribution bases"
		}
		if done < len(m.selectedEmployees) {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("%d of %d employees have %s", done, len(m.selectedEmployees), what))
			// A shortfall blocks unless the step is configured skippable.
			v.CanProceed = m.config.Skippable[step]
		}
		return v, nil

	case StepEarningsSetup:
		if m.selectedPeriodID == "" {
			v.Errors = append(v.Errors, "no payroll period selected")
			v.CanProceed = false
		}
		return v, nil

	default:
		// calculation, review and completion gate on their own handlers.
		return v, nil
	}
}

// Advance validates the current step and moves forward on success. On a
// failed validation the step is unchanged and the validation is returned
// for display.
func (m *StateMachine) Advance(ctx context.Context) (StepValidation, error) {
	v, err := m.ValidateStep(ctx, m.current)
	if err != nil {
		return StepValidation{}, err
	}

	m.lastErrors = v.Errors
	m.lastWarnings = v.Warnings

	if !v.CanProceed {
		return v, nil
	}

	idx := stepIndex(m.current)
	if idx == len(StepOrder)-1 {
		v.CanProceed = false
		v.Errors = append(v.Errors, "workflow already at final step")
		return v, nil
	}

	m.completed[m.current] = true
	m.current = StepOrder[idx+1]
	m.logger.Debug("workflow advanced", "step", m.current)
	return v, nil
}

// Retreat moves backward unconditionally. The step being left drops out
// of the completed set, so re-entering always revalidates.
func (m *StateMachine) Retreat() Step {
	idx := stepIndex(m.current)
	if idx == 0 {
		return m.current
	}
	delete(m.completed, m.current)
	m.current = StepOrder[idx-1]
	delete(m.completed, m.current)
	m.lastErrors = nil
	m.lastWarnings = nil
	return m.current
}

// ErrStepNotReachable rejects jumps past uncompleted required steps.
var ErrStepNotReachable = fmt.Errorf("step is not reachable: earlier required steps are incomplete")

// JumpTo moves directly to a step that is already reachable: at or before
// the step after the furthest completed one.
func (m *StateMachine) JumpTo(step Step) error {
	target := stepIndex(step)
	if target < 0 {
		return fmt.Errorf("unknown workflow step %q", step)
	}

	furthest := -1
	for i, s := range StepOrder {
		if m.completed[s] {
			furthest = i
		}
	}
	if target > furthest+1 {
		return ErrStepNotReachable
	}

	// Steps at or after the target lose their completed mark.
	for i := target; i < len(StepOrder); i++ {
		delete(m.completed, StepOrder[i])
	}
	m.current = step
	m.lastErrors = nil
	m.lastWarnings = nil
	return nil
}

// Reset returns the session to its initial state and clears selections.
func (m *StateMachine) Reset() {
	m.current = StepPeriodSelection
	m.selectedPeriodID = ""
	m.selectedEmployees = nil
	m.completed = make(map[Step]bool)
	m.lastErrors = nil
	m.lastWarnings = nil
	m.processing = false
}
