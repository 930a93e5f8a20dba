package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
)

// KeyBuilder derives a cache key from the fields of a change event.
// Returning "" skips the key (a field the event did not carry).
type KeyBuilder func(c messaging.ChangeContext) string

// Standard cache keys. Review reads and the invalidation table must agree
// on these shapes.
func PeriodSummaryKey(periodID string) string {
	return fmt.Sprintf("payroll:summary:%s", periodID)
}

func PayrollKey(payrollID string) string {
	return fmt.Sprintf("payroll:record:%s", payrollID)
}

func EmployeeBasesKey(employeeID, periodID string) string {
	return fmt.Sprintf("insurance:bases:%s:%s", employeeID, periodID)
}

func ProgressKey(periodID string) string {
	return fmt.Sprintf("workflow:progress:%s", periodID)
}

// Manager maps change events to the dependent read-cache keys that must be
// dropped. Invalidation is best-effort: failures are logged, never
// propagated to the mutation that triggered them.
type Manager struct {
	store    *Store
	logger   *slog.Logger
	builders map[string][]KeyBuilder
}

func NewManager(store *Store, logger *slog.Logger) *Manager {
	m := &Manager{
		store:  store,
		logger: logger,
	}

	summary := func(c messaging.ChangeContext) string {
		if c.PeriodID == "" {
			return ""
		}
		return PeriodSummaryKey(c.PeriodID)
	}
	record := func(c messaging.ChangeContext) string {
		if c.PayrollID == "" {
			return ""
		}
		return PayrollKey(c.PayrollID)
	}
	bases := func(c messaging.ChangeContext) string {
		if c.EmployeeID == "" || c.PeriodID == "" {
			return ""
		}
		return EmployeeBasesKey(c.EmployeeID, c.PeriodID)
	}
	progress := func(c messaging.ChangeContext) string {
		if c.PeriodID == "" {
			return ""
		}
		return ProgressKey(c.PeriodID)
	}

	m.builders = map[string][]KeyBuilder{
		messaging.EventPeriodCreated:       {summary},
		messaging.EventPeriodStatusChanged: {summary},
		messaging.EventCategoryAssigned:    {progress},
		messaging.EventPositionAssigned:    {progress},
		messaging.EventBaseUpserted:        {bases, progress},
		messaging.EventPayrollCreated:      {summary, progress, record},
		messaging.EventPayrollItemCreated:  {record, summary},
		messaging.EventPayrollStatusMoved:  {record, summary},
	}

	return m
}

// Invalidate drops every cache key the event maps to.
func (m *Manager) Invalidate(eventType string, change messaging.ChangeContext) {
	builders, ok := m.builders[eventType]
	if !ok {
		return
	}

	var keys []string
	for _, build := range builders {
		if key := build(change); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return
	}

	m.store.Delete(keys...)
	m.logger.Debug("cache invalidated", "event_type", eventType, "keys", keys)
}

// HandleEvent adapts Invalidate to the messaging consumer signature.
func (m *Manager) HandleEvent(_ context.Context, event *messaging.Event) error {
	var change messaging.ChangeContext
	if err := event.UnmarshalData(&change); err != nil {
		return fmt.Errorf("failed to decode change context: %w", err)
	}
	m.Invalidate(event.Type, change)
	return nil
}

// Register wires the manager onto a consumer for every known event type.
func (m *Manager) Register(c *messaging.Consumer) {
	for eventType := range m.builders {
		c.RegisterHandler(eventType, m.HandleEvent)
	}
}
