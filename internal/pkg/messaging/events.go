package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published on the change-notification feed. Routing keys are
// table-oriented so consumers can bind with patterns like "payroll.#".
const (
	EventPeriodCreated       = "payroll.period.created"
	EventPeriodStatusChanged = "payroll.period.status_changed"
	EventCategoryAssigned    = "payroll.category.assigned"
	EventPositionAssigned    = "payroll.position.assigned"
	EventBaseUpserted        = "payroll.contribution_base.upserted"
	EventPayrollCreated      = "payroll.record.created"
	EventPayrollItemCreated  = "payroll.item.created"
	EventPayrollStatusMoved  = "payroll.record.status_changed"
)

// Event is the envelope carried on the feed.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id.
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct.
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ChangeContext identifies the rows a mutation touched. Empty fields are
// omitted; cache-key builders read only the fields they need.
type ChangeContext struct {
	PeriodID   string `json:"period_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	PayrollID  string `json:"payroll_id,omitempty"`
}
