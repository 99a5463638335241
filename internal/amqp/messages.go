package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"timecard/internal/core"
)

// MonthSettledMessage announces that a month's payment status changed. It
// carries the report as it stood at commit time so consumers need no access
// to the ledger.
type MonthSettledMessage struct {
	Month    core.MonthKey     `json:"month"`
	Paid     bool              `json:"paid"`
	Currency string            `json:"currency"`
	Report   *core.MonthReport `json:"report,omitempty"`

	// ActivityNames maps the activity ids used in Report to display names.
	ActivityNames map[string]string `json:"activityNames,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

func NewMonthSettledMessage(report core.MonthReport, currency string, nameOf func(activityID string) string) *MonthSettledMessage {
	names := make(map[string]string)
	if nameOf != nil {
		for _, s := range report.Sessions {
			names[s.ActivityID] = nameOf(s.ActivityID)
		}
	}
	return &MonthSettledMessage{
		Month:         report.Month,
		Paid:          report.Paid,
		Currency:      currency,
		Report:        &report,
		ActivityNames: names,
		Timestamp:     time.Now(),
	}
}

func (m *MonthSettledMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthSettledMessageFromJSON decodes and checks the month key.
func MonthSettledMessageFromJSON(data []byte) (*MonthSettledMessage, error) {
	var msg MonthSettledMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := core.ParseMonthKey(string(msg.Month)); err != nil {
		return nil, fmt.Errorf("settlement message: %w", err)
	}
	return &msg, nil
}
