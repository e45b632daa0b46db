package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerCommittedMessage announces that a mutation was persisted. It
// carries no ledger data; consumers read the current snapshot themselves.
type LedgerCommittedMessage struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Version   int64     `json:"version"`
	Months    int       `json:"months"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerCommittedMessage stamps a message with a time-ordered ID.
func NewLedgerCommittedMessage(operation string, version int64, months int) *LedgerCommittedMessage {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &LedgerCommittedMessage{
		ID:        id.String(),
		Operation: operation,
		Version:   version,
		Months:    months,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerCommittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerCommittedMessageFromJSON(data []byte) (*LedgerCommittedMessage, error) {
	var msg LedgerCommittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
