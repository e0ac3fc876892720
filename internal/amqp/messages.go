package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// LedgerOp names the mutation a ledger event reports.
type LedgerOp string

const (
	OpCreated LedgerOp = "created"
	OpUpdated LedgerOp = "updated"
	OpDeleted LedgerOp = "deleted"
)

// LedgerEventMessage is published after a ledger mutation has been persisted.
// It carries identifiers only; consumers read the movement data from storage.
//
// Revisions restart with every server process, so they only order events
// that share an Epoch.
type LedgerEventMessage struct {
	Op         LedgerOp `json:"op"`
	MovementID string   `json:"movement_id"`
	Month      string   `json:"month"`
	// PreviousMonth is set when an update moved the movement out of it.
	PreviousMonth string    `json:"previous_month,omitempty"`
	Epoch         string    `json:"epoch,omitempty"`
	Revision      uint64    `json:"revision"`
	Count         int       `json:"count"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(op LedgerOp, movementID, month string, revision uint64, count int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Op:         op,
		MovementID: movementID,
		Month:      month,
		Revision:   revision,
		Count:      count,
		Timestamp:  time.Now().UTC(),
	}
}

// Months lists the months the event touched, without duplicates.
func (m *LedgerEventMessage) Months() []string {
	var out []string
	if m.Month != "" {
		out = append(out, m.Month)
	}
	if m.PreviousMonth != "" && m.PreviousMonth != m.Month {
		out = append(out, m.PreviousMonth)
	}
	return out
}

// SameEpoch reports whether m was published under epoch.
func (m *LedgerEventMessage) SameEpoch(epoch string) bool {
	return m.Epoch == epoch
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes a message and rejects unknown operations.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown ledger op %q", msg.Op)
	}
	return &msg, nil
}
