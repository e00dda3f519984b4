package events

import (
	"encoding/json"
	"errors"
	"time"
)

// RoutingKey is the key every RecordsChanged message is published under.
const RoutingKey = "records.changed"

// Op names the mutation that produced a RecordsChanged message.
type Op string

const (
	OpCreated Op = "created"
	OpDeleted Op = "deleted"
)

// RecordsChanged tells every server instance that an owner's records were
// mutated and any cached snapshot for that owner is stale. It carries no
// record content; consumers refetch from the store.
type RecordsChanged struct {
	OwnerID   string    `json:"owner_id"`
	RecordID  string    `json:"record_id"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordsChanged(ownerID, recordID string, op Op) *RecordsChanged {
	return &RecordsChanged{
		OwnerID:   ownerID,
		RecordID:  recordID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *RecordsChanged) Validate() error {
	if m.OwnerID == "" {
		return errors.New("records changed message without owner")
	}
	switch m.Op {
	case OpCreated, OpDeleted:
		return nil
	default:
		return errors.New("records changed message with unknown op " + string(m.Op))
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordsChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordsChangedFromJSON decodes and validates a message body.
func RecordsChangedFromJSON(data []byte) (*RecordsChanged, error) {
	var msg RecordsChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
