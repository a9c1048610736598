package kafka

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrTombstone is returned for the empty message Debezium emits after a delete
var ErrTombstone = errors.New("tombstone message")

// DebeziumEnvelope is the standard Debezium CDC message format
type DebeziumEnvelope struct {
	Schema  json.RawMessage `json:"schema,omitempty"`
	Payload DebeziumPayload `json:"payload"`
}

// DebeziumPayload contains the before/after state of a row
type DebeziumPayload struct {
	Before json.RawMessage `json:"before"`
	After  json.RawMessage `json:"after"`
	Source DebeziumSource  `json:"source"`
	Op     string          `json:"op"` // c=create, u=update, d=delete, r=read (snapshot), t=truncate
	TsMs   int64           `json:"ts_ms"`
}

// DebeziumSource contains metadata about the source of the change
type DebeziumSource struct {
	Version   string `json:"version"`
	Connector string `json:"connector"`
	Name      string `json:"name"`
	TsMs      int64  `json:"ts_ms"`
	Snapshot  string `json:"snapshot,omitempty"`
	Db        string `json:"db"`
	Schema    string `json:"schema"`
	Table     string `json:"table"`
}

// IsCreate returns true if this is a create operation
func (p *DebeziumPayload) IsCreate() bool {
	return p.Op == "c" || p.Op == "r"
}

// IsUpdate returns true if this is an update operation
func (p *DebeziumPayload) IsUpdate() bool {
	return p.Op == "u"
}

// IsDelete returns true if this is a delete or truncate operation
func (p *DebeziumPayload) IsDelete() bool {
	return p.Op == "d" || p.Op == "t"
}

// Timestamp returns the event timestamp
func (p *DebeziumPayload) Timestamp() time.Time {
	return time.UnixMilli(p.TsMs)
}

// OpName spells out the operation for logs and metrics
func (p *DebeziumPayload) OpName() string {
	switch {
	case p.Op == "r":
		return "snapshot"
	case p.IsCreate():
		return "create"
	case p.IsUpdate():
		return "update"
	case p.IsDelete():
		return "delete"
	default:
		return "unknown"
	}
}

// ParseDebeziumMessage parses a raw Kafka message value. Both the schema envelope and the
// bare payload (converter schemas disabled) are accepted.
func ParseDebeziumMessage(data []byte) (*DebeziumPayload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrTombstone
	}

	var envelope DebeziumEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Payload.Op != "" {
		return &envelope.Payload, nil
	}

	var payload DebeziumPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Op == "" {
		return nil, errors.New("message has no debezium operation")
	}
	return &payload, nil
}

// TableFromTopic returns the table of a "<prefix>.<schema>.<table>" topic
func TableFromTopic(topic string) string {
	if i := strings.LastIndex(topic, "."); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
