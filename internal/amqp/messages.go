package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseCapturedMessage notifies the sync worker that a captured expense
// is ready to push. It carries only the row ID and version; the worker
// fetches the full row from the local database.
type ExpenseCapturedMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseCapturedMessage(id, version int64) *ExpenseCapturedMessage {
	return &ExpenseCapturedMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseCapturedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCapturedMessageFromJSON(data []byte) (*ExpenseCapturedMessage, error) {
	var msg ExpenseCapturedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
