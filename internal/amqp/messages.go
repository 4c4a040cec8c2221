package amqp

import (
	"encoding/json"
	"time"

	"giaingan/internal/docstore"
)

// RecordChangeMessage announces one committed document mutation. It carries
// only the coordinates of the change; consumers fetch current state from the
// store, so late or re-delivered messages are harmless.
type RecordChangeMessage struct {
	Collection string      `json:"collection"`
	ID         string      `json:"id"`
	Op         docstore.Op `json:"op"`
	Timestamp  time.Time   `json:"timestamp"`
}

func NewRecordChangeMessage(collection, id string, op docstore.Op) *RecordChangeMessage {
	return &RecordChangeMessage{
		Collection: collection,
		ID:         id,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
