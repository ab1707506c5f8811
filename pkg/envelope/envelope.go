// Package envelope defines the backend's uniform JSON wrapper shared by the
// server, which writes it, and the API client, which normalizes it.
package envelope

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the format of Envelope.Timestamp.
const TimestampLayout = time.RFC3339Nano

// Envelope is the wire shape of every backend response.
// Success responses carry Data; failures may carry ErrorCode.
type Envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// HasData reports whether the data key was present and not JSON null.
func (e Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Success builds a success envelope. A nil data value omits the data key.
func Success(data any, message string, now time.Time) (Envelope, error) {
	env := Envelope{
		Success:   true,
		Message:   message,
		Timestamp: now.UTC().Format(TimestampLayout),
	}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	env.Data = raw
	return env, nil
}

// Failure builds an error envelope. An empty errorCode is omitted.
func Failure(message, errorCode string, now time.Time) Envelope {
	return Envelope{
		Success:   false,
		Message:   message,
		ErrorCode: errorCode,
		Timestamp: now.UTC().Format(TimestampLayout),
	}
}
