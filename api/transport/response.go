package transport

import "encoding/json"

// Envelope is the standard API response wrapper used for both success and
// error payloads: {"message": ..., "data": ...}.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}) Envelope {
	return Envelope{
		Message: "OK",
		Data:    data,
	}
}

// NewError returns an error envelope; data optionally carries diagnostic
// detail.
func NewError(message string, data interface{}) Envelope {
	return Envelope{
		Message: message,
		Data:    data,
	}
}

// CountResult shapes count-only list responses.
type CountResult struct {
	Count int64 `json:"count"`
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
