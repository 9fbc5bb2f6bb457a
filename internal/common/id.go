package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a unique viewer session ID with the "sess_" prefix
// Format: sess_<uuid>
func NewSessionID() string {
	return "sess_" + uuid.New().String()
}

// NewCorrelationID returns a bare uuid used to tie log lines of one request together
func NewCorrelationID() string {
	return uuid.NewString()
}
