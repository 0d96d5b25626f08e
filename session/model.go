package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Data is one stored session record. The JSON keys are part of the stored
// contract: records written by earlier deployments must stay readable, so
// field names here never change without a migration.
type Data struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	UserAgent    string    `json:"userAgent,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
}

// Metadata carries the optional device details stamped onto a session at
// creation time.
type Metadata struct {
	UserAgent string
	IPAddress string
}

func encodeData(d *Data) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeData(raw string) (*Data, error) {
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return &d, nil
}
