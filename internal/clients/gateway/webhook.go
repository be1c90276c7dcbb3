package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Transaction statuses reported by webhook events
const (
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
	StatusVoided   = "VOIDED"
	StatusError    = "ERROR"
	StatusPending  = "PENDING"
)

var ErrInvalidChecksum = errors.New("invalid event checksum")

// requiredProperties must be covered by every event signature
var requiredProperties = []string{"transaction.status", "transaction.reference"}

// Event is a gateway webhook notification
type Event struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Signature struct {
		Properties []string `json:"properties"`
		Checksum   string   `json:"checksum"`
	} `json:"signature"`
	Timestamp int64 `json:"timestamp"`
}

// Transaction is the transaction carried by an event
type Transaction struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	AmountInCents int64  `json:"amount_in_cents"`
}

// ParseEvent decodes a webhook body
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid event body: %w", err)
	}
	return &event, nil
}

// Transaction extracts data.transaction
func (e *Event) Transaction() (*Transaction, error) {
	raw, ok := e.Data["transaction"]
	if !ok {
		return nil, errors.New("event has no transaction")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var tx Transaction
	if err := json.Unmarshal(encoded, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Checksum computes sha256(property values + timestamp + secret) as lowercase hex
func (e *Event) Checksum(secret string) (string, error) {
	var sb strings.Builder
	for _, property := range e.Signature.Properties {
		value, ok := lookup(e.Data, property)
		if !ok {
			return "", fmt.Errorf("signed property %q not present", property)
		}
		sb.WriteString(value)
	}
	sb.WriteString(fmt.Sprintf("%d", e.Timestamp))
	sb.WriteString(secret)

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks the event checksum against the events secret
func (e *Event) Verify(secret string) error {
	if e.Signature.Checksum == "" || len(e.Signature.Properties) == 0 {
		return ErrInvalidChecksum
	}
	for _, required := range requiredProperties {
		if !slices.Contains(e.Signature.Properties, required) {
			return fmt.Errorf("%w: %s is not signed", ErrInvalidChecksum, required)
		}
	}
	expected, err := e.Checksum(secret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChecksum, err)
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(e.Signature.Checksum))) != 1 {
		return ErrInvalidChecksum
	}
	return nil
}

// lookup resolves a dotted path such as transaction.amount_in_cents
func lookup(data map[string]interface{}, path string) (string, bool) {
	var current interface{} = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		current, ok = m[part]
		if !ok {
			return "", false
		}
	}

	switch v := current.(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprintf("%.0f", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	case nil:
		return "", true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
