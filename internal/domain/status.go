package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ArrivalStatus string

const (
	ArrivalPending   ArrivalStatus = "pending"
	ArrivalArrived   ArrivalStatus = "arrived"
	ArrivalCancelled ArrivalStatus = "cancelled"
)

var arrivalStatusLabels = map[ArrivalStatus]string{
	ArrivalPending:   "Pending",
	ArrivalArrived:   "Arrived",
	ArrivalCancelled: "Cancelled",
}

// Label returns a human-readable label for the status.
func (s ArrivalStatus) Label() string {
	if label, ok := arrivalStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s ArrivalStatus) Valid() bool {
	_, ok := arrivalStatusLabels[s]
	return ok
}

// ParseArrivalStatus returns the status for a given label (case-insensitive).
func ParseArrivalStatus(label string) (ArrivalStatus, error) {
	status := ArrivalStatus(strings.ToLower(strings.TrimSpace(label)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, label)
	}
	return status, nil
}

// UnmarshalJSON normalizes case; validity is checked where the status is used.
func (s *ArrivalStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, string(data))
	}
	*s = ArrivalStatus(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}
