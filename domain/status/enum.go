package status

import "strings"

// EffectiveStatus is the single display status derived from an order's
// independent status signals
type EffectiveStatus int

var statusStrings = []string{
	"pending",
	"processing",
	"shipped",
	"delivered",
	"cancelled",
	"completed",
	"unknown",
}

const (
	Pending EffectiveStatus = iota
	Processing
	Shipped
	Delivered
	Cancelled
	Completed
	Unknown
)

func (status EffectiveStatus) StatusName() string {
	return status.String()
}

func (status EffectiveStatus) Ordinal() int {
	if status < Pending || status > Unknown {
		return -1
	}
	return int(status)
}

func (status EffectiveStatus) Values() []string {
	return statusStrings
}

func (status EffectiveStatus) String() string {
	if status < Pending || status > Unknown {
		return statusStrings[Unknown]
	}
	return statusStrings[status]
}

func (status EffectiveStatus) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// FromString matches case-insensitively, anything unrecognised is Unknown
func FromString(value string) EffectiveStatus {
	switch normalize(value) {
	case "pending":
		return Pending
	case "processing":
		return Processing
	case "shipped":
		return Shipped
	case "delivered":
		return Delivered
	case "cancelled":
		return Cancelled
	case "completed":
		return Completed
	default:
		return Unknown
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func (status *EffectiveStatus) UnmarshalText(text []byte) error {
	*status = FromString(string(text))
	return nil
}
