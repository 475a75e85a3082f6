package store

import "github.com/google/uuid"

// NewApplianceID generates a unique appliance identifier
func NewApplianceID() string {
	return uuid.NewString()
}
