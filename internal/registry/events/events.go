// Package events publishes the registry's append-only event feed. The feed is
// strictly additive: consumers get an attestation history, but the registry's
// own contract remains the latest-state view.
package events

import "time"

// Type classifies registry events.
type Type string

const (
	TypeIdentityRegistered Type = "identity.registered"
	TypeIdentityAttested   Type = "identity.attested"
)

// Event is one registry mutation, keyed on the wire by the target principal
// so per-principal ordering survives partitioning.
type Event struct {
	Type      Type   `json:"type"`
	Principal string `json:"principal"`
	// Attester is set for identity.attested events only.
	Attester   string    `json:"attester,omitempty"`
	AttestedAt int64     `json:"attested_at,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	// Request provenance, captured by middleware.
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}
