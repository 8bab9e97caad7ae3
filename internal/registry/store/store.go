// Package store provides the registry's persistence backends. All three
// implementations expose the same atomic primitives: insert-if-absent for
// registration, update-if-present for attestation, and snapshot reads.
package store

import (
	"context"

	"attestry/internal/registry/models"
	id "attestry/pkg/domain"
)

// Store is the registry store contract. Implementations must guarantee
// per-key atomicity: Create is a single indivisible check-and-insert,
// Attest rewrites the three attestation fields as one unit, and Find never
// observes a record torn across two mutations. Operations on different keys
// must not serialize against each other beyond what the atomic step needs.
//
// Failures are reported with pkg/platform/sentinel errors:
// Create returns ErrAlreadyUsed when the key already holds a record,
// Attest and Find return ErrNotFound when the key is absent. Both leave the
// store exactly as it was.
type Store interface {
	Create(ctx context.Context, record *models.IdentityRecord) error
	Attest(ctx context.Context, principal id.PrincipalID, attestation models.Attestation) error
	Find(ctx context.Context, principal id.PrincipalID) (*models.IdentityRecord, error)
}
