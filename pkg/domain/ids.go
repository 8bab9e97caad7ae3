// Package domain holds strongly typed identifiers shared across modules.
//
// IDs are UUID-backed value types. Parsing is the trust boundary: every
// identifier arriving from the outside goes through a Parse function, which
// rejects empty, malformed, and nil values. The zero value of each type is
// therefore guaranteed never to equal a parsed identifier, which lets it serve
// as an "unset" sentinel in records.
package domain

import (
	"github.com/google/uuid"

	dErrors "attestry/pkg/domain-errors"
)

// PrincipalID identifies an external account (caller or attestation target).
type PrincipalID uuid.UUID

// SentinelAttester is the attester value of a record that has never been
// attested. ParsePrincipalID rejects the nil UUID, so no valid caller can
// ever collide with it.
var SentinelAttester = PrincipalID{}

// NewPrincipalID returns a fresh random principal identifier.
func NewPrincipalID() PrincipalID {
	return PrincipalID(uuid.New())
}

// ParsePrincipalID parses and validates a principal identifier.
func ParsePrincipalID(raw string) (PrincipalID, error) {
	parsed, err := parseUUID(raw, "principal id")
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(parsed), nil
}

func (p PrincipalID) String() string { return uuid.UUID(p).String() }

// IsZero reports whether p is the unset sentinel.
func (p PrincipalID) IsZero() bool { return uuid.UUID(p) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}
